package sqlitepath

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveSQLitePath", func() {
	var (
		origCwd string
		tmpDir  string
	)

	BeforeEach(func() {
		var err error
		origCwd, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tmpDir, err = os.MkdirTemp("", "innerself-cwd-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origCwd)).To(Succeed())
		_ = os.RemoveAll(tmpDir)
	})

	It("prefers the configured path", func() {
		path, err := ResolveSQLitePath(" /tmp/custom.db ", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("uses innerself.db in the working directory when present", func() {
		Expect(os.WriteFile("innerself.db", []byte("test"), 0o644)).To(Succeed())

		path, err := ResolveSQLitePath("", filepath.Join(tmpDir, "state"))
		Expect(err).NotTo(HaveOccurred())

		want, err := filepath.Abs("innerself.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(want))
	})

	It("falls back to the config directory", func() {
		configDir := filepath.Join(tmpDir, "state")

		path, err := ResolveSQLitePath("", configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(configDir, "innerself.db")))

		info, err := os.Stat(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})
})
