package innerselfcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	innerselfcmder "github.com/papercomputeco/innerself/cmd/innerself"
	"github.com/papercomputeco/innerself/pkg/utils"
)

var _ = Describe("NewInnerSelfCmd", func() {
	It("registers every subcommand", func() {
		cmd := innerselfcmder.NewInnerSelfCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "config", "auth", "brains", "context", "event", "version"))
	})

	It("carries the global flags", func() {
		cmd := innerselfcmder.NewInnerSelfCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("passes the config dir down to subcommands", func() {
		dir := GinkgoT().TempDir()
		cmd := innerselfcmder.NewInnerSelfCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{"config", "get", "api.listen", "--config-dir", dir})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring(dir))
	})

	It("prints the version", func() {
		cmd := innerselfcmder.NewInnerSelfCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{"version"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Version: " + utils.Version))
	})

	It("prints a one-line version with --short", func() {
		cmd := innerselfcmder.NewInnerSelfCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs([]string{"version", "--short"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(Equal(utils.VersionString() + "\n"))
	})
})
