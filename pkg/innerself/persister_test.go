package innerself_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/storage"
	"github.com/papercomputeco/innerself/pkg/storage/inmemory"
)

type failingDriver struct {
	storage.Driver
}

func (failingDriver) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

type readOnlyDriver struct {
	storage.Driver
}

func (readOnlyDriver) Save(context.Context, string, []byte) error {
	return errors.New("read-only")
}

var _ = Describe("persistence", func() {
	ctx := context.Background()

	var driver *inmemory.Driver

	BeforeEach(func() {
		driver = inmemory.NewDriver()
	})

	It("is a no-op without storage", func() {
		e := newEngine(innerself.Options{Settings: settingsWithChance(0)})
		Expect(e.Start(ctx)).To(Succeed())
		Expect(e.Save(ctx)).To(Succeed())
		Expect(e.Close()).To(Succeed())
	})

	It("saves on close and restores on start", func() {
		first := newEngine(innerself.Options{Settings: settingsWithChance(0), Storage: driver})
		Expect(first.Start(ctx)).To(Succeed())
		first.HandleEvent(ctx, chat(innerself.Message{Name: "Alice", Text: "remember me"}))
		first.Store().AddSecret("Alice", "she has the key")
		Expect(first.Close()).To(Succeed())

		_, err := driver.Load(ctx, innerself.DefaultSnapshotKey)
		Expect(err).NotTo(HaveOccurred())

		second := newEngine(innerself.Options{Settings: settingsWithChance(0), Storage: driver})
		Expect(second.Start(ctx)).To(Succeed())
		DeferCleanup(second.Close)

		Expect(second.Context("Alice")).To(Equal("[Secrets] she has the key"))
		r, ok := second.Store().Get("Alice")
		Expect(ok).To(BeTrue())
		Expect(r.Memories[0].Text).To(Equal("remember me"))
	})

	It("uses the configured snapshot key", func() {
		e := newEngine(innerself.Options{Settings: settingsWithChance(0), Storage: driver, SnapshotKey: "table-7"})
		e.Store().AddGoal("Bob", "win")
		Expect(e.Save(ctx)).To(Succeed())

		_, err := driver.Load(ctx, "table-7")
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts empty from a malformed snapshot", func() {
		Expect(driver.Save(ctx, innerself.DefaultSnapshotKey, []byte("{broken"))).To(Succeed())

		e := newEngine(innerself.Options{Settings: settingsWithChance(0), Storage: driver})
		Expect(e.Start(ctx)).To(Succeed())
		DeferCleanup(e.Close)

		Expect(e.Store().Len()).To(BeZero())
	})

	It("keeps a copy of a snapshot it cannot read", func() {
		newer := []byte(`{"version":2,"agents":{"Alice":{"thoughts":[{"text":"from the future"}]}}}`)
		Expect(driver.Save(ctx, innerself.DefaultSnapshotKey, newer)).To(Succeed())

		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		e := newEngine(innerself.Options{
			Settings: settingsWithChance(0),
			Storage:  driver,
			Now:      func() time.Time { return now },
		})
		Expect(e.Start(ctx)).To(Succeed())
		Expect(e.Store().Len()).To(BeZero())
		Expect(e.Close()).To(Succeed())

		kept, err := driver.Load(ctx, fmt.Sprintf("%s.unreadable-%d", innerself.DefaultSnapshotKey, now.Unix()))
		Expect(err).NotTo(HaveOccurred())
		Expect(kept).To(Equal(newer))
	})

	It("refuses to start when an unreadable snapshot cannot be kept", func() {
		Expect(driver.Save(ctx, innerself.DefaultSnapshotKey, []byte("{broken"))).To(Succeed())

		e := newEngine(innerself.Options{Settings: settingsWithChance(0), Storage: readOnlyDriver{driver}})
		Expect(e.Start(ctx)).To(MatchError(ContainSubstring("read-only")))
	})

	It("fails to start when storage fails", func() {
		e := newEngine(innerself.Options{Settings: settingsWithChance(0), Storage: failingDriver{driver}})
		Expect(e.Start(ctx)).To(MatchError(ContainSubstring("disk on fire")))
	})

	It("snapshots periodically", func() {
		e := newEngine(innerself.Options{
			Settings:        settingsWithChance(0),
			Storage:         driver,
			PersistInterval: time.Second,
		})
		Expect(e.Start(ctx)).To(Succeed())
		DeferCleanup(e.Close)

		e.Store().AddGoal("Alice", "escape")

		Eventually(func() error {
			_, err := driver.Load(ctx, innerself.DefaultSnapshotKey)
			return err
		}, 5*time.Second, 100*time.Millisecond).Should(Succeed())
	})
})
