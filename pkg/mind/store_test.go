package mind_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/mind"
)

// fakeClock returns a clock that advances one second per call.
func fakeClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

var _ = Describe("Store", func() {
	var store *mind.Store

	BeforeEach(func() {
		store = mind.NewStore(mind.StoreConfig{Now: fakeClock()})
	})

	Describe("Resolve", func() {
		It("creates a record on first reference", func() {
			rec := store.Resolve("Alice")
			Expect(rec).NotTo(BeNil())
			Expect(rec.Name).To(Equal("Alice"))
			Expect(store.Len()).To(Equal(1))
		})

		It("returns the same record on later references", func() {
			store.AddGoal("Alice", "win")
			rec := store.Resolve("Alice")
			Expect(rec.Goals).To(HaveLen(1))
			Expect(store.Len()).To(Equal(1))
		})

		It("treats names case-sensitively", func() {
			store.Resolve("alice")
			store.Resolve("Alice")
			Expect(store.Names()).To(Equal([]string{"Alice", "alice"}))
		})

		It("updates LastActive on every access", func() {
			first := store.Resolve("Alice").LastActive
			second := store.Resolve("Alice").LastActive
			Expect(second).To(BeTemporally(">", first))
		})

		It("returns a copy that cannot mutate the store", func() {
			store.RecordThought("Alice", "original")
			rec := store.Resolve("Alice")
			rec.Thoughts[0].Text = "mutated"

			again, ok := store.Get("Alice")
			Expect(ok).To(BeTrue())
			Expect(again.Thoughts[0].Text).To(Equal("original"))
		})
	})

	Describe("Get", func() {
		It("does not create records", func() {
			_, ok := store.Get("Nobody")
			Expect(ok).To(BeFalse())
			Expect(store.Len()).To(BeZero())
		})

		It("does not touch LastActive", func() {
			before := store.Resolve("Alice").LastActive
			rec, ok := store.Get("Alice")
			Expect(ok).To(BeTrue())
			Expect(rec.LastActive).To(BeTemporally("==", before))
		})
	})

	Describe("RecordThought", func() {
		It("retains exactly the 20 most recent thoughts in order", func() {
			for i := 1; i <= 30; i++ {
				store.RecordThought("Alice", fmt.Sprintf("t%d", i))
			}

			rec, _ := store.Get("Alice")
			Expect(rec.Thoughts).To(HaveLen(20))
			for i, t := range rec.Thoughts {
				Expect(t.Text).To(Equal(fmt.Sprintf("t%d", i+11)))
			}
		})
	})

	Describe("RecordMemory", func() {
		It("reports compression on the 51st memory", func() {
			for i := 1; i <= 50; i++ {
				Expect(store.RecordMemory("Alice", fmt.Sprintf("m%d", i))).To(BeFalse())
			}
			Expect(store.RecordMemory("Alice", "m51")).To(BeTrue())

			rec, _ := store.Get("Alice")
			Expect(rec.Memories).To(HaveLen(21))
			Expect(rec.Memories[0].Compressed).To(BeTrue())
			Expect(rec.Memories[0].Text).To(ContainSubstring("m42 m43"))
			Expect(rec.Memories[0].Text).To(HaveSuffix("..."))
		})
	})

	Describe("goals, secrets, opinions", func() {
		It("appends and assigns without bounds", func() {
			for i := 0; i < 100; i++ {
				store.AddGoal("Alice", fmt.Sprintf("g%d", i))
				store.AddSecret("Alice", fmt.Sprintf("s%d", i))
			}
			store.SetOpinion("Alice", "Bob", "ally")
			store.SetOpinion("Alice", "Bob", "rival")

			rec, _ := store.Get("Alice")
			Expect(rec.Goals).To(HaveLen(100))
			Expect(rec.Secrets).To(HaveLen(100))
			Expect(rec.Opinions).To(Equal(map[string]string{"Bob": "rival"}))
		})

		It("resolves goals", func() {
			store.AddGoal("Alice", "escape")
			Expect(store.ResolveGoal("Alice", "escape")).To(BeTrue())
			Expect(store.ResolveGoal("Alice", "escape")).To(BeFalse())
		})
	})

	Describe("Summaries", func() {
		It("summarizes every record sorted by name", func() {
			store.RecordThought("Bob", "first")
			store.RecordThought("Bob", "latest")
			store.AddGoal("Alice", "win")

			sums := store.Summaries()
			Expect(sums).To(HaveLen(2))
			Expect(sums[0].Name).To(Equal("Alice"))
			Expect(sums[0].Goals).To(Equal(1))
			Expect(sums[0].LatestThought).To(BeEmpty())
			Expect(sums[1].Name).To(Equal("Bob"))
			Expect(sums[1].Thoughts).To(Equal(2))
			Expect(sums[1].LatestThought).To(Equal("latest"))
		})
	})

	Describe("Clear and Reset", func() {
		It("clears a single record", func() {
			store.Resolve("Alice")
			store.Resolve("Bob")

			Expect(store.Clear("Alice")).To(BeTrue())
			Expect(store.Clear("Alice")).To(BeFalse())
			Expect(store.Names()).To(Equal([]string{"Bob"}))
		})

		It("resets the whole store", func() {
			store.Resolve("Alice")
			store.Reset()
			Expect(store.Len()).To(BeZero())
		})
	})

	It("is safe for concurrent use", func() {
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer GinkgoRecover()
				defer wg.Done()
				for i := 0; i < 100; i++ {
					store.RecordMemory("Alice", fmt.Sprintf("w%d-%d", w, i))
					store.RecordThought("Alice", "t")
					_, err := store.Snapshot()
					Expect(err).NotTo(HaveOccurred())
				}
			}(w)
		}
		wg.Wait()

		rec, _ := store.Get("Alice")
		Expect(len(rec.Thoughts)).To(BeNumerically("<=", mind.MaxThoughts))
		Expect(len(rec.Memories)).To(BeNumerically("<=", mind.MaxMemories))
	})
})
