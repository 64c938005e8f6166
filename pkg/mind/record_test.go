package mind_test

import (
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/mind"
)

var _ = Describe("Record", func() {
	var (
		rec *mind.Record
		now time.Time
	)

	BeforeEach(func() {
		now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		rec = mind.NewRecord("Alice", now)
	})

	Describe("NewRecord", func() {
		It("starts with empty, non-nil containers", func() {
			Expect(rec.Name).To(Equal("Alice"))
			Expect(rec.Thoughts).NotTo(BeNil())
			Expect(rec.Memories).NotTo(BeNil())
			Expect(rec.Goals).NotTo(BeNil())
			Expect(rec.Secrets).NotTo(BeNil())
			Expect(rec.Opinions).NotTo(BeNil())
			Expect(rec.LastActive).To(BeTemporally("==", now))
		})
	})

	Describe("AddThought", func() {
		It("keeps at most MaxThoughts, dropping the oldest", func() {
			for i := 1; i <= 25; i++ {
				rec.AddThought(fmt.Sprintf("thought %d", i), now)
			}

			Expect(rec.Thoughts).To(HaveLen(mind.MaxThoughts))
			for i, t := range rec.Thoughts {
				Expect(t.Text).To(Equal(fmt.Sprintf("thought %d", i+6)))
			}
		})

		It("does not evict below the bound", func() {
			for i := 1; i <= mind.MaxThoughts; i++ {
				rec.AddThought(fmt.Sprintf("thought %d", i), now)
			}
			Expect(rec.Thoughts).To(HaveLen(mind.MaxThoughts))
			Expect(rec.Thoughts[0].Text).To(Equal("thought 1"))
		})
	})

	Describe("AddMemory", func() {
		It("does not compress up to MaxMemories", func() {
			for i := 1; i <= mind.MaxMemories; i++ {
				Expect(rec.AddMemory(fmt.Sprintf("m%d", i), now)).To(BeFalse())
			}
			Expect(rec.Memories).To(HaveLen(mind.MaxMemories))
		})

		It("compresses to 21 entries when crossing the threshold", func() {
			for i := 1; i <= mind.MaxMemories; i++ {
				rec.AddMemory(fmt.Sprintf("m%d", i), now)
			}
			Expect(rec.AddMemory("m51", now)).To(BeTrue())

			Expect(rec.Memories).To(HaveLen(21))
			Expect(rec.Memories[0].Compressed).To(BeTrue())
			Expect(rec.Memories[0].Text).To(Equal("[Compressed Memory] m42 m43 m44 m45 m46 m47 m48 m49 m50 m51..."))

			for i, m := range rec.Memories[1:] {
				Expect(m.Compressed).To(BeFalse())
				Expect(m.Text).To(Equal(fmt.Sprintf("m%d", i+32)))
			}
		})

		It("truncates the summary to 200 characters before the ellipsis", func() {
			long := strings.Repeat("x", 50)
			for i := 1; i <= mind.MaxMemories+1; i++ {
				rec.AddMemory(long, now)
			}

			text := rec.Memories[0].Text
			Expect(text).To(HavePrefix("[Compressed Memory] "))
			Expect(text).To(HaveSuffix("..."))

			summary := strings.TrimSuffix(strings.TrimPrefix(text, "[Compressed Memory] "), "...")
			Expect(summary).To(HaveLen(200))
		})

		It("truncates multi-byte text by characters", func() {
			long := strings.Repeat("é", 30)
			for i := 1; i <= mind.MaxMemories+1; i++ {
				rec.AddMemory(long, now)
			}

			summary := strings.TrimSuffix(strings.TrimPrefix(rec.Memories[0].Text, "[Compressed Memory] "), "...")
			Expect([]rune(summary)).To(HaveLen(200))
		})

		It("only compresses again after crossing the threshold again", func() {
			for i := 1; i <= mind.MaxMemories+1; i++ {
				rec.AddMemory(fmt.Sprintf("m%d", i), now)
			}
			Expect(rec.Memories).To(HaveLen(21))

			for i := 52; i <= 80; i++ {
				Expect(rec.AddMemory(fmt.Sprintf("m%d", i), now)).To(BeFalse())
			}
			Expect(rec.Memories).To(HaveLen(mind.MaxMemories))
			Expect(rec.Memories[0].Compressed).To(BeTrue())

			Expect(rec.AddMemory("m81", now)).To(BeTrue())
			Expect(rec.Memories).To(HaveLen(21))
			Expect(rec.Memories[0].Text).To(HavePrefix("[Compressed Memory] m72 "))
			Expect(rec.Memories[1].Text).To(Equal("m62"))
		})
	})

	Describe("Goals", func() {
		It("adds goals as active", func() {
			rec.AddGoal("Find the artifact", now)
			Expect(rec.Goals).To(HaveLen(1))
			Expect(rec.Goals[0].Status).To(Equal(mind.GoalActive))
		})

		It("resolves the first matching active goal", func() {
			rec.AddGoal("Find the artifact", now)
			rec.AddGoal("Find the artifact", now)

			Expect(rec.ResolveGoal("Find the artifact")).To(BeTrue())
			Expect(rec.Goals[0].Status).To(Equal(mind.GoalResolved))
			Expect(rec.Goals[1].Status).To(Equal(mind.GoalActive))
			Expect(rec.ActiveGoals()).To(HaveLen(1))
		})

		It("reports false when no active goal matches", func() {
			Expect(rec.ResolveGoal("nothing")).To(BeFalse())
		})
	})

	Describe("SetOpinion", func() {
		It("keeps the last write", func() {
			rec.SetOpinion("Bob", "trustworthy")
			rec.SetOpinion("Bob", "suspicious")
			Expect(rec.Opinions).To(HaveLen(1))
			Expect(rec.Opinions).To(HaveKeyWithValue("Bob", "suspicious"))
		})
	})

	Describe("Clone", func() {
		It("returns a deep copy", func() {
			rec.AddThought("original", now)
			rec.SetOpinion("k", "v")

			c := rec.Clone()
			c.Thoughts[0].Text = "mutated"
			c.Opinions["k"] = "mutated"

			Expect(rec.Thoughts[0].Text).To(Equal("original"))
			Expect(rec.Opinions["k"]).To(Equal("v"))
		})
	})
})
