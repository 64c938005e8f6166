package mind_test

import (
	"encoding/json"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/mind"
)

var _ = Describe("Snapshot", func() {
	var store *mind.Store

	BeforeEach(func() {
		store = mind.NewStore(mind.StoreConfig{Now: fakeClock()})
	})

	It("writes a versioned snapshot", func() {
		store.AddGoal("Alice", "win")

		data, err := store.Snapshot()
		Expect(err).NotTo(HaveOccurred())

		var raw map[string]any
		Expect(json.Unmarshal(data, &raw)).To(Succeed())
		Expect(raw).To(HaveKeyWithValue("version", BeNumerically("==", mind.SnapshotVersion)))
		Expect(raw).To(HaveKey("agents"))
	})

	It("round-trips into an equivalent store", func() {
		for i := 1; i <= 55; i++ {
			store.RecordMemory("Alice", fmt.Sprintf("m%d", i))
		}
		for i := 1; i <= 25; i++ {
			store.RecordThought("Alice", fmt.Sprintf("t%d", i))
		}
		store.AddGoal("Alice", "win")
		store.AddGoal("Alice", "lose")
		store.ResolveGoal("Alice", "lose")
		store.AddSecret("Bob", "hidden")
		store.SetOpinion("Bob", "Alice", "friend")

		data, err := store.Snapshot()
		Expect(err).NotTo(HaveOccurred())

		restored := mind.NewStore(mind.StoreConfig{Now: fakeClock()})
		Expect(restored.Restore(data)).To(Succeed())

		Expect(restored.Names()).To(Equal(store.Names()))
		for _, name := range store.Names() {
			want, _ := store.Get(name)
			got, _ := restored.Get(name)

			Expect(texts(got.Thoughts, func(t mind.Thought) string { return t.Text })).
				To(Equal(texts(want.Thoughts, func(t mind.Thought) string { return t.Text })))
			Expect(texts(got.Memories, func(m mind.Memory) string { return m.Text })).
				To(Equal(texts(want.Memories, func(m mind.Memory) string { return m.Text })))
			Expect(texts(got.Secrets, func(s mind.Secret) string { return s.Text })).
				To(Equal(texts(want.Secrets, func(s mind.Secret) string { return s.Text })))
			Expect(got.Goals).To(HaveLen(len(want.Goals)))
			for i := range want.Goals {
				Expect(got.Goals[i].Text).To(Equal(want.Goals[i].Text))
				Expect(got.Goals[i].Status).To(Equal(want.Goals[i].Status))
				Expect(got.Goals[i].Timestamp).To(BeTemporally("==", want.Goals[i].Timestamp))
			}
			Expect(got.Memories[0].Compressed).To(Equal(want.Memories[0].Compressed))
			Expect(got.Opinions).To(Equal(want.Opinions))
			Expect(mind.Render(got)).To(Equal(mind.Render(want)))
		}
	})

	It("restores an empty blob as an empty store", func() {
		store.Resolve("Alice")
		Expect(store.Restore(nil)).To(Succeed())
		Expect(store.Len()).To(BeZero())
	})

	It("defaults missing fields from older snapshots", func() {
		legacy := []byte(`{"agents":{"Alice":{"thoughts":[{"text":"hi","timestamp":"2025-01-01T00:00:00Z"}]},"Bob":{}},"label":3,"ops":9}`)

		Expect(store.Restore(legacy)).To(Succeed())
		Expect(store.Names()).To(Equal([]string{"Alice", "Bob"}))

		bob, _ := store.Get("Bob")
		Expect(bob.Thoughts).To(BeEmpty())
		Expect(bob.Memories).To(BeEmpty())
		Expect(bob.Goals).To(BeEmpty())
		Expect(bob.Secrets).To(BeEmpty())
		Expect(bob.Opinions).To(BeEmpty())

		store.AddGoal("Bob", "survive")
		store.SetOpinion("Bob", "Alice", "nice")
		Expect(mind.Render(mustGet(store, "Bob"))).To(Equal("[Goals] survive"))
	})

	It("restores browser-saved state with epoch millisecond timestamps", func() {
		saved := []byte(`{"agents":{"Alice":{` +
			`"thoughts":[{"text":"he is lying","timestamp":1735689600000}],` +
			`"goals":[{"text":"find the key","timestamp":1735689600500,"status":"active"},` +
			`{"text":"cross the river","timestamp":1735689601000,"status":"resolved"}],` +
			`"secrets":[{"text":"has a map","timestamp":1735689602000}],` +
			`"memories":[{"text":"[Compressed Memory] old news...","timestamp":1735689603000,"compressed":true},` +
			`{"text":"Bob: hello","timestamp":1735689604000}],` +
			`"opinions":{"Bob":"friendly"}}},"label":4,"ops":17}`)

		Expect(store.Restore(saved)).To(Succeed())

		alice := mustGet(store, "Alice")
		Expect(alice.Thoughts[0].Timestamp).To(BeTemporally("==", time.UnixMilli(1735689600000)))
		Expect(alice.Goals[1].Status).To(Equal(mind.GoalResolved))
		Expect(alice.Secrets[0].Timestamp).To(BeTemporally("==", time.UnixMilli(1735689602000)))
		Expect(alice.Memories).To(HaveLen(2))
		Expect(alice.Memories[0].Compressed).To(BeTrue())
		Expect(alice.Memories[1].Timestamp).To(BeTemporally("==", time.UnixMilli(1735689604000)))
		Expect(alice.Opinions).To(Equal(map[string]string{"Bob": "friendly"}))
		Expect(alice.LastActive.IsZero()).To(BeFalse())
		Expect(mind.Render(alice)).To(Equal("[Inner Thoughts] he is lying\n[Goals] find the key\n[Secrets] has a map"))
	})

	It("rejects timestamps that are neither strings nor numbers", func() {
		blob := []byte(`{"version":1,"agents":{"Alice":{"thoughts":[{"text":"hi","timestamp":true}]}}}`)
		Expect(store.Restore(blob)).To(MatchError(mind.ErrMalformedSnapshot))
	})

	It("defaults missing goal status to active", func() {
		blob := []byte(`{"version":1,"agents":{"Alice":{"goals":[{"text":"win"}]}}}`)
		Expect(store.Restore(blob)).To(Succeed())
		Expect(mind.Render(mustGet(store, "Alice"))).To(Equal("[Goals] win"))
	})

	It("re-applies bounds to oversized records", func() {
		thoughts := make([]map[string]string, 0, 30)
		for i := 1; i <= 30; i++ {
			thoughts = append(thoughts, map[string]string{"text": fmt.Sprintf("t%d", i)})
		}
		memories := make([]map[string]string, 0, 60)
		for i := 1; i <= 60; i++ {
			memories = append(memories, map[string]string{"text": fmt.Sprintf("m%d", i)})
		}
		blob, err := json.Marshal(map[string]any{
			"version": 1,
			"agents": map[string]any{
				"Alice": map[string]any{"thoughts": thoughts, "memories": memories},
			},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Restore(blob)).To(Succeed())
		alice := mustGet(store, "Alice")
		Expect(alice.Thoughts).To(HaveLen(mind.MaxThoughts))
		Expect(alice.Thoughts[0].Text).To(Equal("t11"))
		Expect(alice.Memories).To(HaveLen(21))
		Expect(alice.Memories[0].Compressed).To(BeTrue())
	})

	It("falls back to an empty store on malformed input", func() {
		store.Resolve("Alice")

		err := store.Restore([]byte(`{not json`))
		Expect(err).To(MatchError(mind.ErrMalformedSnapshot))
		Expect(store.Len()).To(BeZero())

		store.RecordThought("Alice", "still works")
		Expect(store.Len()).To(Equal(1))
	})

	It("rejects snapshots from a newer version", func() {
		err := store.Restore([]byte(`{"version":99,"agents":{}}`))
		Expect(err).To(MatchError(mind.ErrUnsupportedSnapshotVersion))
		Expect(store.Len()).To(BeZero())
	})
})

func texts[T any](items []T, text func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, text(item))
	}
	return out
}

func mustGet(store *mind.Store, name string) *mind.Record {
	rec, ok := store.Get(name)
	Expect(ok).To(BeTrue())
	return rec
}
