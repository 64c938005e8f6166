package gate_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/innerself/pkg/gate"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1024))
}

func authorizationRate(g *gate.Gate, isUser bool, draws int) float64 {
	allowed := 0
	for range draws {
		if g.Allow(isUser) {
			allowed++
		}
	}
	return float64(allowed) / float64(draws) * 100
}

var _ = Describe("Gate", func() {
	Describe("New", func() {
		It("rejects chances outside [0, 100]", func() {
			_, err := gate.New(-1, false, nil)
			Expect(err).To(MatchError(gate.ErrInvalidChance))

			_, err = gate.New(101, false, nil)
			Expect(err).To(MatchError(gate.ErrInvalidChance))
		})

		It("accepts the boundaries", func() {
			_, err := gate.New(0, false, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = gate.New(100, false, nil)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("EffectiveChance", func() {
		It("halves the chance for user-authored events", func() {
			g, err := gate.New(60, true, seeded())
			Expect(err).NotTo(HaveOccurred())
			Expect(g.EffectiveChance(true)).To(Equal(30.0))
			Expect(g.EffectiveChance(false)).To(Equal(60.0))
		})

		It("keeps the full chance when halving is off", func() {
			g, err := gate.New(60, false, seeded())
			Expect(err).NotTo(HaveOccurred())
			Expect(g.EffectiveChance(true)).To(Equal(60.0))
		})

		It("keeps fractional halves", func() {
			g, err := gate.New(25, true, seeded())
			Expect(err).NotTo(HaveOccurred())
			Expect(g.EffectiveChance(true)).To(Equal(12.5))
		})
	})

	Describe("Allow", func() {
		It("authorizes about 30% of user events at p=60 with halving", func() {
			g, err := gate.New(60, true, seeded())
			Expect(err).NotTo(HaveOccurred())

			Expect(authorizationRate(g, true, 100_000)).To(BeNumerically("~", 30, 2))
		})

		It("authorizes about 60% of character events at p=60", func() {
			g, err := gate.New(60, true, seeded())
			Expect(err).NotTo(HaveOccurred())

			Expect(authorizationRate(g, false, 100_000)).To(BeNumerically("~", 60, 2))
		})

		It("never authorizes at p=0", func() {
			g, err := gate.New(0, false, seeded())
			Expect(err).NotTo(HaveOccurred())
			Expect(authorizationRate(g, false, 10_000)).To(BeZero())
		})

		It("always authorizes at p=100", func() {
			g, err := gate.New(100, false, seeded())
			Expect(err).NotTo(HaveOccurred())
			Expect(authorizationRate(g, false, 10_000)).To(Equal(100.0))
		})
	})

	Describe("Configure", func() {
		It("applies a valid chance", func() {
			g, err := gate.New(60, true, seeded())
			Expect(err).NotTo(HaveOccurred())

			Expect(g.Configure(20, false)).To(Succeed())
			Expect(g.EffectiveChance(true)).To(Equal(20.0))
		})

		It("keeps the previous values on an invalid chance", func() {
			g, err := gate.New(60, true, seeded())
			Expect(err).NotTo(HaveOccurred())

			Expect(g.Configure(101, false)).To(MatchError(gate.ErrInvalidChance))
			Expect(g.EffectiveChance(true)).To(Equal(30.0))
		})
	})
})
