// Package gate decides whether an inbound chat event earns a generated
// inner thought.
package gate

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// ErrInvalidChance is returned when a chance falls outside [0, 100].
var ErrInvalidChance = errors.New("thought formation chance must be between 0 and 100")

// Gate is a stateless probability check. Only the random source carries
// state between calls.
type Gate struct {
	// Chance is the percent probability, in [0, 100], of authorizing a
	// thought for a character-authored event.
	Chance int

	// HalveForUser halves Chance for events authored by the human user.
	HalveForUser bool

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a gate. A nil rng falls back to a randomly seeded source.
func New(chance int, halveForUser bool, rng *rand.Rand) (*Gate, error) {
	if err := ValidateChance(chance); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Gate{
		Chance:       chance,
		HalveForUser: halveForUser,
		rng:          rng,
	}, nil
}

// ValidateChance checks that chance is a percentage.
func ValidateChance(chance int) error {
	if chance < 0 || chance > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidChance, chance)
	}
	return nil
}

// Configure replaces the chance and the user-halving flag. An invalid
// chance is rejected and the previous values are kept.
func (g *Gate) Configure(chance int, halveForUser bool) error {
	if err := ValidateChance(chance); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.Chance = chance
	g.HalveForUser = halveForUser
	return nil
}

// EffectiveChance returns the authorization probability, in percent, for an
// event authored by the user (isUser) or by a character.
func (g *Gate) EffectiveChance(isUser bool) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.effectiveLocked(isUser)
}

// Allow draws once from [0, 100) and authorizes a thought when the draw is
// below the effective chance.
func (g *Gate) Allow(isUser bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.rng.Float64()*100 < g.effectiveLocked(isUser)
}

func (g *Gate) effectiveLocked(isUser bool) float64 {
	chance := float64(g.Chance)
	if isUser && g.HalveForUser {
		chance /= 2
	}
	return chance
}
