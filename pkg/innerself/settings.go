package innerself

import (
	"fmt"
	"slices"

	"github.com/papercomputeco/innerself/pkg/config"
	"github.com/papercomputeco/innerself/pkg/gate"
)

// DefaultUserName is the participant name that marks the human user.
// Messages under this name never get a mind.
const DefaultUserName = "You"

// Settings are the runtime options of an Engine.
type Settings struct {
	// Enabled turns event processing on or off.
	Enabled bool `json:"enabled"`

	// ThoughtFormationChance is the percent chance, in [0, 100], that an
	// event produces a generated thought.
	ThoughtFormationChance int `json:"thought_formation_chance"`

	// Characters is the allow-list of participant names. Empty allows all.
	Characters []string `json:"characters"`

	// ThoughtChanceHalfForInput halves the chance for user-authored events.
	ThoughtChanceHalfForInput bool `json:"thought_chance_half_for_input"`

	// DebugMode logs generated thoughts and generation failures.
	DebugMode bool `json:"debug_mode"`

	// UserName is the sentinel participant name that is never tracked.
	UserName string `json:"user_name"`

	// ContextMaxLength caps rendered context, in characters. Zero or less
	// means unlimited.
	ContextMaxLength int `json:"context_max_length"`
}

// DefaultSettings mirrors config.NewDefaultConfig().
func DefaultSettings() Settings {
	return SettingsFromConfig(config.NewDefaultConfig().InnerSelf)
}

// SettingsFromConfig converts the [innerself] config section.
func SettingsFromConfig(c config.InnerSelfConfig) Settings {
	return Settings{
		Enabled:                   c.Enabled,
		ThoughtFormationChance:    c.ThoughtFormationChance,
		Characters:                slices.Clone(c.Characters),
		ThoughtChanceHalfForInput: c.ThoughtChanceHalfForInput,
		DebugMode:                 c.DebugMode,
		UserName:                  c.UserName,
		ContextMaxLength:          c.ContextMaxLength,
	}
}

// Validate rejects settings that must not reach the gate.
func (s Settings) Validate() error {
	if err := gate.ValidateChance(s.ThoughtFormationChance); err != nil {
		return err
	}
	if s.ContextMaxLength < 0 {
		return fmt.Errorf("context max length must not be negative: got %d", s.ContextMaxLength)
	}
	return nil
}

func (s Settings) userName() string {
	if s.UserName == "" {
		return DefaultUserName
	}
	return s.UserName
}

// allows reports whether name passes the allow-list.
func (s Settings) allows(name string) bool {
	return len(s.Characters) == 0 || slices.Contains(s.Characters, name)
}

func (s Settings) clone() Settings {
	s.Characters = slices.Clone(s.Characters)
	return s
}
