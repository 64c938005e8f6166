// Package thought forms a character's inner thought by calling a chat
// completion endpoint.
package thought

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 5 * time.Second

// maxTriggerRunes is how much of the triggering message is quoted in the prompt.
const maxTriggerRunes = 200

// ErrNoThought is returned when the endpoint answers without usable text.
var ErrNoThought = errors.New("no thought generated")

// Generator produces one inner thought for character in reaction to trigger.
type Generator interface {
	Generate(ctx context.Context, character, trigger string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, character, trigger string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, character, trigger string) (string, error) {
	return f(ctx, character, trigger)
}

// BuildPrompt renders the fixed inner-thought prompt for character, quoting
// at most the first 200 characters of trigger.
func BuildPrompt(character, trigger string) string {
	if utf8.RuneCountInString(trigger) > maxTriggerRunes {
		trigger = string([]rune(trigger)[:maxTriggerRunes])
	}

	return fmt.Sprintf(`You are the inner mind of %[1]s.
Based on what just happened in the conversation, generate a brief inner thought (1-2 sentences max).

Recent context: %[2]s

Generate a private thought that reveals %[1]s's true feelings, opinions, or plans. Be subtle and in-character.`,
		character, trigger)
}

// LLMGenerator is a Generator backed by an LLMCallFunc.
type LLMGenerator struct {
	call    LLMCallFunc
	timeout time.Duration
}

// NewLLMGenerator wraps call. A non-positive timeout selects DefaultTimeout.
func NewLLMGenerator(call LLMCallFunc, timeout time.Duration) *LLMGenerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LLMGenerator{call: call, timeout: timeout}
}

// Generate calls the endpoint under the generator's timeout and returns the
// trimmed completion. Blank completions yield ErrNoThought.
func (g *LLMGenerator) Generate(ctx context.Context, character, trigger string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.call(ctx, BuildPrompt(character, trigger))
	if err != nil {
		return "", fmt.Errorf("generating thought for %s: %w", character, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrNoThought
	}
	return out, nil
}
