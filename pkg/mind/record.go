// Package mind tracks the inner life of chat participants.
//
// Every participant (a "character") owns a Record: a bounded rolling memory,
// a short window of inner thoughts, open goals, secrets, and opinions. Records
// live in a Store keyed by the participant's name and are rendered into a
// compact prompt fragment by Render.
//
// Bounds are enforced on every mutation: thoughts are a FIFO window of
// MaxThoughts entries and memories are compressed into a single summary entry
// once they grow past MaxMemories.
package mind

import (
	"strings"
	"time"
)

const (
	// MaxThoughts is the number of inner thoughts retained per record.
	MaxThoughts = 20

	// MaxMemories is the memory length that triggers compression.
	MaxMemories = 50

	// retainedMemories is the number of raw memories kept after compression.
	retainedMemories = 20

	// summarizedMemories is the number of most-recent memories folded into
	// the compressed summary entry.
	summarizedMemories = 10

	// summaryMaxLen caps the summary text, in runes, before the ellipsis.
	summaryMaxLen = 200

	compressedPrefix = "[Compressed Memory] "
	ellipsis         = "..."
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalResolved GoalStatus = "resolved"
)

// Thought is a transient inner thought.
type Thought struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory is a remembered line of conversation. Compressed marks the
// synthesized summary entry produced by compression.
type Memory struct {
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	Compressed bool      `json:"compressed,omitempty"`
}

// Goal is something the character is working towards.
type Goal struct {
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	Status    GoalStatus `json:"status"`
}

// Secret is something the character keeps to themself.
type Secret struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Record is the mind of a single participant.
type Record struct {
	Name       string            `json:"name"`
	Thoughts   []Thought         `json:"thoughts"`
	Memories   []Memory          `json:"memories"`
	Goals      []Goal            `json:"goals"`
	Secrets    []Secret          `json:"secrets"`
	Opinions   map[string]string `json:"opinions"`
	LastActive time.Time         `json:"last_active"`
}

// NewRecord returns an empty record for name.
func NewRecord(name string, now time.Time) *Record {
	return &Record{
		Name:       name,
		Thoughts:   []Thought{},
		Memories:   []Memory{},
		Goals:      []Goal{},
		Secrets:    []Secret{},
		Opinions:   make(map[string]string),
		LastActive: now,
	}
}

// AddThought appends a thought and evicts the oldest one past MaxThoughts.
func (r *Record) AddThought(text string, now time.Time) {
	r.Thoughts = append(r.Thoughts, Thought{Text: text, Timestamp: now})
	r.trimThoughts()
}

// AddMemory appends a memory. When the memory count exceeds MaxMemories the
// memories are compressed and AddMemory reports true.
func (r *Record) AddMemory(text string, now time.Time) bool {
	r.Memories = append(r.Memories, Memory{Text: text, Timestamp: now})
	if len(r.Memories) <= MaxMemories {
		return false
	}

	r.compressMemories(now)
	return true
}

// AddGoal appends an active goal.
func (r *Record) AddGoal(text string, now time.Time) {
	r.Goals = append(r.Goals, Goal{Text: text, Timestamp: now, Status: GoalActive})
}

// ResolveGoal marks the first active goal with the given text as resolved.
// Returns false when no such goal exists.
func (r *Record) ResolveGoal(text string) bool {
	for i := range r.Goals {
		if r.Goals[i].Status == GoalActive && r.Goals[i].Text == text {
			r.Goals[i].Status = GoalResolved
			return true
		}
	}
	return false
}

// AddSecret appends a secret.
func (r *Record) AddSecret(text string, now time.Time) {
	r.Secrets = append(r.Secrets, Secret{Text: text, Timestamp: now})
}

// SetOpinion assigns an opinion, overwriting any previous value for key.
func (r *Record) SetOpinion(key, value string) {
	if r.Opinions == nil {
		r.Opinions = make(map[string]string)
	}
	r.Opinions[key] = value
}

// ActiveGoals returns the goals whose status is active, in insertion order.
func (r *Record) ActiveGoals() []Goal {
	var active []Goal
	for _, g := range r.Goals {
		if g.Status == GoalActive {
			active = append(active, g)
		}
	}
	return active
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := &Record{
		Name:       r.Name,
		Thoughts:   append([]Thought{}, r.Thoughts...),
		Memories:   append([]Memory{}, r.Memories...),
		Goals:      append([]Goal{}, r.Goals...),
		Secrets:    append([]Secret{}, r.Secrets...),
		Opinions:   make(map[string]string, len(r.Opinions)),
		LastActive: r.LastActive,
	}
	for k, v := range r.Opinions {
		c.Opinions[k] = v
	}
	return c
}

// normalize fills missing containers and re-applies the size bounds. Used
// after restoring a record from a snapshot written by another version.
func (r *Record) normalize(now time.Time) {
	if r.Thoughts == nil {
		r.Thoughts = []Thought{}
	}
	if r.Memories == nil {
		r.Memories = []Memory{}
	}
	if r.Goals == nil {
		r.Goals = []Goal{}
	}
	if r.Secrets == nil {
		r.Secrets = []Secret{}
	}
	if r.Opinions == nil {
		r.Opinions = make(map[string]string)
	}
	for i := range r.Goals {
		if r.Goals[i].Status == "" {
			r.Goals[i].Status = GoalActive
		}
	}

	r.trimThoughts()
	if len(r.Memories) > MaxMemories {
		r.compressMemories(now)
	}
}

func (r *Record) trimThoughts() {
	if over := len(r.Thoughts) - MaxThoughts; over > 0 {
		r.Thoughts = append([]Thought{}, r.Thoughts[over:]...)
	}
}

// compressMemories folds the most recent memories into a single summary entry
// and keeps only the last retainedMemories raw entries behind it.
func (r *Record) compressMemories(now time.Time) {
	recent := r.Memories[len(r.Memories)-summarizedMemories:]
	texts := make([]string, 0, len(recent))
	for _, m := range recent {
		texts = append(texts, m.Text)
	}
	summary := truncateRunes(strings.Join(texts, " "), summaryMaxLen)

	kept := r.Memories[len(r.Memories)-retainedMemories:]
	compressed := make([]Memory, 0, retainedMemories+1)
	compressed = append(compressed, Memory{
		Text:       compressedPrefix + summary + ellipsis,
		Timestamp:  now,
		Compressed: true,
	})
	compressed = append(compressed, kept...)

	r.Memories = compressed
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
