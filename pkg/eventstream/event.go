package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeThoughtFormed is emitted after a generated thought is recorded.
	EventTypeThoughtFormed = "innerself.thought.formed"

	// EventTypeMemoryCompressed is emitted when a character's memory overflows
	// and is folded into a compressed summary.
	EventTypeMemoryCompressed = "innerself.memory.compressed"
)

// Event is a transport-neutral payload describing a change to one
// character's mind. Exactly one of Thought or Compression is set.
type Event struct {
	SchemaVersion int               `json:"schema_version"`
	EventType     string            `json:"event_type"`
	EventID       string            `json:"event_id"`
	EmittedAt     time.Time         `json:"emitted_at"`
	Character     string            `json:"character"`
	Thought       *ThoughtFormed    `json:"thought,omitempty"`
	Compression   *MemoryCompressed `json:"compression,omitempty"`
}

// ThoughtFormed describes a newly recorded inner thought.
type ThoughtFormed struct {
	Text    string `json:"text"`
	Trigger string `json:"trigger"`
	IsUser  bool   `json:"is_user"`
}

// MemoryCompressed describes the summary entry written by a compression.
type MemoryCompressed struct {
	Summary  string `json:"summary"`
	Retained int    `json:"retained"`
}

// NewThoughtFormedEvent builds an EventTypeThoughtFormed event.
func NewThoughtFormedEvent(character string, payload ThoughtFormed, at time.Time) *Event {
	e := newEvent(EventTypeThoughtFormed, character, at)
	e.Thought = &payload
	return e
}

// NewMemoryCompressedEvent builds an EventTypeMemoryCompressed event.
func NewMemoryCompressedEvent(character string, payload MemoryCompressed, at time.Time) *Event {
	e := newEvent(EventTypeMemoryCompressed, character, at)
	e.Compression = &payload
	return e
}

func newEvent(eventType, character string, at time.Time) *Event {
	return &Event{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     at.UTC(),
		Character:     character,
	}
}
