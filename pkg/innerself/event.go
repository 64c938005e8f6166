package innerself

// Message is one chat message as delivered by the host.
type Message struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	IsUser bool   `json:"is_user"`
}

// Event is an inbound chat event. Only the last message is processed.
type Event struct {
	Messages []Message `json:"messages"`
}

// Reasons reported in Result.Reason.
const (
	ReasonDisabled         = "disabled"
	ReasonTooFewMessages   = "fewer than 2 messages"
	ReasonNoName           = "no character name"
	ReasonUserMessage      = "user message"
	ReasonNotAllowed       = "not in character allow-list"
	ReasonGateClosed       = "thought gate closed"
	ReasonNoGenerator      = "no thought generator"
	ReasonGenerationFailed = "thought generation failed"
)

// Result describes what HandleEvent did with an event.
type Result struct {
	// Handled is true when the event's memory was recorded.
	Handled bool `json:"handled"`

	Name string `json:"name,omitempty"`

	// Thought is the generated thought, if one was formed.
	Thought string `json:"thought,omitempty"`

	// Compressed is true when recording the memory compressed the record.
	Compressed bool `json:"compressed"`

	// Reason explains why the event was ignored or formed no thought.
	Reason string `json:"reason,omitempty"`
}
