// Package hub broadcasts mind events to in-process subscribers, such as the
// API's live event stream.
package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/logger"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Hub is an eventstream.Publisher that copies each event to every current
// subscriber. Publish never blocks: a subscriber whose buffer is full misses
// the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan *eventstream.Event]struct{}
	closed bool
	logger *slog.Logger
}

// New creates an empty hub. A nil logger discards output.
func New(log *slog.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		subs:   make(map[chan *eventstream.Event]struct{}),
		logger: log,
	}
}

// Subscribe registers a subscriber with the given buffer size (DefaultBuffer
// when buffer <= 0). The returned channel is closed by cancel or by Close.
func (h *Hub) Subscribe(buffer int) (<-chan *eventstream.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan *eventstream.Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish copies event to every subscriber.
func (h *Hub) Publish(_ context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Debug("subscriber buffer full, event skipped",
				"type", event.EventType,
				"character", event.Character,
			)
		}
	}
	return nil
}

// Close closes every subscriber channel. Later subscribers receive an
// already-closed channel.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
	return nil
}
