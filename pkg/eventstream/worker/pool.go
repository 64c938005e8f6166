// Package worker decouples event publishing from the chat event path.
//
// A Pool is an eventstream.Publisher that queues events and hands them to a
// downstream publisher on background workers, so a slow broker never delays
// thought formation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/logger"
)

var (
	// A single worker keeps events in emission order.
	defaultNumWorkers   uint = 1
	defaultJobQueueSize uint = 256
)

// ErrQueueFull is returned by Publish when the event was dropped.
var ErrQueueFull = errors.New("event queue full, event dropped")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event pool closed")

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives the queued events. Required.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool publishes events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan *eventstream.Event
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, errors.New("worker pool requires a publisher")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan *eventstream.Event, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits an event for publishing. It returns false when the queue
// is full or the pool is closed, in which case the event is dropped.
func (p *Pool) Enqueue(event *eventstream.Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.queue <- event:
		p.logger.Debug("event queued", "type", event.EventType, "character", event.Character)
		return true
	default:
		p.logger.Error("event not queued, queue full, event dropped",
			"type", event.EventType,
			"character", event.Character,
		)
		return false
	}
}

// Publish enqueues event without waiting for delivery.
func (p *Pool) Publish(_ context.Context, event *eventstream.Event) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	if !p.Enqueue(event) {
		return ErrQueueFull
	}
	return nil
}

// Close stops accepting events, waits for queued events to drain, and then
// closes the downstream publisher. Calling Close more than once is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker continuously pulls events off the queue until it is closed.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("event worker started", "worker_id", id)

	for event := range p.queue {
		if err := p.config.Publisher.Publish(context.Background(), event); err != nil {
			p.logger.Warn("failed to publish event",
				"type", event.EventType,
				"character", event.Character,
				"error", err,
			)
		}
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}
