// Package innerself wires the mind store, the thought gate, and the thought
// generator into an engine that reacts to chat events.
package innerself

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/eventstream/nop"
	"github.com/papercomputeco/innerself/pkg/gate"
	"github.com/papercomputeco/innerself/pkg/logger"
	"github.com/papercomputeco/innerself/pkg/mind"
	"github.com/papercomputeco/innerself/pkg/storage"
	"github.com/papercomputeco/innerself/pkg/thought"
)

const (
	// DefaultSnapshotKey is the storage key snapshots are saved under.
	DefaultSnapshotKey = "innerself"

	// DefaultPersistInterval is the period between automatic snapshots.
	DefaultPersistInterval = 30 * time.Second
)

// Options configures an Engine.
type Options struct {
	Settings Settings

	// Generator forms thoughts. A nil Generator never forms any.
	Generator thought.Generator

	// Storage persists snapshots. A nil Storage disables persistence.
	Storage         storage.Driver
	SnapshotKey     string
	PersistInterval time.Duration

	// Publisher receives mind events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	Logger *slog.Logger

	// Rand drives the thought gate. Defaults to a randomly seeded source.
	Rand *rand.Rand

	// Now is the clock used for records and events. Defaults to time.Now.
	Now func() time.Time
}

// Engine tracks the minds of chat participants.
type Engine struct {
	mu       sync.RWMutex
	settings Settings

	store     *mind.Store
	gate      *gate.Gate
	generator thought.Generator
	publisher eventstream.Publisher
	persister *persister

	logger *slog.Logger
	now    func() time.Time
}

// New validates opts and builds an Engine.
func New(opts Options) (*Engine, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = nop.NewPublisher()
	}

	g, err := gate.New(opts.Settings.ThoughtFormationChance, opts.Settings.ThoughtChanceHalfForInput, opts.Rand)
	if err != nil {
		return nil, err
	}

	store := mind.NewStore(mind.StoreConfig{Logger: opts.Logger, Now: opts.Now})

	e := &Engine{
		settings:  opts.Settings.clone(),
		store:     store,
		gate:      g,
		generator: opts.Generator,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
	}

	if opts.Storage != nil {
		e.persister = newPersister(persisterConfig{
			driver:   opts.Storage,
			key:      opts.SnapshotKey,
			interval: opts.PersistInterval,
			store:    store,
			logger:   opts.Logger,
			now:      opts.Now,
		})
	}

	return e, nil
}

// Store exposes the underlying mind store for direct queries and edits.
func (e *Engine) Store() *mind.Store {
	return e.store
}

// Settings returns a copy of the current settings.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.settings.clone()
}

// UpdateSettings applies s. Invalid settings are rejected and the previous
// settings stay in effect.
func (e *Engine) UpdateSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.gate.Configure(s.ThoughtFormationChance, s.ThoughtChanceHalfForInput); err != nil {
		return err
	}
	e.settings = s.clone()
	return nil
}

// HandleEvent processes the last message of ev: it may form an inner thought
// for the speaker and always records the message as a memory. It never
// fails; generation problems only mean no thought was formed.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) Result {
	settings := e.Settings()

	if !settings.Enabled {
		return Result{Reason: ReasonDisabled}
	}
	if len(ev.Messages) < 2 {
		return Result{Reason: ReasonTooFewMessages}
	}

	last := ev.Messages[len(ev.Messages)-1]
	name := last.Name
	switch {
	case name == "":
		return Result{Reason: ReasonNoName}
	case name == settings.userName():
		return Result{Name: name, Reason: ReasonUserMessage}
	case !settings.allows(name):
		return Result{Name: name, Reason: ReasonNotAllowed}
	}

	e.store.Resolve(name)
	res := Result{Handled: true, Name: name}

	if e.gate.Allow(last.IsUser) {
		res.Thought, res.Reason = e.formThought(ctx, settings, last)
	} else {
		res.Reason = ReasonGateClosed
	}

	res.Compressed = e.store.RecordMemory(name, last.Text)
	if res.Compressed {
		e.publishCompression(ctx, name)
	}

	return res
}

func (e *Engine) formThought(ctx context.Context, settings Settings, msg Message) (string, string) {
	if e.generator == nil {
		return "", ReasonNoGenerator
	}

	text, err := e.generator.Generate(ctx, msg.Name, msg.Text)
	if err != nil {
		if settings.DebugMode {
			e.logger.Debug("thought generation failed", "character", msg.Name, "error", err)
		}
		return "", ReasonGenerationFailed
	}

	e.store.RecordThought(msg.Name, text)
	if settings.DebugMode {
		e.logger.Debug("thought formed", "character", msg.Name, "thought", text)
	}

	e.publish(ctx, eventstream.NewThoughtFormedEvent(msg.Name, eventstream.ThoughtFormed{
		Text:    text,
		Trigger: msg.Text,
		IsUser:  msg.IsUser,
	}, e.now()))

	return text, ""
}

func (e *Engine) publishCompression(ctx context.Context, name string) {
	r, ok := e.store.Get(name)
	if !ok || len(r.Memories) == 0 {
		return
	}

	e.publish(ctx, eventstream.NewMemoryCompressedEvent(name, eventstream.MemoryCompressed{
		Summary:  r.Memories[0].Text,
		Retained: len(r.Memories) - 1,
	}, e.now()))
}

func (e *Engine) publish(ctx context.Context, event *eventstream.Event) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("failed to publish event", "type", event.EventType, "character", event.Character, "error", err)
	}
}

// Context renders the mind of name for prompt injection. Unknown names
// render as the empty string.
func (e *Engine) Context(name string) string {
	r, ok := e.store.Get(name)
	if !ok {
		return ""
	}

	return mind.RenderLimit(r, e.Settings().ContextMaxLength)
}

// Start restores the last snapshot and begins periodic persistence. It is a
// no-op without a storage driver.
func (e *Engine) Start(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}
	return e.persister.start(ctx)
}

// Save writes a snapshot immediately. It is a no-op without a storage driver.
func (e *Engine) Save(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}
	return e.persister.save(ctx)
}

// Close stops periodic persistence, saves a final snapshot, and closes the
// publisher.
func (e *Engine) Close() error {
	var saveErr error
	if e.persister != nil {
		saveErr = e.persister.stop(context.Background())
	}

	if err := e.publisher.Close(); err != nil {
		return err
	}
	return saveErr
}
