package mind

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/papercomputeco/innerself/pkg/logger"
)

// StoreConfig holds the configuration for a Store.
type StoreConfig struct {
	// Logger receives debug output such as brain creation. Defaults to a
	// no-op logger.
	Logger *slog.Logger

	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Store maps participant names to their records.
//
// Records are created lazily on first reference and are never removed
// automatically; Clear and Reset are the only ways to drop them.
type Store struct {
	// mu guards records. Snapshots take the read lock so a concurrent
	// mutation can never produce a partial write.
	mu sync.RWMutex

	// records is keyed by the case-sensitive participant name.
	records map[string]*Record

	logger *slog.Logger
	now    func() time.Time
}

// Summary is a short overview of one record.
type Summary struct {
	Name          string    `json:"name"`
	Thoughts      int       `json:"thoughts"`
	Goals         int       `json:"goals"`
	Secrets       int       `json:"secrets"`
	Memories      int       `json:"memories"`
	Opinions      int       `json:"opinions"`
	LatestThought string    `json:"latest_thought,omitempty"`
	LastActive    time.Time `json:"last_active"`
}

// NewStore creates an empty store.
func NewStore(c StoreConfig) *Store {
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Store{
		records: make(map[string]*Record),
		logger:  c.Logger,
		now:     c.Now,
	}
}

// Resolve returns a copy of the record for name, creating and registering
// an empty one if none exists. LastActive is updated either way.
func (s *Store) Resolve(name string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolveLocked(name).Clone()
}

// Get returns a copy of the record for name without creating it or touching
// LastActive.
func (s *Store) Get(name string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[name]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// RecordThought appends an inner thought for name.
func (s *Store) RecordThought(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolveLocked(name).AddThought(text, s.now())
}

// RecordMemory appends a memory for name and reports whether the append
// triggered compression.
func (s *Store) RecordMemory(name, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	compressed := s.resolveLocked(name).AddMemory(text, s.now())
	if compressed {
		s.logger.Debug("compressed memories", "character", name)
	}
	return compressed
}

// AddGoal appends an active goal for name.
func (s *Store) AddGoal(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolveLocked(name).AddGoal(text, s.now())
}

// ResolveGoal marks the first active goal matching text as resolved.
func (s *Store) ResolveGoal(name, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolveLocked(name).ResolveGoal(text)
}

// AddSecret appends a secret for name.
func (s *Store) AddSecret(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolveLocked(name).AddSecret(text, s.now())
}

// SetOpinion assigns an opinion for name.
func (s *Store) SetOpinion(name, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolveLocked(name).SetOpinion(key, value)
}

// Names returns the sorted names of all tracked participants.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summaries returns an overview of every record, sorted by name.
func (s *Store) Summaries() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.records))
	for name, r := range s.records {
		sum := Summary{
			Name:       name,
			Thoughts:   len(r.Thoughts),
			Goals:      len(r.Goals),
			Secrets:    len(r.Secrets),
			Memories:   len(r.Memories),
			Opinions:   len(r.Opinions),
			LastActive: r.LastActive,
		}
		if n := len(r.Thoughts); n > 0 {
			sum.LatestThought = r.Thoughts[n-1].Text
		}
		summaries = append(summaries, sum)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// Len returns the number of tracked participants.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear removes the record for name. Returns false if it did not exist.
func (s *Store) Clear(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[name]; !ok {
		return false
	}
	delete(s.records, name)
	return true
}

// Reset removes every record.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)
}

func (s *Store) resolveLocked(name string) *Record {
	now := s.now()

	r, ok := s.records[name]
	if !ok {
		r = NewRecord(name, now)
		s.records[name] = r
		s.logger.Debug("created brain", "character", name)
	}
	r.LastActive = now
	return r
}
