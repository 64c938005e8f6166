package mind

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotVersion is the current snapshot schema version. Snapshots written
// before versioning existed carry no version field and decode as version 0;
// their timestamps are epoch milliseconds and their label and ops counters
// are ignored.
const SnapshotVersion = 1

// snapshot is the persisted form of a Store.
type snapshot struct {
	Version int                `json:"version"`
	SavedAt time.Time          `json:"saved_at,omitzero"`
	Agents  map[string]*Record `json:"agents"`
}

// Snapshot serializes every record in the store. The read lock is held for
// the duration of the encode.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Version: SnapshotVersion,
		SavedAt: s.now(),
		Agents:  s.records,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the store's contents with the records in data. Missing
// fields default to empty containers and bounds are re-applied, so snapshots
// from older versions restore cleanly. An empty data slice yields an empty
// store.
//
// On malformed input the store is emptied and an error wrapping
// ErrMalformedSnapshot is returned; callers should treat it as a warning.
func (s *Store) Restore(data []byte) error {
	restored, err := s.decode(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.records = make(map[string]*Record)
		return err
	}

	s.records = restored
	return nil
}

func (s *Store) decode(data []byte) (map[string]*Record, error) {
	records := make(map[string]*Record)
	if len(data) == 0 {
		return records, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d (expected <= %d)", ErrUnsupportedSnapshotVersion, snap.Version, SnapshotVersion)
	}

	now := s.now()
	for name, r := range snap.Agents {
		if r == nil {
			r = NewRecord(name, now)
		}
		r.Name = name
		if r.LastActive.IsZero() {
			r.LastActive = now
		}
		r.normalize(now)
		records[name] = r
	}

	return records, nil
}
