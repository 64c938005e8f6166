// Package sqlstore implements storage.Driver on top of database/sql. The
// sqlite and postgres drivers share it and differ only in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/papercomputeco/innerself/pkg/storage"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Schema string
	Upsert string
	Select string
	Delete string
}

// Store is a database/sql backed snapshot store.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New creates the snapshot table if needed and returns a Store owning db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, dialect: dialect, now: time.Now}, nil
}

// Save upserts data under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert, key, data, s.now().UTC()); err != nil {
		return fmt.Errorf("saving snapshot %q: %w", key, err)
	}
	return nil
}

// Load returns the data stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Select, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %q: %w", key, err)
	}
	return data, nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Delete, key); err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
