// Package sqlite provides a SQLite-backed snapshot storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/innerself/pkg/storage/sqlstore"
)

var dialect = sqlstore.Dialect{
	Schema: `CREATE TABLE IF NOT EXISTS innerself_snapshots (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	Upsert: `INSERT INTO innerself_snapshots (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data       = excluded.data,
			updated_at = excluded.updated_at`,
	Select: `SELECT data FROM innerself_snapshots WHERE key = ?`,
	Delete: `DELETE FROM innerself_snapshots WHERE key = ?`,
}

// Driver implements storage.Driver using SQLite.
type Driver struct {
	*sqlstore.Store
}

// NewDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases from splitting per
	// connection and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store, err := sqlstore.New(context.Background(), db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Store: store}, nil
}
