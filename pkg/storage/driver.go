// Package storage defines where mind snapshots are persisted.
package storage

import "context"

// Driver persists opaque snapshot blobs under string keys. Implementations
// must be safe for concurrent use.
type Driver interface {
	// Save stores data under key, replacing any previous value.
	Save(ctx context.Context, key string, data []byte) error

	// Load returns the data stored under key, or NotFoundError when nothing
	// has been saved yet.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close closes the store and releases any resources.
	Close() error
}
