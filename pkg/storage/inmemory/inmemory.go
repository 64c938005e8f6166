// Package inmemory provides a map-backed storage driver for tests and for
// running without durable persistence.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/innerself/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		blobs: make(map[string][]byte),
	}
}

// Save stores a copy of data under key.
func (d *Driver) Save(_ context.Context, key string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.blobs[key] = slices.Clone(data)
	return nil
}

// Load returns a copy of the data stored under key.
func (d *Driver) Load(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	data, ok := d.blobs[key]
	if !ok {
		return nil, storage.NotFoundError{Key: key}
	}

	return slices.Clone(data), nil
}

// Delete removes key.
func (d *Driver) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.blobs, key)
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
