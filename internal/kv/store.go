// Package kv provides the durable key-value store behind the session
// gateway's persisted markers (attempt deadlines and started flags).
//
// The store is deliberately tiny: string keys to string values. It is the
// injected capability that lets the session core persist state across client
// reloads and gateway restarts without owning any real storage schema.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal durable key-value capability.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any underlying resources.
	Close() error
}
