package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent, expired, or was
// evicted. Callers must treat it as a cache miss, never as a failure.
var ErrNotFound = errors.New("store: key not found")

// Store defines the blocking contract for cache storage backends.
// Values are opaque serialized payloads; key layout beyond the backend's
// own namespacing is the caller's concern.
type Store interface {
	// Get retrieves the payload stored under key.
	// Returns ErrNotFound if the key is absent or expired.
	Get(key string) ([]byte, error)

	// Set stores a payload under key. A ttl of zero means no expiration
	// enforced by this layer; the backend may still evict on capacity.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes the payload stored under key.
	// Deleting an absent key is not an error.
	Delete(key string) error

	// Exists reports whether a live (non-expired) payload is stored under key.
	Exists(key string) (bool, error)

	// Keys returns all keys currently in the store
	Keys() []string

	// Len returns the current number of entries in the store
	Len() int

	// Clear removes all entries from the store
	Clear() error

	// Close closes the store and cleans up resources
	Close() error
}

// ContextStore is the suspension-based contract: the same operations as
// Store, but each may block on a remote round trip and honors the
// caller's context. Backends may implement one or both contracts.
type ContextStore interface {
	GetContext(ctx context.Context, key string) ([]byte, error)
	SetContext(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteContext(ctx context.Context, key string) error
	ExistsContext(ctx context.Context, key string) (bool, error)
}

// EvictCallback is called when an entry is evicted from the store
// This allows the cache to track evictions and invoke hooks
type EvictCallback func(key string, value []byte)

// LRUStore extends Store with capacity-eviction functionality
type LRUStore interface {
	Store

	// SetEvictCallback sets a callback function that will be called
	// when entries are evicted due to capacity pressure
	SetEvictCallback(callback EvictCallback)

	// Capacity returns the maximum number of entries the store can hold
	Capacity() int
}

// TTLStore extends Store with TTL cleanup functionality
type TTLStore interface {
	Store

	// Cleanup removes expired entries
	// Returns the number of entries removed
	Cleanup() int

	// SetCleanupCallback sets a callback function that will be called
	// when entries are removed during cleanup
	SetCleanupCallback(callback EvictCallback)
}
