package memory

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vnykmshr/fncache-go/internal/entry"
	"github.com/vnykmshr/fncache-go/internal/store"
)

// Store implements an in-memory LRU cache with TTL support
type Store struct {
	cache           *lru.Cache[string, *entry.Entry]
	mutex           sync.RWMutex
	evictCallback   store.EvictCallback
	cleanupCallback store.EvictCallback
	cleanupTicker   *time.Ticker
	stopCleanup     chan struct{}
	capacity        int
}

// New creates a new memory store with the specified capacity
func New(capacity int) (*Store, error) {
	s := &Store{
		capacity:    capacity,
		stopCleanup: make(chan struct{}),
	}

	cache, err := lru.NewWithEvict[string, *entry.Entry](capacity, func(key string, e *entry.Entry) {
		if s.evictCallback != nil {
			s.evictCallback(key, e.Value)
		}
	})
	if err != nil {
		return nil, err
	}

	s.cache = cache
	return s, nil
}

// NewWithCleanup creates a new memory store with automatic TTL cleanup
func NewWithCleanup(capacity int, cleanupInterval time.Duration) (*Store, error) {
	s, err := New(capacity)
	if err != nil {
		return nil, err
	}

	if cleanupInterval > 0 {
		s.startCleanup(cleanupInterval)
	}

	return s, nil
}

// Get retrieves the payload stored under key
func (s *Store) Get(key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, found := s.cache.Get(key)
	if !found {
		return nil, store.ErrNotFound
	}

	if e.IsExpired() {
		// Remove expired entry (separate goroutine to avoid deadlock)
		go func() {
			s.mutex.Lock()
			s.cache.Remove(key)
			s.mutex.Unlock()

			if s.cleanupCallback != nil {
				s.cleanupCallback(key, e.Value)
			}
		}()
		return nil, store.ErrNotFound
	}

	e.Touch()
	return e.Value, nil
}

// Set stores a payload under key with the given TTL
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Add(key, entry.New(value, ttl))
	return nil
}

// Delete removes the payload stored under key
func (s *Store) Delete(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Remove(key)
	return nil
}

// Exists reports whether a live payload is stored under key
func (s *Store) Exists(key string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, found := s.cache.Peek(key)
	return found && !e.IsExpired(), nil
}

// GetContext is the context-aware variant of Get. Memory access never
// blocks, so only cancellation is honored.
func (s *Store) GetContext(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Get(key)
}

// SetContext is the context-aware variant of Set
func (s *Store) SetContext(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Set(key, value, ttl)
}

// DeleteContext is the context-aware variant of Delete
func (s *Store) DeleteContext(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Delete(key)
}

// ExistsContext is the context-aware variant of Exists
func (s *Store) ExistsContext(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.Exists(key)
}

// Keys returns all keys currently in the store
func (s *Store) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := s.cache.Keys()
	// Filter out expired keys
	validKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if e, found := s.cache.Peek(key); found && !e.IsExpired() {
			validKeys = append(validKeys, key)
		}
	}

	return validKeys
}

// Len returns the current number of entries in the store
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, key := range s.cache.Keys() {
		if e, found := s.cache.Peek(key); found && !e.IsExpired() {
			count++
		}
	}

	return count
}

// Clear removes all entries from the store
func (s *Store) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Purge()
	return nil
}

// Close closes the store and cleans up resources
func (s *Store) Close() error {
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}

	close(s.stopCleanup)
	return s.Clear()
}

// SetEvictCallback sets the callback for LRU evictions
func (s *Store) SetEvictCallback(callback store.EvictCallback) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.evictCallback = callback
}

// SetCleanupCallback sets the callback for TTL cleanup
func (s *Store) SetCleanupCallback(callback store.EvictCallback) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cleanupCallback = callback
}

// Capacity returns the maximum number of entries the store can hold
func (s *Store) Capacity() int {
	return s.capacity
}

// Cleanup removes expired entries and returns the number of entries removed
func (s *Store) Cleanup() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for _, key := range s.cache.Keys() {
		if e, found := s.cache.Peek(key); found && e.IsExpired() {
			s.cache.Remove(key)
			removed++

			if s.cleanupCallback != nil {
				s.cleanupCallback(key, e.Value)
			}
		}
	}

	return removed
}

// startCleanup starts the automatic cleanup goroutine
func (s *Store) startCleanup(interval time.Duration) {
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.cleanupTicker.C:
				s.Cleanup()
			case <-s.stopCleanup:
				return
			}
		}
	}()
}

// Ensure Store implements the required interfaces
var (
	_ store.Store        = (*Store)(nil)
	_ store.ContextStore = (*Store)(nil)
	_ store.LRUStore     = (*Store)(nil)
	_ store.TTLStore     = (*Store)(nil)
)
