package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/fncache-go/internal/entry"
	"github.com/vnykmshr/fncache-go/internal/eviction"
	"github.com/vnykmshr/fncache-go/internal/store"
)

// StrategyStore implements an in-memory cache with pluggable eviction strategies
type StrategyStore struct {
	strategy        eviction.Strategy
	mutex           sync.RWMutex
	evictCallback   store.EvictCallback
	cleanupCallback store.EvictCallback
	cleanupTicker   *time.Ticker
	stopCleanup     chan struct{}
}

// NewWithStrategy creates a new memory store with the specified eviction strategy
func NewWithStrategy(config eviction.Config) (*StrategyStore, error) {
	s := &StrategyStore{
		strategy:    eviction.NewStrategy(config),
		stopCleanup: make(chan struct{}),
	}

	return s, nil
}

// NewWithStrategyAndCleanup creates a new memory store with eviction strategy and automatic TTL cleanup
func NewWithStrategyAndCleanup(config eviction.Config, cleanupInterval time.Duration) (*StrategyStore, error) {
	s, err := NewWithStrategy(config)
	if err != nil {
		return nil, err
	}

	if cleanupInterval > 0 {
		s.startCleanup(cleanupInterval)
	}

	return s, nil
}

// Get retrieves the payload stored under key
func (s *StrategyStore) Get(key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, found := s.strategy.Get(key)
	if !found {
		return nil, store.ErrNotFound
	}

	if e.IsExpired() {
		// Remove expired entry (separate goroutine to avoid deadlock)
		go func() {
			s.mutex.Lock()
			s.strategy.Remove(key)
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
func (s *StrategyStore) Set(key string, value []byte, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	evictedKey, evictedEntry, wasEvicted := s.strategy.Add(key, entry.New(value, ttl))
	if wasEvicted && s.evictCallback != nil && evictedKey != "" {
		var evictedValue []byte
		if evictedEntry != nil {
			evictedValue = evictedEntry.Value
		}
		s.evictCallback(evictedKey, evictedValue)
	}

	return nil
}

// Delete removes the payload stored under key
func (s *StrategyStore) Delete(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.strategy.Remove(key)
	return nil
}

// Exists reports whether a live payload is stored under key
func (s *StrategyStore) Exists(key string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, found := s.strategy.Peek(key)
	return found && !e.IsExpired(), nil
}

// GetContext is the context-aware variant of Get
func (s *StrategyStore) GetContext(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Get(key)
}

// SetContext is the context-aware variant of Set
func (s *StrategyStore) SetContext(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Set(key, value, ttl)
}

// DeleteContext is the context-aware variant of Delete
func (s *StrategyStore) DeleteContext(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Delete(key)
}

// ExistsContext is the context-aware variant of Exists
func (s *StrategyStore) ExistsContext(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.Exists(key)
}

// Keys returns all keys currently in the store
func (s *StrategyStore) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := s.strategy.Keys()
	validKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if e, found := s.strategy.Peek(key); found && !e.IsExpired() {
			validKeys = append(validKeys, key)
		}
	}

	return validKeys
}

// Len returns the current number of entries in the store
func (s *StrategyStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, key := range s.strategy.Keys() {
		if e, found := s.strategy.Peek(key); found && !e.IsExpired() {
			count++
		}
	}

	return count
}

// Clear removes all entries from the store
func (s *StrategyStore) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.strategy.Clear()
	return nil
}

// Close closes the store and cleans up resources
func (s *StrategyStore) Close() error {
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}

	close(s.stopCleanup)
	return s.Clear()
}

// SetEvictCallback sets the callback for evictions
func (s *StrategyStore) SetEvictCallback(callback store.EvictCallback) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.evictCallback = callback
}

// SetCleanupCallback sets the callback for TTL cleanup
func (s *StrategyStore) SetCleanupCallback(callback store.EvictCallback) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cleanupCallback = callback
}

// Capacity returns the maximum number of entries the store can hold
func (s *StrategyStore) Capacity() int {
	return s.strategy.Capacity()
}

// Cleanup removes expired entries and returns the number of entries removed
func (s *StrategyStore) Cleanup() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for _, key := range s.strategy.Keys() {
		if e, found := s.strategy.Peek(key); found && e.IsExpired() {
			s.strategy.Remove(key)
			removed++

			if s.cleanupCallback != nil {
				s.cleanupCallback(key, e.Value)
			}
		}
	}

	return removed
}

// startCleanup starts the automatic cleanup goroutine
func (s *StrategyStore) startCleanup(interval time.Duration) {
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

// EvictionType returns the eviction strategy type (for debugging)
func (s *StrategyStore) EvictionType() string {
	switch s.strategy.(type) {
	case *eviction.LRUStrategy:
		return string(eviction.LRU)
	case *eviction.LFUStrategy:
		return string(eviction.LFU)
	case *eviction.FIFOStrategy:
		return string(eviction.FIFO)
	default:
		return "unknown"
	}
}

// Ensure StrategyStore implements the required interfaces
var (
	_ store.Store        = (*StrategyStore)(nil)
	_ store.ContextStore = (*StrategyStore)(nil)
	_ store.LRUStore     = (*StrategyStore)(nil)
	_ store.TTLStore     = (*StrategyStore)(nil)
)
