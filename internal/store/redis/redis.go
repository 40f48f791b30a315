package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/fncache-go/internal/store"
)

// Store implements a Redis-backed cache store. Payloads are stored as
// raw bytes; expiration is delegated to Redis TTLs, so expiry here is
// advisory and capacity eviction follows the server's own policy.
type Store struct {
	client     redis.Cmdable
	keyPrefix  string
	defaultTTL time.Duration
	ctx        context.Context
}

// Config holds Redis store configuration
type Config struct {
	// Client is the Redis client to use
	Client redis.Cmdable

	// KeyPrefix is prepended to all cache keys to avoid conflicts
	KeyPrefix string

	// DefaultTTL is applied when Set is called with a zero TTL.
	// Zero means entries without an explicit TTL never expire.
	DefaultTTL time.Duration

	// Context used by the blocking contract's operations
	Context context.Context
}

// New creates a new Redis store with the given configuration
func New(config *Config) (*Store, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	ctx := config.Context
	if ctx == nil {
		ctx = context.Background()
	}

	keyPrefix := config.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "fncache:"
	}

	return &Store{
		client:     config.Client,
		keyPrefix:  keyPrefix,
		defaultTTL: config.DefaultTTL,
		ctx:        ctx,
	}, nil
}

// GetContext retrieves the payload stored under key
func (s *Store) GetContext(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.buildKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, nil
}

// SetContext stores a payload under key with the given TTL
func (s *Store) SetContext(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if err := s.client.Set(ctx, s.buildKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// DeleteContext removes the payload stored under key
func (s *Store) DeleteContext(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.buildKey(key)).Err()
}

// ExistsContext reports whether a payload is stored under key
func (s *Store) ExistsContext(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.buildKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

// Get is the blocking variant of GetContext
func (s *Store) Get(key string) ([]byte, error) {
	return s.GetContext(s.ctx, key)
}

// Set is the blocking variant of SetContext
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	return s.SetContext(s.ctx, key, value, ttl)
}

// Delete is the blocking variant of DeleteContext
func (s *Store) Delete(key string) error {
	return s.DeleteContext(s.ctx, key)
}

// Exists is the blocking variant of ExistsContext
func (s *Store) Exists(key string) (bool, error) {
	return s.ExistsContext(s.ctx, key)
}

// Keys returns all keys currently in the store
func (s *Store) Keys() []string {
	redisKeys, err := s.client.Keys(s.ctx, s.buildKey("*")).Result()
	if err != nil {
		return []string{}
	}

	cacheKeys := make([]string, 0, len(redisKeys))
	for _, redisKey := range redisKeys {
		if cacheKey := s.extractKey(redisKey); cacheKey != "" {
			cacheKeys = append(cacheKeys, cacheKey)
		}
	}

	return cacheKeys
}

// Len returns the current number of entries in the store
func (s *Store) Len() int {
	return len(s.Keys())
}

// Clear removes all entries under this store's key prefix
func (s *Store) Clear() error {
	keys, err := s.client.Keys(s.ctx, s.buildKey("*")).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return s.client.Del(s.ctx, keys...).Err()
	}

	return nil
}

// Close closes the store. The Redis client's lifecycle is owned by the
// caller, so only this store's keys are released.
func (s *Store) Close() error {
	return s.Clear()
}

// buildKey creates a Redis key with the configured prefix
func (s *Store) buildKey(key string) string {
	return s.keyPrefix + key
}

// extractKey extracts the cache key from a Redis key
func (s *Store) extractKey(redisKey string) string {
	if !strings.HasPrefix(redisKey, s.keyPrefix) {
		return ""
	}
	return strings.TrimPrefix(redisKey, s.keyPrefix)
}

// Ensure Store implements the required interfaces
var (
	_ store.Store        = (*Store)(nil)
	_ store.ContextStore = (*Store)(nil)
)
