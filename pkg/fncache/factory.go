package fncache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/fncache-go/internal/eviction"
	"github.com/vnykmshr/fncache-go/internal/store"
	memorystore "github.com/vnykmshr/fncache-go/internal/store/memory"
	redisstore "github.com/vnykmshr/fncache-go/internal/store/redis"
	"github.com/vnykmshr/fncache-go/pkg/ref"
)

// Store is the storage contract a cache writes serialized values
// through. Implementations must be safe for concurrent use; lookups
// for absent or expired keys return ErrNotFound.
type Store interface {
	// Get retrieves the payload stored under key
	Get(key string) ([]byte, error)

	// Set stores a payload under key with the given TTL
	// A zero TTL means the entry never expires
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes the payload stored under key
	Delete(key string) error

	// Exists reports whether key is present and not expired
	Exists(key string) (bool, error)

	// Keys returns all keys currently in the store
	Keys() []string

	// Len returns the number of entries in the store
	Len() int

	// Clear removes all entries from the store
	Clear() error

	// Close releases any resources held by the store
	Close() error
}

// ContextStore extends Store with context-aware operations for
// backends that do I/O
type ContextStore interface {
	Store

	GetContext(ctx context.Context, key string) ([]byte, error)
	SetContext(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteContext(ctx context.Context, key string) error
	ExistsContext(ctx context.Context, key string) (bool, error)
}

// ErrNotFound is returned by Store.Get when a key is absent or expired
var ErrNotFound = store.ErrNotFound

// StorageFactory opens a backing store. Factories are recipes, not
// handles: the cache resolves each factory identity to a singleton
// store through a ref.Registry, so every cache built from the same
// factory shares one store.
type StorageFactory func() (Store, error)

// MemoryFactory returns a factory for an in-memory LRU store
func MemoryFactory(maxEntries int) StorageFactory {
	return func() (Store, error) {
		return memorystore.New(maxEntries)
	}
}

// MemoryFactoryWithCleanup returns a factory for an in-memory LRU store
// with periodic expired entry cleanup
func MemoryFactoryWithCleanup(maxEntries int, cleanupInterval time.Duration) StorageFactory {
	return func() (Store, error) {
		return memorystore.NewWithCleanup(maxEntries, cleanupInterval)
	}
}

// MemoryFactoryWithEviction returns a factory for an in-memory store
// using the given eviction policy
func MemoryFactoryWithEviction(maxEntries int, policy EvictionPolicy, cleanupInterval time.Duration) StorageFactory {
	return func() (Store, error) {
		config := eviction.Config{
			Type:     eviction.EvictionType(policy),
			Capacity: maxEntries,
		}
		if cleanupInterval > 0 {
			return memorystore.NewWithStrategyAndCleanup(config, cleanupInterval)
		}
		return memorystore.NewWithStrategy(config)
	}
}

// RedisFactory returns a factory for a Redis-backed store. The server
// is pinged on construction so an unreachable Redis fails the first
// resolution instead of degrading every lookup afterwards.
func RedisFactory(redisConfig *RedisConfig) StorageFactory {
	return func() (Store, error) {
		if redisConfig == nil {
			return nil, fmt.Errorf("redis config is required")
		}

		client := redisConfig.Client
		if client == nil {
			if redisConfig.Addr == "" {
				return nil, fmt.Errorf("redis address or client is required")
			}
			client = redis.NewClient(&redis.Options{
				Addr:     redisConfig.Addr,
				Password: redisConfig.Password,
				DB:       redisConfig.DB,
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}

		return redisstore.New(&redisstore.Config{
			Client:    client,
			KeyPrefix: redisConfig.KeyPrefix,
		})
	}
}

// resolveStore opens (or reuses) the store configured by config.
// An explicit FactoryKey wins; a supplied factory is keyed by its code
// pointer, with the first resolution winning for closures that share
// one; the implicit memory store is keyed by its settings so caches
// with identical settings share a store.
func resolveStore(config *Config) (Store, error) {
	registry := config.Registry
	if registry == nil {
		registry = ref.Global()
	}

	factory := config.StorageFactory
	var key ref.Key
	switch {
	case config.FactoryKey != "":
		key = ref.Key("factory:" + config.FactoryKey)
		if factory == nil {
			factory = defaultMemoryFactory(config)
		}
	case factory != nil:
		key = ref.FuncKey(factory)
	default:
		factory = defaultMemoryFactory(config)
		key = defaultMemoryKey(config)
	}

	return ref.Resolve(registry, key, func() (Store, error) {
		return factory()
	})
}

// defaultMemoryFactory builds the implicit memory factory from the
// cache's memory settings
func defaultMemoryFactory(config *Config) StorageFactory {
	maxEntries, policy := memoryDefaults(config)

	if policy == EvictionLRU {
		if config.CleanupInterval > 0 {
			return MemoryFactoryWithCleanup(maxEntries, config.CleanupInterval)
		}
		return MemoryFactory(maxEntries)
	}
	return MemoryFactoryWithEviction(maxEntries, policy, config.CleanupInterval)
}

func defaultMemoryKey(config *Config) ref.Key {
	maxEntries, policy := memoryDefaults(config)
	return ref.Key(fmt.Sprintf("memory:%d:%s:%s", maxEntries, policy, config.CleanupInterval))
}

func memoryDefaults(config *Config) (int, EvictionPolicy) {
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	policy := config.EvictionPolicy
	if policy == "" {
		policy = EvictionLRU
	}
	return maxEntries, policy
}
