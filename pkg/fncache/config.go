package fncache

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/fncache-go/pkg/codec"
	"github.com/vnykmshr/fncache-go/pkg/metrics"
	"github.com/vnykmshr/fncache-go/pkg/ref"
)

// EvictionPolicy selects the capacity eviction strategy for the
// memory-backed store
type EvictionPolicy string

const (
	// EvictionLRU evicts the least recently used entry (default)
	EvictionLRU EvictionPolicy = "lru"

	// EvictionLFU evicts the least frequently used entry
	EvictionLFU EvictionPolicy = "lfu"

	// EvictionFIFO evicts the oldest inserted entry
	EvictionFIFO EvictionPolicy = "fifo"
)

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Client is a pre-configured Redis client
	// If nil, a new client will be created using Addr, Password, DB
	Client redis.Cmdable

	// Addr is the Redis server address (host:port)
	// Only used if Client is nil
	Addr string

	// Password for Redis authentication
	// Only used if Client is nil
	Password string

	// DB is the Redis database number to use
	// Only used if Client is nil
	DB int

	// KeyPrefix is prepended to all cache keys
	// Default: "fncache:"
	KeyPrefix string
}

// MetricsConfig holds metrics exporter configuration
type MetricsConfig struct {
	// Exporter is the metrics exporter to use
	Exporter metrics.Exporter

	// Enabled determines whether metrics collection is enabled
	Enabled bool

	// CacheName is the name label applied to all metrics for this cache instance
	CacheName string

	// ReportingInterval determines how often to export stats automatically
	// Set to 0 to disable automatic reporting
	ReportingInterval time.Duration

	// Labels are additional labels applied to all metrics
	Labels metrics.Labels
}

// Config defines the configuration options for a Cache instance
type Config struct {
	// StorageFactory opens the backing store. The factory runs at most
	// once per resolved key; every cache built from the same factory
	// identity shares one store handle.
	// If nil, an in-memory store is built from MaxEntries,
	// CleanupInterval and EvictionPolicy.
	StorageFactory StorageFactory

	// FactoryKey disambiguates storage factories that share a code
	// pointer, such as closures returned by one constructor with
	// different settings. Leave empty to key by the factory function
	// itself.
	FactoryKey string

	// Registry resolves the storage factory to its shared store handle
	// If nil, the process-wide registry is used
	Registry *ref.Registry

	// Codec serializes cached values. Hits always decode a fresh copy,
	// so callers never share mutable state through the cache.
	// If nil, the JSON codec is used.
	Codec codec.Codec

	// Compression holds compression configuration for serialized values
	// If nil, compression is disabled
	Compression *codec.CompressionConfig

	// KeyPrefix is prepended to every fingerprint before it reaches the
	// store. Useful to partition one shared store between caches.
	KeyPrefix string

	// MaxEntries sets the maximum number of entries in the cache
	// Only applies to the default memory store
	// Default: 1000
	MaxEntries int

	// DefaultTTL sets the default time-to-live for cache entries
	// Default: 5 minutes
	DefaultTTL time.Duration

	// CleanupInterval sets how often expired entries are cleaned up
	// Only applies to the default memory store (Redis handles TTL itself)
	// Default: 1 minute
	CleanupInterval time.Duration

	// EvictionPolicy selects the capacity eviction strategy
	// Only applies to the default memory store
	// Default: EvictionLRU
	EvictionPolicy EvictionPolicy

	// Encoders maps exact argument types to fingerprint encoders,
	// shared by every function wrapped against this cache
	Encoders EncoderTable

	// Hooks defines event callbacks for cache operations
	Hooks *Hooks

	// Metrics holds metrics exporter configuration
	// If nil, no metrics will be exported
	Metrics *MetricsConfig

	// Logger receives cache diagnostics. Absorbed storage faults are
	// only visible here and through the OnStoreError hook.
	// If nil, logging is disabled.
	Logger Logger
}

// NewDefaultConfig returns a Config with sensible defaults for memory storage
func NewDefaultConfig() *Config {
	return &Config{
		MaxEntries:      1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
		EvictionPolicy:  EvictionLRU,
		Hooks:           &Hooks{},
	}
}

// NewRedisConfig returns a Config configured for Redis storage
func NewRedisConfig(addr string) *Config {
	return &Config{
		DefaultTTL:     5 * time.Minute,
		Hooks:          &Hooks{},
		StorageFactory: RedisFactory(&RedisConfig{Addr: addr, KeyPrefix: "fncache:"}),
		FactoryKey:     "redis:" + addr,
	}
}

// NewRedisConfigWithClient returns a Config configured for Redis with a pre-configured client
func NewRedisConfigWithClient(client redis.Cmdable) *Config {
	return &Config{
		DefaultTTL:     5 * time.Minute,
		Hooks:          &Hooks{},
		StorageFactory: RedisFactory(&RedisConfig{Client: client, KeyPrefix: "fncache:"}),
	}
}

// WithStorageFactory sets the storage factory and its disambiguation key
func (c *Config) WithStorageFactory(factory StorageFactory, factoryKey string) *Config {
	c.StorageFactory = factory
	c.FactoryKey = factoryKey
	return c
}

// WithRegistry sets the registry used to resolve the storage factory
func (c *Config) WithRegistry(registry *ref.Registry) *Config {
	c.Registry = registry
	return c
}

// WithCodec sets the value serialization codec
func (c *Config) WithCodec(cdc codec.Codec) *Config {
	c.Codec = cdc
	return c
}

// WithKeyPrefix sets the prefix prepended to every cache key
func (c *Config) WithKeyPrefix(prefix string) *Config {
	c.KeyPrefix = prefix
	return c
}

// WithMaxEntries sets the maximum number of cache entries
func (c *Config) WithMaxEntries(maxEntries int) *Config {
	c.MaxEntries = maxEntries
	return c
}

// WithDefaultTTL sets the default TTL for cache entries
func (c *Config) WithDefaultTTL(ttl time.Duration) *Config {
	c.DefaultTTL = ttl
	return c
}

// WithCleanupInterval sets the cleanup interval for expired entries
func (c *Config) WithCleanupInterval(interval time.Duration) *Config {
	c.CleanupInterval = interval
	return c
}

// WithEvictionPolicy sets the capacity eviction strategy
func (c *Config) WithEvictionPolicy(policy EvictionPolicy) *Config {
	c.EvictionPolicy = policy
	return c
}

// WithEncoders sets the argument encoder table shared by wrapped functions
func (c *Config) WithEncoders(encoders EncoderTable) *Config {
	c.Encoders = encoders
	return c
}

// WithHooks sets the event hooks for cache operations
func (c *Config) WithHooks(hooks *Hooks) *Config {
	c.Hooks = hooks
	return c
}

// WithLogger sets the cache logger
func (c *Config) WithLogger(logger Logger) *Config {
	c.Logger = logger
	return c
}

// WithRedis configures the cache to use Redis storage
func (c *Config) WithRedis(redisConfig *RedisConfig) *Config {
	c.StorageFactory = RedisFactory(redisConfig)
	if c.FactoryKey == "" && redisConfig.Addr != "" {
		c.FactoryKey = "redis:" + redisConfig.Addr
	}
	// Memory-specific settings do not apply to Redis
	c.MaxEntries = 0
	c.CleanupInterval = 0
	return c
}

// WithRedisAddr configures the cache to use Redis with the given address
func (c *Config) WithRedisAddr(addr string) *Config {
	return c.WithRedis(&RedisConfig{
		Addr:      addr,
		KeyPrefix: "fncache:",
	})
}

// WithRedisClient configures the cache to use Redis with a pre-configured client
func (c *Config) WithRedisClient(client redis.Cmdable) *Config {
	return c.WithRedis(&RedisConfig{
		Client:    client,
		KeyPrefix: "fncache:",
	})
}

// WithMetrics configures cache metrics export
func (c *Config) WithMetrics(metricsConfig *MetricsConfig) *Config {
	c.Metrics = metricsConfig
	return c
}

// WithMetricsExporter configures metrics with the given exporter
func (c *Config) WithMetricsExporter(exporter metrics.Exporter, cacheName string) *Config {
	c.Metrics = &MetricsConfig{
		Exporter:          exporter,
		Enabled:           true,
		CacheName:         cacheName,
		ReportingInterval: 30 * time.Second,
		Labels:            make(metrics.Labels),
	}
	return c
}

// WithMetricsLabels adds labels to metrics configuration
func (c *Config) WithMetricsLabels(labels metrics.Labels) *Config {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{
			Enabled:           false,
			Labels:            make(metrics.Labels),
			ReportingInterval: 30 * time.Second,
		}
	}
	for k, v := range labels {
		c.Metrics.Labels[k] = v
	}
	return c
}

// WithMetricsReportingInterval sets the metrics reporting interval
func (c *Config) WithMetricsReportingInterval(interval time.Duration) *Config {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{
			Enabled:           false,
			Labels:            make(metrics.Labels),
			ReportingInterval: interval,
		}
	} else {
		c.Metrics.ReportingInterval = interval
	}
	return c
}

// WithCompression configures cache value compression
func (c *Config) WithCompression(compressionConfig *codec.CompressionConfig) *Config {
	c.Compression = compressionConfig
	return c
}

// WithCompressionEnabled enables compression with default settings
func (c *Config) WithCompressionEnabled(enabled bool) *Config {
	if c.Compression == nil {
		c.Compression = codec.NewDefaultCompressionConfig()
	}
	c.Compression.Enabled = enabled
	return c
}

// WithCompressionAlgorithm sets the compression algorithm
func (c *Config) WithCompressionAlgorithm(algorithm codec.CompressorType) *Config {
	if c.Compression == nil {
		c.Compression = codec.NewDefaultCompressionConfig()
	}
	c.Compression.Algorithm = algorithm
	return c
}

// WithCompressionMinSize sets the minimum size threshold for compression
func (c *Config) WithCompressionMinSize(minSize int) *Config {
	if c.Compression == nil {
		c.Compression = codec.NewDefaultCompressionConfig()
	}
	c.Compression.MinSize = minSize
	return c
}

// WithCompressionLevel sets the compression level
func (c *Config) WithCompressionLevel(level int) *Config {
	if c.Compression == nil {
		c.Compression = codec.NewDefaultCompressionConfig()
	}
	c.Compression.Level = level
	return c
}
