package fncache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/fncache-go/internal/singleflight"
	"github.com/vnykmshr/fncache-go/internal/store"
	"github.com/vnykmshr/fncache-go/pkg/codec"
	"github.com/vnykmshr/fncache-go/pkg/metrics"
)

// Cache caches function results by value: everything that goes in is
// serialized, and every hit decodes a fresh copy, so callers never
// share mutable state through the cache. The backing store is resolved
// through a ref.Registry, so caches built from the same storage
// factory share one store handle.
type Cache struct {
	config *Config
	store  Store
	cstore ContextStore
	codec  codec.Codec
	stats  *Stats
	hooks  *Hooks
	logger Logger
	sf     *singleflight.Group[string, any]

	// Metrics
	metricsExporter metrics.Exporter
	metricsLabels   metrics.Labels
	metricsStop     chan struct{}
	metricsWg       sync.WaitGroup
}

// New creates a new Cache instance with the given configuration
func New(config *Config) (*Cache, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	cacheStore, err := resolveStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	valueCodec := config.Codec
	if valueCodec == nil {
		valueCodec = codec.Default()
	}
	valueCodec, err = codec.WithCompression(valueCodec, config.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize compression: %w", err)
	}

	hooks := config.Hooks
	if hooks == nil {
		hooks = &Hooks{}
	}

	logger := config.Logger
	if logger == nil {
		logger = NewNoOpLogger()
	}

	cache := &Cache{
		config: config,
		store:  cacheStore,
		codec:  valueCodec,
		stats:  &Stats{},
		hooks:  hooks,
		logger: logger,
		sf:     &singleflight.Group[string, any]{},
	}

	if cstore, ok := cacheStore.(ContextStore); ok {
		cache.cstore = cstore
	}

	if err := cache.initializeMetrics(); err != nil {
		return nil, err
	}

	// Store callbacks for statistics and hooks. Callbacks fire for
	// every cache sharing the store, so eviction counts reflect the
	// store, not this handle alone.
	if lruStore, ok := cacheStore.(store.LRUStore); ok {
		lruStore.SetEvictCallback(func(key string, value []byte) {
			cache.stats.incEvictions()
			cache.hooks.invokeOnEvict(key, value, EvictReasonCapacity)
		})
	}

	if ttlStore, ok := cacheStore.(store.TTLStore); ok {
		ttlStore.SetCleanupCallback(func(key string, value []byte) {
			cache.stats.incEvictions()
			cache.hooks.invokeOnEvict(key, value, EvictReasonTTL)
		})
	}

	return cache, nil
}

// NewSimple creates a memory cache with minimal configuration
func NewSimple(maxEntries int, defaultTTL time.Duration) (*Cache, error) {
	return New(NewDefaultConfig().
		WithMaxEntries(maxEntries).
		WithDefaultTTL(defaultTTL))
}

func (c *Cache) fullKey(key string) string {
	if c.config.KeyPrefix == "" {
		return key
	}
	return c.config.KeyPrefix + key
}

func (c *Cache) hit(ctx context.Context, key string, value any, args []any) {
	c.stats.incHits()
	c.hooks.invokeOnHitWithCtx(ctx, key, value, args)
}

func (c *Cache) miss(ctx context.Context, key string, args []any) {
	c.stats.incMisses()
	c.hooks.invokeOnMissWithCtx(ctx, key, args)
}

// absorbStoreError downgrades a storage fault so callers see a miss
// (reads) or lose a write, never an error
func (c *Cache) absorbStoreError(key string, op StoreOp, err error) {
	c.stats.incStoreErrors()
	c.hooks.invokeOnStoreError(key, op, err)
	c.logger.Warn("Storage fault absorbed",
		F("key", key), F("op", op.String()), F("error", err))
}

// lookup reads the payload stored under the full key. Absent keys and
// storage faults both come back as a miss; only faults are reported.
func (c *Cache) lookup(ctx context.Context, fullKey string) ([]byte, bool) {
	var data []byte
	var err error

	if c.cstore != nil && ctx != nil {
		data, err = c.cstore.GetContext(ctx, fullKey)
	} else {
		data, err = c.store.Get(fullKey)
	}

	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.absorbStoreError(fullKey, StoreOpRead, err)
		}
		return nil, false
	}
	return data, true
}

// write stores a payload under the full key, best effort: faults are
// absorbed and reported, never returned
func (c *Cache) write(ctx context.Context, fullKey string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	var err error
	if c.cstore != nil && ctx != nil {
		err = c.cstore.SetContext(ctx, fullKey, data, ttl)
	} else {
		err = c.store.Set(fullKey, data, ttl)
	}

	if err != nil {
		c.absorbStoreError(fullKey, StoreOpWrite, err)
		return
	}
	c.updateKeyCount()
}

// Get retrieves the value cached under key, decoding it into out,
// which must be a non-nil pointer. Storage faults and undecodable
// payloads degrade to a miss.
func (c *Cache) Get(key string, out any) bool {
	return c.GetContext(context.Background(), key, out)
}

// GetContext is like Get but threads ctx through context-aware stores
func (c *Cache) GetContext(ctx context.Context, key string, out any) bool {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationGet, time.Since(start))
	}()

	fullKey := c.fullKey(key)
	data, ok := c.lookup(ctx, fullKey)
	if !ok {
		c.miss(ctx, key, nil)
		return false
	}

	if err := c.codec.Unmarshal(data, out); err != nil {
		c.logger.Warn("Undecodable payload treated as miss",
			F("key", key), F("error", err))
		c.miss(ctx, key, nil)
		return false
	}

	c.hit(ctx, key, data, nil)
	return true
}

// Set serializes value and stores it under key with the given TTL.
// A non-positive TTL uses the configured default.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	return c.SetContext(context.Background(), key, value, ttl)
}

// SetContext is like Set but threads ctx through context-aware stores
func (c *Cache) SetContext(ctx context.Context, key string, value any, ttl time.Duration) error {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationSet, time.Since(start))
	}()

	data, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("fncache: encoding value for %q: %w", key, err)
	}

	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	fullKey := c.fullKey(key)
	if c.cstore != nil && ctx != nil {
		err = c.cstore.SetContext(ctx, fullKey, data, ttl)
	} else {
		err = c.store.Set(fullKey, data, ttl)
	}
	if err != nil {
		return fmt.Errorf("fncache: storing %q: %w", key, err)
	}

	c.updateKeyCount()
	return nil
}

// Invalidate removes the entry cached under key
func (c *Cache) Invalidate(key string) error {
	return c.InvalidateContext(context.Background(), key)
}

// InvalidateContext is like Invalidate but threads ctx through
// context-aware stores
func (c *Cache) InvalidateContext(ctx context.Context, key string) error {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationInvalidate, time.Since(start))
	}()

	fullKey := c.fullKey(key)
	var err error
	if c.cstore != nil && ctx != nil {
		err = c.cstore.DeleteContext(ctx, fullKey)
	} else {
		err = c.store.Delete(fullKey)
	}
	if err != nil {
		return err
	}

	c.stats.incInvalidations()
	c.updateKeyCount()
	c.hooks.invokeOnInvalidateWithCtx(ctx, key, nil)
	return nil
}

// InvalidateAll removes every entry reachable through this cache's
// key prefix. With no prefix configured the whole store is cleared.
func (c *Cache) InvalidateAll() error {
	ctx := context.Background()

	if c.config.KeyPrefix == "" {
		keys := c.store.Keys()
		if err := c.store.Clear(); err != nil {
			return err
		}
		for _, key := range keys {
			c.stats.incInvalidations()
			c.hooks.invokeOnInvalidateWithCtx(ctx, key, nil)
		}
		c.updateKeyCount()
		return nil
	}

	for _, key := range c.Keys() {
		if err := c.Invalidate(key); err != nil {
			return err
		}
	}
	return nil
}

// Has checks if a key exists in the cache
func (c *Cache) Has(key string) bool {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationExists, time.Since(start))
	}()

	exists, err := c.store.Exists(c.fullKey(key))
	if err != nil {
		c.absorbStoreError(c.fullKey(key), StoreOpRead, err)
		return false
	}
	return exists
}

// Keys returns the cache's current keys, with the key prefix stripped
func (c *Cache) Keys() []string {
	all := c.store.Keys()
	if c.config.KeyPrefix == "" {
		return all
	}

	keys := make([]string, 0, len(all))
	for _, key := range all {
		if len(key) >= len(c.config.KeyPrefix) && key[:len(c.config.KeyPrefix)] == c.config.KeyPrefix {
			keys = append(keys, key[len(c.config.KeyPrefix):])
		}
	}
	return keys
}

// Len returns the current number of entries in the backing store
func (c *Cache) Len() int {
	return c.store.Len()
}

// Cleanup removes expired entries and returns count removed
func (c *Cache) Cleanup() int {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationCleanup, time.Since(start))
	}()

	var removed int
	if ttlStore, ok := c.store.(store.TTLStore); ok {
		removed = ttlStore.Cleanup()
		c.updateKeyCount()
	}
	return removed
}

// Stats returns the current cache statistics
func (c *Cache) Stats() *Stats {
	c.updateKeyCount()
	return c.stats
}

// Close stops metrics reporting and flushes the exporter. The backing
// store is left open: its lifetime belongs to the registry that
// resolved it, and other caches may still be using it.
func (c *Cache) Close() error {
	if c.metricsStop != nil {
		close(c.metricsStop)
		c.metricsWg.Wait()
		c.metricsStop = nil
	}
	if c.metricsExporter != nil {
		return c.metricsExporter.Close()
	}
	return nil
}

// updateKeyCount updates the key count statistic
func (c *Cache) updateKeyCount() {
	c.stats.setKeyCount(int64(c.store.Len()))
}

// initializeMetrics sets up metrics collection if enabled
func (c *Cache) initializeMetrics() error {
	if c.config.Metrics == nil || !c.config.Metrics.Enabled || c.config.Metrics.Exporter == nil {
		c.metricsExporter = metrics.NewNoOpExporter()
		return nil
	}

	c.metricsExporter = c.config.Metrics.Exporter

	c.metricsLabels = make(metrics.Labels)
	if c.config.Metrics.CacheName != "" {
		c.metricsLabels["cache_name"] = c.config.Metrics.CacheName
	} else {
		c.metricsLabels["cache_name"] = "default"
	}
	for k, v := range c.config.Metrics.Labels {
		c.metricsLabels[k] = v
	}

	if c.config.Metrics.ReportingInterval > 0 {
		c.metricsStop = make(chan struct{})
		c.metricsWg.Add(1)
		go c.metricsReporter()
	}

	return nil
}

// metricsReporter periodically exports cache statistics
func (c *Cache) metricsReporter() {
	defer c.metricsWg.Done()

	ticker := time.NewTicker(c.config.Metrics.ReportingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.exportCurrentStats()
		case <-c.metricsStop:
			// Final stats export before shutting down
			c.exportCurrentStats()
			return
		}
	}
}

func (c *Cache) exportCurrentStats() {
	if c.metricsExporter != nil {
		_ = c.metricsExporter.ExportStats(c.stats, c.metricsLabels)
	}
}

func (c *Cache) recordCacheOperation(operation metrics.Operation, duration time.Duration) {
	if c.metricsExporter != nil {
		_ = c.metricsExporter.RecordCacheOperation(operation, duration, c.metricsLabels)
	}
}
