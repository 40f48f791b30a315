package fncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vnykmshr/fncache-go/internal/store/memory"
	"github.com/vnykmshr/fncache-go/pkg/codec"
	"github.com/vnykmshr/fncache-go/pkg/ref"
)

// testCache builds a cache with an isolated registry so tests never
// share store handles
func testCache(t *testing.T, config *Config) *Cache {
	t.Helper()

	if config == nil {
		config = NewDefaultConfig()
	}
	config.WithRegistry(ref.New())

	cache, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := testCache(t, nil)

	if err := cache.Set("key", "value", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out string
	if !cache.Get("key", &out) {
		t.Fatal("Expected a hit")
	}
	if out != "value" {
		t.Fatalf("Expected 'value', got %q", out)
	}
}

func TestGetMiss(t *testing.T) {
	cache := testCache(t, nil)

	var out string
	if cache.Get("absent", &out) {
		t.Fatal("Expected a miss")
	}

	stats := cache.Stats()
	if stats.Misses() != 1 {
		t.Fatalf("Expected 1 miss, got %d", stats.Misses())
	}
}

func TestHitsDecodeFreshCopies(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("slice", []int{1, 2, 3}, time.Hour)

	var first []int
	cache.Get("slice", &first)
	first[0] = 999

	var second []int
	cache.Get("slice", &second)
	if diff := cmp.Diff([]int{1, 2, 3}, second); diff != "" {
		t.Fatalf("Mutating one hit leaked into the next (-want +got):\n%s", diff)
	}
}

func TestStructRoundTrip(t *testing.T) {
	type user struct {
		Name  string
		Email string
		Tags  []string
	}

	cache := testCache(t, nil)

	in := user{Name: "alice", Email: "alice@example.com", Tags: []string{"admin"}}
	cache.Set("user:1", in, time.Hour)

	var out user
	if !cache.Get("user:1", &out) {
		t.Fatal("Expected a hit")
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSetUnserializableValue(t *testing.T) {
	cache := testCache(t, nil)

	if err := cache.Set("bad", make(chan int), time.Hour); err == nil {
		t.Fatal("Expected error for unserializable value")
	}
}

func TestTTLExpiry(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("short", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	var out string
	if cache.Get("short", &out) {
		t.Fatal("Expected expired entry to miss")
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	config := NewDefaultConfig().WithDefaultTTL(10 * time.Millisecond)
	cache := testCache(t, config)

	cache.Set("key", "value", 0)
	time.Sleep(20 * time.Millisecond)

	var out string
	if cache.Get("key", &out) {
		t.Fatal("Expected default TTL to expire the entry")
	}
}

func TestInvalidate(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("key", "value", time.Hour)
	if err := cache.Invalidate("key"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	var out string
	if cache.Get("key", &out) {
		t.Fatal("Expected invalidated key to miss")
	}
	if cache.Stats().Invalidations() != 1 {
		t.Fatalf("Expected 1 invalidation, got %d", cache.Stats().Invalidations())
	}
}

func TestInvalidateAll(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("a", 1, time.Hour)
	cache.Set("b", 2, time.Hour)

	if err := cache.InvalidateAll(); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("Expected empty cache, got %d entries", cache.Len())
	}
}

func TestHas(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("key", "value", time.Hour)
	if !cache.Has("key") {
		t.Fatal("Expected Has to report existing key")
	}
	if cache.Has("absent") {
		t.Fatal("Expected Has to report absent key as missing")
	}
}

func TestKeyPrefixPartitionsSharedStore(t *testing.T) {
	registry := ref.New()
	factory := MemoryFactory(100)

	configA := NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "shared").
		WithKeyPrefix("a:")
	configB := NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "shared").
		WithKeyPrefix("b:")

	cacheA, err := New(configA)
	if err != nil {
		t.Fatalf("Failed to create cache A: %v", err)
	}
	defer cacheA.Close()
	cacheB, err := New(configB)
	if err != nil {
		t.Fatalf("Failed to create cache B: %v", err)
	}
	defer cacheB.Close()

	cacheA.Set("key", "from-a", time.Hour)
	cacheB.Set("key", "from-b", time.Hour)

	var out string
	cacheA.Get("key", &out)
	if out != "from-a" {
		t.Fatalf("Expected 'from-a', got %q", out)
	}
	cacheB.Get("key", &out)
	if out != "from-b" {
		t.Fatalf("Expected 'from-b', got %q", out)
	}

	keysA := cacheA.Keys()
	if len(keysA) != 1 || keysA[0] != "key" {
		t.Fatalf("Expected prefix-stripped keys, got %v", keysA)
	}

	// InvalidateAll with a prefix only clears that partition
	if err := cacheA.InvalidateAll(); err != nil {
		t.Fatalf("InvalidateAll failed: %v", err)
	}
	if !cacheB.Has("key") {
		t.Fatal("Clearing one partition must not touch the other")
	}
}

func TestStatsCounts(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("key", "value", time.Hour)

	var out string
	cache.Get("key", &out)
	cache.Get("key", &out)
	cache.Get("missing", &out)

	stats := cache.Stats()
	if stats.Hits() != 2 {
		t.Fatalf("Expected 2 hits, got %d", stats.Hits())
	}
	if stats.Misses() != 1 {
		t.Fatalf("Expected 1 miss, got %d", stats.Misses())
	}
	if stats.KeyCount() != 1 {
		t.Fatalf("Expected 1 key, got %d", stats.KeyCount())
	}
	if got := stats.HitRate(); got < 66 || got > 67 {
		t.Fatalf("Expected hit rate around 66.7, got %.2f", got)
	}
}

func TestGobCodec(t *testing.T) {
	config := NewDefaultConfig().WithCodec(codec.GobCodec{})
	cache := testCache(t, config)

	// Gob round-trips map keys JSON cannot
	in := map[int]string{1: "one"}
	if err := cache.Set("m", in, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out map[int]string
	if !cache.Get("m", &out) {
		t.Fatal("Expected a hit")
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCompressionConfigured(t *testing.T) {
	config := NewDefaultConfig().
		WithCompressionEnabled(true).
		WithCompressionMinSize(1)
	cache := testCache(t, config)

	large := make([]string, 100)
	for i := range large {
		large[i] = "compressible content"
	}

	cache.Set("large", large, time.Hour)

	var out []string
	if !cache.Get("large", &out) {
		t.Fatal("Expected a hit")
	}
	if diff := cmp.Diff(large, out); diff != "" {
		t.Fatalf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

// faultyStore fails every operation after it is tripped
type faultyStore struct {
	Store
	tripped bool
}

var errBackend = errors.New("backend unavailable")

func (f *faultyStore) Get(key string) ([]byte, error) {
	if f.tripped {
		return nil, errBackend
	}
	return f.Store.Get(key)
}

func (f *faultyStore) Set(key string, value []byte, ttl time.Duration) error {
	if f.tripped {
		return errBackend
	}
	return f.Store.Set(key, value, ttl)
}

func TestStorageFaultDegradesToMiss(t *testing.T) {
	inner, err := memory.New(100)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	faulty := &faultyStore{Store: inner}

	var faultKeys []string
	hooks := &Hooks{}
	hooks.AddOnStoreError(func(key string, op StoreOp, err error) {
		faultKeys = append(faultKeys, key)
	})

	config := NewDefaultConfig().
		WithStorageFactory(func() (Store, error) { return faulty, nil }, "faulty").
		WithHooks(hooks)
	cache := testCache(t, config)

	cache.Set("key", "value", time.Hour)
	faulty.tripped = true

	var out string
	if cache.Get("key", &out) {
		t.Fatal("Expected fault to degrade to a miss")
	}
	if cache.Stats().StoreErrors() != 1 {
		t.Fatalf("Expected 1 absorbed fault, got %d", cache.Stats().StoreErrors())
	}
	if len(faultKeys) != 1 {
		t.Fatalf("Expected OnStoreError hook to fire once, got %d", len(faultKeys))
	}
}

func TestUndecodablePayloadIsMiss(t *testing.T) {
	inner, err := memory.New(100)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	config := NewDefaultConfig().
		WithStorageFactory(func() (Store, error) { return inner, nil }, "raw")
	cache := testCache(t, config)

	// Plant bytes the codec cannot decode into the target type
	inner.Set("key", []byte("not json"), time.Hour)

	var out int
	if cache.Get("key", &out) {
		t.Fatal("Expected undecodable payload to miss")
	}
}

func TestHookInvocations(t *testing.T) {
	var hits, misses, invalidations []string

	hooks := &Hooks{}
	hooks.AddOnHit(func(key string, value any) { hits = append(hits, key) })
	hooks.AddOnMiss(func(key string) { misses = append(misses, key) })
	hooks.AddOnInvalidate(func(key string) { invalidations = append(invalidations, key) })

	cache := testCache(t, NewDefaultConfig().WithHooks(hooks))

	cache.Set("key", "value", time.Hour)
	var out string
	cache.Get("key", &out)
	cache.Get("missing", &out)
	cache.Invalidate("key")

	if len(hits) != 1 || hits[0] != "key" {
		t.Fatalf("Expected one hit for 'key', got %v", hits)
	}
	if len(misses) != 1 || misses[0] != "missing" {
		t.Fatalf("Expected one miss for 'missing', got %v", misses)
	}
	if len(invalidations) != 1 || invalidations[0] != "key" {
		t.Fatalf("Expected one invalidation for 'key', got %v", invalidations)
	}
}

func TestEvictionHook(t *testing.T) {
	evicted := make(chan string, 8)
	hooks := &Hooks{}
	hooks.AddOnEvict(func(key string, value any, reason EvictReason) {
		evicted <- key
	})

	config := NewDefaultConfig().
		WithMaxEntries(2).
		WithHooks(hooks)
	cache := testCache(t, config)

	cache.Set("a", 1, time.Hour)
	cache.Set("b", 2, time.Hour)
	cache.Set("c", 3, time.Hour)

	select {
	case key := <-evicted:
		if key == "" {
			t.Fatal("Expected an evicted key")
		}
	case <-time.After(time.Second):
		t.Fatal("Expected an eviction at capacity")
	}
	if cache.Stats().Evictions() == 0 {
		t.Fatal("Expected eviction stat to increase")
	}
}

func TestCleanupRemovesExpired(t *testing.T) {
	cache := testCache(t, nil)

	cache.Set("short", "value", 5*time.Millisecond)
	cache.Set("long", "value", time.Hour)
	time.Sleep(15 * time.Millisecond)

	removed := cache.Cleanup()
	if removed != 1 {
		t.Fatalf("Expected 1 removed entry, got %d", removed)
	}
}

func TestNilConfigUsesDefaults(t *testing.T) {
	cache, err := New(nil)
	if err != nil {
		t.Fatalf("Failed to create cache with nil config: %v", err)
	}
	defer cache.Close()

	if err := cache.Set("key", "value", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
}

func TestGetContext(t *testing.T) {
	cache := testCache(t, nil)

	ctx := context.Background()
	if err := cache.SetContext(ctx, "key", "value", time.Hour); err != nil {
		t.Fatalf("SetContext failed: %v", err)
	}

	var out string
	if !cache.GetContext(ctx, "key", &out) {
		t.Fatal("Expected a hit")
	}
	if out != "value" {
		t.Fatalf("Expected 'value', got %q", out)
	}
}
