package fncache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/fncache-go/internal/store/memory"
	"github.com/vnykmshr/fncache-go/pkg/ref"
)

func TestFactoryKeySharesStore(t *testing.T) {
	registry := ref.New()

	var constructions int64
	factory := func() (Store, error) {
		atomic.AddInt64(&constructions, 1)
		s, err := memory.New(100)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	configA := NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "shared")
	configB := NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "shared")

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

	if atomic.LoadInt64(&constructions) != 1 {
		t.Fatalf("Expected a single store construction, got %d", constructions)
	}

	// Same key, no prefixes: writes through one cache are visible
	// through the other
	cacheA.Set("key", "value", time.Hour)
	var out string
	if !cacheB.Get("key", &out) {
		t.Fatal("Expected shared store to serve both caches")
	}
}

func TestDistinctFactoryKeysDistinctStores(t *testing.T) {
	registry := ref.New()
	factory := MemoryFactory(100)

	cacheA, err := New(NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "a"))
	if err != nil {
		t.Fatalf("Failed to create cache A: %v", err)
	}
	defer cacheA.Close()
	cacheB, err := New(NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "b"))
	if err != nil {
		t.Fatalf("Failed to create cache B: %v", err)
	}
	defer cacheB.Close()

	cacheA.Set("key", "from-a", time.Hour)
	var out string
	if cacheB.Get("key", &out) {
		t.Fatal("Expected distinct keys to resolve distinct stores")
	}
}

// Distinct factory closures share one code pointer, so without an
// explicit key the first one resolved wins for all of them.
func TestUnkeyedClosureFactoriesFirstWins(t *testing.T) {
	registry := ref.New()

	makeFactory := func(capacity int) StorageFactory {
		return func() (Store, error) {
			s, err := memory.New(capacity)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	cacheA, err := New(NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(makeFactory(10), ""))
	if err != nil {
		t.Fatalf("Failed to create cache A: %v", err)
	}
	defer cacheA.Close()
	cacheB, err := New(NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(makeFactory(10000), ""))
	if err != nil {
		t.Fatalf("Failed to create cache B: %v", err)
	}
	defer cacheB.Close()

	cacheA.Set("key", "value", time.Hour)
	var out string
	if !cacheB.Get("key", &out) {
		t.Fatal("Expected both closures to resolve the first store")
	}
}

func TestDefaultMemoryKeyedBySettings(t *testing.T) {
	registry := ref.New()

	cacheA, err := New(NewDefaultConfig().WithRegistry(registry).WithMaxEntries(10))
	if err != nil {
		t.Fatalf("Failed to create cache A: %v", err)
	}
	defer cacheA.Close()
	cacheB, err := New(NewDefaultConfig().WithRegistry(registry).WithMaxEntries(20))
	if err != nil {
		t.Fatalf("Failed to create cache B: %v", err)
	}
	defer cacheB.Close()
	cacheC, err := New(NewDefaultConfig().WithRegistry(registry).WithMaxEntries(10))
	if err != nil {
		t.Fatalf("Failed to create cache C: %v", err)
	}
	defer cacheC.Close()

	cacheA.Set("key", "value", time.Hour)

	var out string
	if cacheB.Get("key", &out) {
		t.Fatal("Expected different settings to resolve different stores")
	}
	if !cacheC.Get("key", &out) {
		t.Fatal("Expected identical settings to resolve the shared store")
	}
}

func TestConcurrentCacheCreationSharesStore(t *testing.T) {
	registry := ref.New()

	var constructions int64
	factory := func() (Store, error) {
		atomic.AddInt64(&constructions, 1)
		time.Sleep(10 * time.Millisecond)
		s, err := memory.New(100)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	const goroutines = 8
	var wg sync.WaitGroup
	caches := make([]*Cache, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			cache, err := New(NewDefaultConfig().
				WithRegistry(registry).
				WithStorageFactory(factory, "contended"))
			if err != nil {
				t.Errorf("Failed to create cache: %v", err)
				return
			}
			caches[idx] = cache
		}(i)
	}
	wg.Wait()

	for _, cache := range caches {
		if cache != nil {
			defer cache.Close()
		}
	}

	if got := atomic.LoadInt64(&constructions); got != 1 {
		t.Fatalf("Expected 1 construction under contention, got %d", got)
	}
}

func TestFactoryFailureSurfaces(t *testing.T) {
	config := NewDefaultConfig().
		WithRegistry(ref.New()).
		WithStorageFactory(func() (Store, error) {
			return nil, errTestFactory
		}, "failing")

	if _, err := New(config); err == nil {
		t.Fatal("Expected factory failure to surface from New")
	}
}

var errTestFactory = &testFactoryError{}

type testFactoryError struct{}

func (*testFactoryError) Error() string { return "factory exploded" }

func TestMemoryFactoryWithEviction(t *testing.T) {
	policies := []EvictionPolicy{EvictionLRU, EvictionLFU, EvictionFIFO}
	for _, policy := range policies {
		factory := MemoryFactoryWithEviction(10, policy, 0)
		s, err := factory()
		if err != nil {
			t.Fatalf("Factory for %s failed: %v", policy, err)
		}
		if err := s.Set("key", []byte("value"), time.Hour); err != nil {
			t.Fatalf("Set on %s store failed: %v", policy, err)
		}
		s.Close()
	}
}

func TestCloseLeavesSharedStoreOpen(t *testing.T) {
	registry := ref.New()
	factory := MemoryFactory(100)

	cacheA, err := New(NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "shared"))
	if err != nil {
		t.Fatalf("Failed to create cache A: %v", err)
	}
	cacheB, err := New(NewDefaultConfig().
		WithRegistry(registry).
		WithStorageFactory(factory, "shared"))
	if err != nil {
		t.Fatalf("Failed to create cache B: %v", err)
	}
	defer cacheB.Close()

	cacheB.Set("key", "value", time.Hour)
	if err := cacheA.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var out string
	if !cacheB.Get("key", &out) {
		t.Fatal("Expected the shared store to survive a sibling Close")
	}
}
