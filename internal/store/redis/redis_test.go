package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/fncache-go/internal/store"
)

// testStore connects to a local Redis server, skipping the test when
// none is reachable
func testStore(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	s, err := New(&Config{
		Client:    client,
		KeyPrefix: "fncache-test:",
		Context:   ctx,
	})
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}

	t.Cleanup(func() {
		s.Clear()
	})
	return s
}

func TestSetAndGet(t *testing.T) {
	s := testStore(t)

	if err := s.Set("key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := s.Get("key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "value" {
		t.Fatalf("Expected 'value', got %q", data)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)

	_, err := s.Get("absent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestServerSideExpiry(t *testing.T) {
	s := testStore(t)

	s.Set("short", []byte("value"), 50*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	_, err := s.Get("short")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for expired key, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)

	s.Set("key", []byte("value"), time.Hour)
	if err := s.Delete("key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := s.Get("key"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestExists(t *testing.T) {
	s := testStore(t)

	s.Set("key", []byte("value"), time.Hour)

	exists, err := s.Exists("key")
	if err != nil || !exists {
		t.Fatalf("Expected key to exist, got %v, %v", exists, err)
	}

	exists, err = s.Exists("absent")
	if err != nil || exists {
		t.Fatalf("Expected absent key not to exist, got %v, %v", exists, err)
	}
}

func TestKeysStripPrefix(t *testing.T) {
	s := testStore(t)

	s.Set("a", []byte("1"), time.Hour)
	s.Set("b", []byte("2"), time.Hour)

	keys := s.Keys()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("Expected unprefixed keys a and b, got %v", keys)
	}
}

func TestClear(t *testing.T) {
	s := testStore(t)

	s.Set("a", []byte("1"), time.Hour)
	s.Set("b", []byte("2"), time.Hour)

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Expected empty store, got %d entries", s.Len())
	}
}

func TestContextCancellation(t *testing.T) {
	s := testStore(t)
	s.Set("key", []byte("value"), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.GetContext(ctx, "key"); err == nil {
		t.Fatal("Expected error from cancelled context")
	}
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Fatal("Expected error when client is missing")
	}
}
