package entry

import (
	"sync"
	"time"
)

// Entry represents a stored cache record. The value is an opaque
// serialized payload; this package only tracks its lifecycle.
type Entry struct {
	// Value is the serialized payload as produced by the codec
	Value []byte

	// ExpiresAt indicates when this entry expires (nil means no expiration)
	ExpiresAt *time.Time

	// CreatedAt is when this entry was created
	CreatedAt time.Time

	// AccessedAt is when this entry was last accessed (for LRU)
	// Protected by mu for concurrent access
	AccessedAt time.Time
	mu         sync.RWMutex
}

// New creates a new cache entry with the given payload and TTL.
// A ttl of zero or less means the entry never expires.
func New(value []byte, ttl time.Duration) *Entry {
	now := time.Now()
	e := &Entry{
		Value:      value,
		CreatedAt:  now,
		AccessedAt: now,
	}

	if ttl > 0 {
		expiry := now.Add(ttl)
		e.ExpiresAt = &expiry
	}

	return e
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired() bool {
	if e.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*e.ExpiresAt)
}

// TTL returns the time remaining until expiration
// Returns 0 if the entry has no expiration or has already expired
func (e *Entry) TTL() time.Duration {
	if e.ExpiresAt == nil {
		return 0
	}

	remaining := time.Until(*e.ExpiresAt)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// Age returns how long ago this entry was created
func (e *Entry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// TimeSinceLastAccess returns how long ago this entry was last accessed
func (e *Entry) TimeSinceLastAccess() time.Duration {
	e.mu.RLock()
	accessedAt := e.AccessedAt
	e.mu.RUnlock()
	return time.Since(accessedAt)
}

// Touch updates the last accessed time to now
func (e *Entry) Touch() {
	e.mu.Lock()
	e.AccessedAt = time.Now()
	e.mu.Unlock()
}

// UpdateExpiry updates the expiration time with a new TTL from now
func (e *Entry) UpdateExpiry(ttl time.Duration) {
	if ttl > 0 {
		expiry := time.Now().Add(ttl)
		e.ExpiresAt = &expiry
	} else {
		e.ExpiresAt = nil
	}
}

// HasExpiry returns true if the entry has an expiration time set
func (e *Entry) HasExpiry() bool {
	return e.ExpiresAt != nil
}

// String returns a string representation of the entry (for debugging)
func (e *Entry) String() string {
	if e.ExpiresAt == nil {
		return "Entry{no-expiry}"
	}
	return "Entry{expires: " + e.ExpiresAt.Format(time.RFC3339) + "}"
}
