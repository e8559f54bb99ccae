package cache

import "time"

// Entry represents a single cached value with TTL metadata.
type Entry[V any] struct {
	// Key is the cache key (typically a listing code).
	Key string

	// Value is the cached value.
	Value V

	// CreatedAt is the timestamp when the entry was created.
	CreatedAt time.Time

	// ExpiresAt is the timestamp when the entry expires.
	ExpiresAt time.Time

	// TTLSeconds is the time-to-live in seconds (for reference).
	TTLSeconds int
}

// NewEntry creates a new cache entry with the given TTL.
// The entry is created with the current time and calculates expiration based on TTL.
func NewEntry[V any](key string, value V, ttlSeconds int) *Entry[V] {
	now := time.Now()
	return &Entry[V]{
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(ttlSeconds) * time.Second),
		TTLSeconds: ttlSeconds,
	}
}

// IsExpired checks if the cache entry has expired based on current time.
// Returns true if the current time is after the expiration time.
func (e *Entry[V]) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// IsValid checks if the cache entry is valid (not expired).
// This is the inverse of IsExpired() and is provided for readability.
func (e *Entry[V]) IsValid() bool {
	return !e.IsExpired()
}

// Age returns the duration since the entry was created.
func (e *Entry[V]) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// TimeUntilExpiration returns the duration until the entry expires.
// Returns 0 if already expired.
func (e *Entry[V]) TimeUntilExpiration() time.Duration {
	remaining := time.Until(e.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
