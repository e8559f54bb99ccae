package cache

import (
	"errors"
	"sync"
)

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
)

// MemoryStore provides in-memory caching with TTL expiration.
// Thread-safe for concurrent access.
type MemoryStore[V any] struct {
	// enabled controls whether caching is active.
	enabled bool

	// ttlSeconds is the default TTL for cache entries.
	ttlSeconds int

	// mu protects the entries map.
	mu sync.RWMutex

	// entries holds the live cache entries keyed by cache key.
	entries map[string]*Entry[V]
}

// NewMemoryStore creates a new in-memory cache store.
func NewMemoryStore[V any](enabled bool, ttlSeconds int) (*MemoryStore[V], error) {
	if !enabled {
		return &MemoryStore[V]{enabled: false}, nil
	}

	if ttlSeconds <= 0 {
		return nil, errors.New("cache ttl must be positive")
	}

	return &MemoryStore[V]{
		enabled:    true,
		ttlSeconds: ttlSeconds,
		entries:    make(map[string]*Entry[V]),
	}, nil
}

// Get retrieves a cache entry by key.
// Returns ErrCacheNotFound if the entry doesn't exist.
// Returns ErrCacheExpired if the entry has expired; expired entries are
// dropped from the store as a side effect.
func (s *MemoryStore[V]) Get(key string) (*Entry[V], error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}

	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheNotFound
	}

	if entry.IsExpired() {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// replaced the entry with a fresh one.
		if current, stillThere := s.entries[key]; stillThere && current == entry {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrCacheExpired
	}

	// Return a copy so callers cannot mutate stored TTL metadata.
	out := *entry
	return &out, nil
}

// Set stores a value under the given key with the store's default TTL.
// If an entry already exists for the key, it will be overwritten.
func (s *MemoryStore[V]) Set(key string, value V) error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = NewEntry(key, value, s.ttlSeconds)
	return nil
}

// Delete removes a cache entry by key.
// Returns nil if the entry doesn't exist (idempotent).
func (s *MemoryStore[V]) Delete(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Clear removes all cache entries from the store.
func (s *MemoryStore[V]) Clear() error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry[V])
	return nil
}

// CleanupExpired removes all expired cache entries and returns the number
// removed. This is useful for periodic maintenance.
func (s *MemoryStore[V]) CleanupExpired() int {
	if !s.enabled {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if entry.IsExpired() {
			delete(s.entries, key)
			removed++
		}
	}

	return removed
}

// Count returns the number of cache entries (including expired ones that
// have not been swept yet).
func (s *MemoryStore[V]) Count() int {
	if !s.enabled {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// IsEnabled returns true if caching is enabled.
func (s *MemoryStore[V]) IsEnabled() bool {
	return s.enabled
}

// GetTTL returns the default TTL in seconds.
func (s *MemoryStore[V]) GetTTL() int {
	return s.ttlSeconds
}
