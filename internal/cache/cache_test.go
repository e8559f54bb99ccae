package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry(t *testing.T) {
	key := "9999"
	value := "cached summary"
	ttl := 60
	entry := NewEntry(key, value, ttl)

	assert.Equal(t, key, entry.Key)
	assert.Equal(t, value, entry.Value)
	assert.False(t, entry.IsExpired())
	assert.True(t, entry.IsValid())
	assert.Greater(t, entry.TimeUntilExpiration(), time.Duration(0))
	assert.LessOrEqual(t, entry.Age(), time.Second)

	t.Run("Expiration", func(t *testing.T) {
		entry.ExpiresAt = time.Now().Add(-1 * time.Second)
		assert.True(t, entry.IsExpired())
		assert.False(t, entry.IsValid())
		assert.Equal(t, time.Duration(0), entry.TimeUntilExpiration())
	})
}

func TestMemoryStore(t *testing.T) {
	store, err := NewMemoryStore[string](true, 60)
	require.NoError(t, err)
	assert.True(t, store.IsEnabled())
	assert.Equal(t, 60, store.GetTTL())

	key := "7395"
	value := "bullet points"

	t.Run("SetAndGet", func(t *testing.T) {
		err := store.Set(key, value)
		require.NoError(t, err)

		entry, err := store.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, entry.Value)
		assert.Equal(t, 1, store.Count())
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		entry, err := store.Get(key)
		require.NoError(t, err)

		entry.ExpiresAt = time.Now().Add(-1 * time.Hour)

		again, err := store.Get(key)
		require.NoError(t, err)
		assert.True(t, again.IsValid())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.Get("0000")
		assert.ErrorIs(t, err, ErrCacheNotFound)
	})

	t.Run("Expired", func(t *testing.T) {
		require.NoError(t, store.Set("1234", value))
		store.mu.Lock()
		store.entries["1234"].ExpiresAt = time.Now().Add(-1 * time.Second)
		store.mu.Unlock()

		_, err := store.Get("1234")
		assert.ErrorIs(t, err, ErrCacheExpired)

		// Expired entries are dropped on read.
		_, err = store.Get("1234")
		assert.ErrorIs(t, err, ErrCacheNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(key, "fresh"))

		entry, err := store.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "fresh", entry.Value)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(key)
		require.NoError(t, err)

		_, err = store.Get(key)
		assert.ErrorIs(t, err, ErrCacheNotFound)

		// Deleting a missing key is idempotent.
		assert.NoError(t, store.Delete(key))
	})

	t.Run("Clear", func(t *testing.T) {
		_ = store.Set("k1", value)
		_ = store.Set("k2", value)
		err := store.Clear()
		require.NoError(t, err)
		assert.Equal(t, 0, store.Count())
	})

	t.Run("CleanupExpired", func(t *testing.T) {
		require.NoError(t, store.Clear())
		require.NoError(t, store.Set("live", value))
		require.NoError(t, store.Set("stale", value))
		store.mu.Lock()
		store.entries["stale"].ExpiresAt = time.Now().Add(-1 * time.Second)
		store.mu.Unlock()

		removed := store.CleanupExpired()
		assert.Equal(t, 1, removed)
		assert.Equal(t, 1, store.Count())

		_, err := store.Get("live")
		assert.NoError(t, err)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := store.Get("")
		assert.ErrorIs(t, err, ErrInvalidCacheKey)
		assert.ErrorIs(t, store.Set("", value), ErrInvalidCacheKey)
		assert.ErrorIs(t, store.Delete(""), ErrInvalidCacheKey)
	})
}

func TestMemoryStoreDisabled(t *testing.T) {
	store, err := NewMemoryStore[string](false, 0)
	require.NoError(t, err)
	assert.False(t, store.IsEnabled())

	_, err = store.Get("any")
	assert.ErrorIs(t, err, ErrCacheDisabled)
	assert.ErrorIs(t, store.Set("any", "v"), ErrCacheDisabled)
	assert.ErrorIs(t, store.Delete("any"), ErrCacheDisabled)
	assert.ErrorIs(t, store.Clear(), ErrCacheDisabled)
	assert.Equal(t, 0, store.CleanupExpired())
	assert.Equal(t, 0, store.Count())
}

func TestMemoryStoreRejectsBadTTL(t *testing.T) {
	_, err := NewMemoryStore[string](true, 0)
	assert.Error(t, err)

	_, err = NewMemoryStore[string](true, -10)
	assert.Error(t, err)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store, err := NewMemoryStore[int](true, 60)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%10)
			_ = store.Set(key, n)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, store.Count())
}
