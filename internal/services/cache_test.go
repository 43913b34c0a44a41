package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTieredCacheGetOrSet(t *testing.T) {
	cache := NewTieredCache(8, time.Minute, 32, time.Hour)

	calls := 0
	factory := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	val, err := cache.GetOrSet("k", factory)
	require.NoError(t, err)
	assert.Equal(t, "value", val)
	assert.Equal(t, 1, calls)

	val, err = cache.GetOrSet("k", factory)
	require.NoError(t, err)
	assert.Equal(t, "value", val)
	assert.Equal(t, 1, calls, "second read must come from cache")
}

func TestTieredCacheL2HitRefreshesL1(t *testing.T) {
	cache := NewTieredCache(8, time.Minute, 32, time.Hour)

	_, err := cache.GetOrSet("k", func() (interface{}, error) { return 42, nil })
	require.NoError(t, err)

	// Drop L1 only; the next read must be served from L2 without the factory.
	cache.l1.Remove("k")
	val, err := cache.GetOrSet("k", func() (interface{}, error) {
		t.Fatal("factory must not run on an L2 hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)

	// And L1 is warm again.
	_, ok := cache.l1.Get("k")
	assert.True(t, ok)
}

func TestTieredCacheFactoryErrorNotCached(t *testing.T) {
	cache := NewTieredCache(8, time.Minute, 32, time.Hour)

	boom := errors.New("db down")
	_, err := cache.GetOrSet("k", func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	val, err := cache.GetOrSet("k", func() (interface{}, error) { return "recovered", nil })
	require.NoError(t, err)
	assert.Equal(t, "recovered", val)
}

func TestTieredCacheInvalidatePrefix(t *testing.T) {
	cache := NewTieredCache(8, time.Minute, 32, time.Hour)

	for _, key := range []string{"files:u1:root", "files:u1:folder-a", "files:u2:root"} {
		k := key
		_, err := cache.GetOrSet(k, func() (interface{}, error) { return k, nil })
		require.NoError(t, err)
	}

	cache.InvalidatePrefix("files:u1")

	_, ok := cache.l2.Get("files:u1:root")
	assert.False(t, ok)
	_, ok = cache.l2.Get("files:u1:folder-a")
	assert.False(t, ok)
	_, ok = cache.l2.Get("files:u2:root")
	assert.True(t, ok, "other users' entries survive")
}
