package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/cache"
)

func fixed(n int) *arraybytes.Fixed {
	return &arraybytes.Fixed{Data: make([]byte, n), ElemSize: 1}
}

func TestChunkCache_ChunkLimitEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New(cache.ChunkLimit, 2)
	c.Insert(cache.KeyFor([]int{0}), fixed(1))
	c.Insert(cache.KeyFor([]int{1}), fixed(1))
	// Touch 0 so 1 becomes the LRU entry.
	_, ok := c.Get(cache.KeyFor([]int{0}))
	require.True(t, ok)

	c.Insert(cache.KeyFor([]int{2}), fixed(1))
	require.Equal(t, 2, c.Len())

	_, ok = c.Get(cache.KeyFor([]int{1}))
	require.False(t, ok, "expected key 1 to be evicted as least-recently-used")
	_, ok = c.Get(cache.KeyFor([]int{0}))
	require.True(t, ok)
	_, ok = c.Get(cache.KeyFor([]int{2}))
	require.True(t, ok)
}

func TestChunkCache_SizeLimitEvictsByTotalBytes(t *testing.T) {
	c := cache.New(cache.SizeLimit, 10)
	c.Insert(cache.KeyFor([]int{0}), fixed(6))
	c.Insert(cache.KeyFor([]int{1}), fixed(6))
	require.LessOrEqual(t, c.Size(), 10)
	require.Equal(t, 1, c.Len())

	_, ok := c.Get(cache.KeyFor([]int{0}))
	require.False(t, ok, "expected oldest entry evicted once total size exceeded capacity")
	_, ok = c.Get(cache.KeyFor([]int{1}))
	require.True(t, ok)
}

func TestChunkCache_TryGetOrInsertWithLoadsOnMiss(t *testing.T) {
	c := cache.New(cache.ChunkLimit, 4)
	var loads int
	loader := func(ctx context.Context) (arraybytes.ArrayBytes, error) {
		loads++
		return fixed(1), nil
	}

	key := cache.KeyFor([]int{0, 0})
	_, err := c.TryGetOrInsertWith(context.Background(), key, loader)
	require.NoError(t, err)
	require.Equal(t, 1, loads)

	_, err = c.TryGetOrInsertWith(context.Background(), key, loader)
	require.NoError(t, err)
	require.Equal(t, 1, loads, "second call should hit the cache and not invoke loader again")
}

func TestChunkCache_RemoveEvictsEntry(t *testing.T) {
	c := cache.New(cache.ChunkLimit, 4)
	key := cache.KeyFor([]int{3})
	c.Insert(key, fixed(1))
	require.Equal(t, 1, c.Len())

	c.Remove(key)
	require.Equal(t, 0, c.Len())
	_, ok := c.Get(key)
	require.False(t, ok)
}
