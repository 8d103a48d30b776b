package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuskan/zarrcore/storage"
)

func TestMemoryStore_GetSetErase(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	_, ok, err := s.Get(ctx, "c/0/0")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "c/0/0", []byte("hello")))

	data, ok, err := s.Get(ctx, "c/0/0")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)

	existed, err := s.Erase(ctx, "c/0/0")
	require.NoError(t, err)
	require.True(t, existed)

	_, ok, err = s.Get(ctx, "c/0/0")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore_GetPartial(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, s.Set(ctx, "k", []byte("0123456789")))

	values, ok, err := s.GetPartial(ctx, "k", []storage.ByteRange{
		storage.FromStart(2, 3),
		storage.Suffix(2),
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [][]byte{[]byte("234"), []byte("89")}, values)

	_, _, err = s.GetPartial(ctx, "k", []storage.ByteRange{storage.FromStart(8, 10)})
	require.ErrorIs(t, err, storage.ErrInvalidByteRange)
}

func TestMemoryStore_SetPartialGrowsAndZeroFills(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()

	require.NoError(t, s.SetPartial(ctx, "k", []storage.OffsetValue{
		{Offset: 4, Value: []byte("AB")},
	}))
	data, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, 0, 'A', 'B'}, data)
}

func TestMemoryStore_SetPartialCopyOnWriteIsolatesPriorReads(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, s.Set(ctx, "k", []byte("abcdef")))

	first, _, err := s.Get(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.SetPartial(ctx, "k", []storage.OffsetValue{{Offset: 0, Value: []byte("X")}}))

	require.Equal(t, []byte("abcdef"), first, "earlier Get result must not be mutated by a later SetPartial")
}

func TestMemoryStore_ListPrefixAndListDir(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	for _, k := range []string{"a/zarr.json", "a/c/0/0", "a/c/0/1", "a/b/zarr.json"} {
		require.NoError(t, s.Set(ctx, k, []byte("x")))
	}

	keys, err := s.ListPrefix(ctx, "a/c/")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a/c/0/0", "a/c/0/1"}, keys)

	dir, err := s.ListDir(ctx, "a/")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a/zarr.json"}, dir.Keys)
	require.ElementsMatch(t, []string{"c", "b"}, dir.Subdirs)
}

func TestMemoryStore_ErasePrefix(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStore()
	require.NoError(t, s.Set(ctx, "a/c/0/0", []byte("x")))
	require.NoError(t, s.Set(ctx, "a/c/0/1", []byte("x")))
	require.NoError(t, s.Set(ctx, "a/zarr.json", []byte("x")))

	require.NoError(t, s.ErasePrefix(ctx, "a/c/"))

	keys, err := s.List(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a/zarr.json"}, keys)
}

func TestByteRange_Bounds(t *testing.T) {
	r := storage.FromStartOpen(3)
	start, end, err := r.Bounds(10)
	require.NoError(t, err)
	require.Equal(t, uint64(3), start)
	require.Equal(t, uint64(10), end)

	r2 := storage.Suffix(4)
	start, end, err = r2.Bounds(10)
	require.NoError(t, err)
	require.Equal(t, uint64(6), start)
	require.Equal(t, uint64(10), end)

	_, _, err = storage.Suffix(11).Bounds(10)
	require.ErrorIs(t, err, storage.ErrInvalidByteRange)
}
