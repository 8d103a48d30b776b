package indexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuskan/zarrcore/indexer"
)

func TestArraySubset_Intersect(t *testing.T) {
	a, err := indexer.New([]int{0, 0}, []int{4, 4})
	require.NoError(t, err)
	b, err := indexer.New([]int{2, 2}, []int{4, 4})
	require.NoError(t, err)

	got, ok := a.Intersect(b)
	require.True(t, ok)
	require.Equal(t, []int{2, 2}, got.Start)
	require.Equal(t, []int{2, 2}, got.Shape)
}

func TestArraySubset_IntersectDisjoint(t *testing.T) {
	a, _ := indexer.New([]int{0, 0}, []int{2, 2})
	b, _ := indexer.New([]int{5, 5}, []int{2, 2})
	_, ok := a.Intersect(b)
	require.False(t, ok)
}

func TestArraySubset_InBounds(t *testing.T) {
	s, _ := indexer.New([]int{2, 2}, []int{2, 2})
	require.True(t, s.InBounds([]int{4, 4}))
	require.False(t, s.InBounds([]int{3, 4}))
}

func TestFlattenSubset(t *testing.T) {
	// 4x4 buffer, subset [1:3, 1:3] -> rows 1-2, cols 1-2
	s, _ := indexer.New([]int{1, 1}, []int{2, 2})
	indices := indexer.FlattenSubset([]int{4, 4}, s)
	require.Equal(t, []int{5, 6, 9, 10}, indices)
}

func TestForEachIndex_Scalar(t *testing.T) {
	var calls int
	indexer.ForEachIndex(nil, func(coords []int) {
		calls++
		require.Nil(t, coords)
	})
	require.Equal(t, 1, calls)
}

func TestCopyBytesND(t *testing.T) {
	// src 4x4 uint8 buffer 0..15, copy subset [1:3,1:3] into a 2x2 dst.
	src := make([]byte, 16)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, 4)
	indexer.CopyBytesND(dst, indexer.Strides([]int{2, 2}), []int{0, 0}, src, indexer.Strides([]int{4, 4}), []int{1, 1}, []int{2, 2}, 1)
	require.Equal(t, []byte{5, 6, 9, 10}, dst)
}
