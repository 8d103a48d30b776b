package array_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/array"
	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/chunkgrid"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
	"github.com/tuskan/zarrcore/indexer"
	"github.com/tuskan/zarrcore/storage"
)

func newTestArray(t *testing.T) *array.Array {
	t.Helper()
	store := storage.NewMemoryStore()
	grid, err := chunkgrid.NewRegular([]int{2, 2})
	require.NoError(t, err)
	a, err := array.NewBuilder(store, "arr").
		WithShape([]int{4, 4}).
		WithDataType(datatype.Int32()).
		WithChunkGrid(grid).
		WithFillValue(float64(0)).
		Build(context.Background())
	require.NoError(t, err)
	return a
}

func int32Fixed(t *testing.T, vals ...int32) *arraybytes.Fixed {
	t.Helper()
	ab, err := arraybytes.FromElements(datatype.Int32(), vals)
	require.NoError(t, err)
	return ab.(*arraybytes.Fixed)
}

func TestBuilder_CommitsMetadataAndOpens(t *testing.T) {
	store := storage.NewMemoryStore()
	grid, err := chunkgrid.NewRegular([]int{2, 2})
	require.NoError(t, err)
	_, err = array.NewBuilder(store, "arr").
		WithShape([]int{4, 4}).
		WithDataType(datatype.Int32()).
		WithChunkGrid(grid).
		WithFillValue(float64(0)).
		Build(context.Background())
	require.NoError(t, err)

	reopened, err := array.Open(context.Background(), store, "arr")
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, reopened.Meta.Shape)
	require.Equal(t, "int32", reopened.Meta.DataType.Identifier())
}

func TestArray_StoreAndRetrieveChunk(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()
	data := int32Fixed(t, 1, 2, 3, 4)

	require.NoError(t, a.StoreChunk(ctx, []int{0, 0}, data))

	got, err := a.RetrieveChunk(ctx, []int{0, 0})
	require.NoError(t, err)
	require.Equal(t, data.Data, got.(*arraybytes.Fixed).Data)
}

func TestArray_RetrieveChunk_AbsentDecodesToFillValue(t *testing.T) {
	a := newTestArray(t)
	got, err := a.RetrieveChunk(context.Background(), []int{1, 1})
	require.NoError(t, err)
	fixed := got.(*arraybytes.Fixed)
	for _, b := range fixed.Data {
		require.Equal(t, byte(0), b)
	}
}

func TestArray_StoreChunk_EmptyChunkElision(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()

	require.NoError(t, a.StoreChunk(ctx, []int{0, 0}, int32Fixed(t, 1, 2, 3, 4)))
	require.NoError(t, a.StoreChunk(ctx, []int{0, 0}, int32Fixed(t, 0, 0, 0, 0)))

	_, ok, err := a.Store.Get(ctx, "arr/c/0/0")
	require.NoError(t, err)
	require.False(t, ok, "all-fill-value chunk should have been erased, not stored")
}

func TestArray_StoreArraySubsetThenRetrieveArraySubset(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()

	region, err := indexer.New([]int{1, 1}, []int{2, 2})
	require.NoError(t, err)
	elements := int32Fixed(t, 10, 20, 30, 40)

	require.NoError(t, a.StoreArraySubset(ctx, region, elements))

	got, err := a.RetrieveArraySubset(ctx, region)
	require.NoError(t, err)
	require.Equal(t, elements.Data, got.(*arraybytes.Fixed).Data)
}

func TestArray_RetrieveArraySubset_FullArrayAfterPartialWrite(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()

	region, err := indexer.New([]int{0, 0}, []int{2, 2})
	require.NoError(t, err)
	require.NoError(t, a.StoreArraySubset(ctx, region, int32Fixed(t, 1, 2, 3, 4)))

	full, err := indexer.New([]int{0, 0}, []int{4, 4})
	require.NoError(t, err)
	got, err := a.RetrieveArraySubset(ctx, full)
	require.NoError(t, err)
	fixed := got.(*arraybytes.Fixed)
	require.Equal(t, int32(1), readInt32(fixed, 0))
	require.Equal(t, int32(2), readInt32(fixed, 1))
	require.Equal(t, int32(0), readInt32(fixed, 2)) // untouched, still fill value
}

func readInt32(f *arraybytes.Fixed, elemIdx int) int32 {
	e := f.Element(elemIdx)
	return int32(e[0]) | int32(e[1])<<8 | int32(e[2])<<16 | int32(e[3])<<24
}

func TestArray_StoreChunkSubset(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()
	require.NoError(t, a.StoreChunk(ctx, []int{0, 0}, int32Fixed(t, 1, 2, 3, 4)))

	sub, err := indexer.New([]int{0, 1}, []int{1, 1})
	require.NoError(t, err)
	require.NoError(t, a.StoreChunkSubset(ctx, []int{0, 0}, sub, int32Fixed(t, 99)))

	got, err := a.RetrieveChunk(ctx, []int{0, 0})
	require.NoError(t, err)
	fixed := got.(*arraybytes.Fixed)
	require.Equal(t, int32(99), readInt32(fixed, 1))
	require.Equal(t, int32(1), readInt32(fixed, 0))
}

func TestArray_EraseChunk(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()
	require.NoError(t, a.StoreChunk(ctx, []int{0, 0}, int32Fixed(t, 1, 2, 3, 4)))
	require.NoError(t, a.EraseChunk(ctx, []int{0, 0}))

	_, ok, err := a.Store.Get(ctx, "arr/c/0/0")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestArray_PartialDecoder_ServesMultipleSubsets(t *testing.T) {
	a := newTestArray(t)
	ctx := context.Background()
	require.NoError(t, a.StoreChunk(ctx, []int{0, 0}, int32Fixed(t, 1, 2, 3, 4)))

	decoder, err := a.PartialDecoder(ctx, []int{0, 0})
	require.NoError(t, err)

	s1, err := indexer.New([]int{0, 0}, []int{1, 1})
	require.NoError(t, err)
	s2, err := indexer.New([]int{1, 1}, []int{1, 1})
	require.NoError(t, err)

	results, err := decoder.PartialDecode(ctx, []indexer.ArraySubset{s1, s2}, codec.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int32(1), readInt32(results[0].(*arraybytes.Fixed), 0))
	require.Equal(t, int32(4), readInt32(results[1].(*arraybytes.Fixed), 0))
}

// 3-D uint8, no extra codecs: write ones to the central 2x2x2 block of
// a [4,4,4] array chunked [2,2,2], read the whole array back.
func TestArray_CentralBlockWrite3D(t *testing.T) {
	store := storage.NewMemoryStore()
	grid, err := chunkgrid.NewRegular([]int{2, 2, 2})
	require.NoError(t, err)
	a, err := array.NewBuilder(store, "vol").
		WithShape([]int{4, 4, 4}).
		WithDataType(datatype.Uint8()).
		WithChunkGrid(grid).
		WithFillValue(float64(0)).
		Build(context.Background())
	require.NoError(t, err)
	ctx := context.Background()

	region, err := indexer.New([]int{1, 1, 1}, []int{2, 2, 2})
	require.NoError(t, err)
	ones, err := arraybytes.FromElements(datatype.Uint8(), []uint8{1, 1, 1, 1, 1, 1, 1, 1})
	require.NoError(t, err)
	require.NoError(t, a.StoreArraySubset(ctx, region, ones))

	full, err := indexer.New([]int{0, 0, 0}, []int{4, 4, 4})
	require.NoError(t, err)
	got, err := a.RetrieveArraySubset(ctx, full)
	require.NoError(t, err)
	fixed := got.(*arraybytes.Fixed)
	require.Len(t, fixed.Data, 64)

	numOnes := 0
	for i, b := range fixed.Data {
		x, y, z := i/16, (i/4)%4, i%4
		inBlock := x >= 1 && x < 3 && y >= 1 && y < 3 && z >= 1 && z < 3
		if inBlock {
			require.Equal(t, byte(1), b, "element %d", i)
			numOnes++
		} else {
			require.Equal(t, byte(0), b, "element %d", i)
		}
	}
	require.Equal(t, 8, numOnes)
}

func TestGroup_CreateOpenAndChildArray(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	g, err := array.CreateGroup(ctx, store, "root", map[string]any{"project": "zarrcore"})
	require.NoError(t, err)

	reopened, err := array.OpenGroup(ctx, store, "root")
	require.NoError(t, err)
	require.Equal(t, "zarrcore", reopened.Attributes["project"])

	grid, err := chunkgrid.NewRegular([]int{2})
	require.NoError(t, err)
	_, err = g.ArrayBuilder("data").
		WithShape([]int{4}).
		WithDataType(datatype.Float64()).
		WithChunkGrid(grid).
		WithFillValue(float64(0)).
		Build(ctx)
	require.NoError(t, err)

	child, err := g.Array(ctx, "data")
	require.NoError(t, err)
	require.Equal(t, []int{4}, child.Meta.Shape)
}
