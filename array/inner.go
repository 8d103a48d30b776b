package array

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/chunkgrid"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/codec/sharding"
	"github.com/tuskan/zarrcore/indexer"
	"github.com/tuskan/zarrcore/storage"
)

// Inner-chunk operations for sharded arrays (spec.md §4.4, §4.7): the
// sharding codec's inner chunks get their own grid across the whole
// array, and reads/writes aligned to it pay one index fetch per shard
// instead of materialising whole shards.

func (a *Array) shardingCodec() (*sharding.Codec, bool) {
	sc, ok := a.Meta.Codecs.ArrayToBytes.(*sharding.Codec)
	return sc, ok
}

// effectiveInnerChunkShape maps the sharding codec's inner chunk shape —
// expressed in the representation reaching the array→bytes stage — back
// into array coordinates, undoing any shape-altering array→array codec
// in front of it. Transpose inverts exactly; any other shape-altering
// codec (reshape, squeeze) makes the inner grid unrepresentable in array
// coordinates.
func (a *Array) effectiveInnerChunkShape(sc *sharding.Codec, outerChunkShape []int) ([]int, error) {
	aa := a.Meta.Codecs.ArrayToArray
	shapes := make([][]int, len(aa)+1)
	shapes[0] = outerChunkShape
	cur := codec.Representation{Shape: outerChunkShape, DataType: a.Meta.DataType, FillValue: a.Meta.FillValue}
	for i, c := range aa {
		next, err := c.EncodedRepresentation(cur)
		if err != nil {
			return nil, err
		}
		shapes[i+1] = next.Shape
		cur = next
	}

	shape := append([]int(nil), sc.InnerChunkShape...)
	for i := len(aa) - 1; i >= 0; i-- {
		switch c := aa[i].(type) {
		case *codec.Transpose:
			prev := make([]int, len(shape))
			for j, o := range c.Order {
				prev[o] = shape[j]
			}
			shape = prev
		default:
			if !equalInts(shapes[i], shapes[i+1]) {
				return nil, fmt.Errorf("%w: inner chunk grid cannot account for shape-altering codec %q", codec.ErrUnsupported, aa[i].Identifier())
			}
		}
	}
	return shape, nil
}

// InnerChunkGrid returns the grid of inner chunks spanning the whole
// array. It requires a sharded array over a regular outer grid whose
// chunk shape is a whole multiple of the effective inner chunk shape.
func (a *Array) InnerChunkGrid() (*chunkgrid.Regular, error) {
	sc, ok := a.shardingCodec()
	if !ok {
		return nil, fmt.Errorf("%w: array is not sharded", codec.ErrUnsupported)
	}
	outer, ok := a.Meta.ChunkGrid.(*chunkgrid.Regular)
	if !ok {
		return nil, fmt.Errorf("%w: inner chunk grid requires a regular outer grid, got %q", codec.ErrUnsupported, a.Meta.ChunkGrid.Identifier())
	}
	eff, err := a.effectiveInnerChunkShape(sc, outer.Shape)
	if err != nil {
		return nil, err
	}
	for i := range eff {
		if outer.Shape[i]%eff[i] != 0 {
			return nil, fmt.Errorf("%w: outer chunk shape %v is not a multiple of inner chunk shape %v", codec.ErrUnsupported, outer.Shape, eff)
		}
	}
	return chunkgrid.NewRegular(eff)
}

// innerChunkLocation resolves a global inner chunk index to the outer
// chunk holding it and the inner chunk's subset within that chunk.
func (a *Array) innerChunkLocation(innerIndex []int) (outerIndex []int, subsetInChunk indexer.ArraySubset, err error) {
	grid, err := a.InnerChunkGrid()
	if err != nil {
		return nil, indexer.ArraySubset{}, err
	}
	innerStart, err := grid.ChunkStart(a.Meta.Shape, innerIndex)
	if err != nil {
		return nil, indexer.ArraySubset{}, err
	}
	innerShape, err := grid.ChunkShape(a.Meta.Shape, innerIndex)
	if err != nil {
		return nil, indexer.ArraySubset{}, err
	}
	outerIndex, err = a.Meta.ChunkGrid.ChunkIndexForElement(a.Meta.Shape, innerStart)
	if err != nil {
		return nil, indexer.ArraySubset{}, err
	}
	outerStart, err := a.Meta.ChunkGrid.ChunkStart(a.Meta.Shape, outerIndex)
	if err != nil {
		return nil, indexer.ArraySubset{}, err
	}
	rel := make([]int, len(innerStart))
	for i := range innerStart {
		rel[i] = innerStart[i] - outerStart[i]
	}
	return outerIndex, indexer.ArraySubset{Start: rel, Shape: innerShape}, nil
}

// RetrieveInnerChunk reads one inner chunk of a sharded array by its
// index in the InnerChunkGrid, fetching only the shard index and that
// inner chunk's byte slice (spec.md §4.3.1's partial-read protocol). An
// absent shard reads as the fill value.
func (a *Array) RetrieveInnerChunk(ctx context.Context, innerIndex []int) (arraybytes.ArrayBytes, error) {
	outerIndex, subsetInChunk, err := a.innerChunkLocation(innerIndex)
	if err != nil {
		return nil, err
	}
	repr, err := a.chunkRepresentation(outerIndex)
	if err != nil {
		return nil, err
	}
	key := a.chunkKey(outerIndex)

	_, present, err := a.Store.GetPartial(ctx, key, []storage.ByteRange{storage.FromStart(0, 1)})
	if err != nil {
		return nil, err
	}
	if !present {
		return arraybytes.FillValueBroadcast(a.Meta.DataType, subsetInChunk.NumElements(), a.Meta.FillValue)
	}

	opts := a.codecOptions(1, repr)
	handle, err := a.Meta.Codecs.PartialDecoder(&storeBytesPartialDecoder{store: a.Store, key: key}, repr, opts)
	if err != nil {
		return nil, err
	}
	decoded, err := handle.PartialDecode(ctx, []indexer.ArraySubset{subsetInChunk}, opts)
	if err != nil {
		return nil, err
	}
	return decoded[0], nil
}

// StoreInnerChunk writes one inner chunk of a sharded array by its index
// in the InnerChunkGrid. The shard is rewritten via the chunk-subset
// path (spec.md §4.3.1: partial shard updates rewrite the whole shard).
func (a *Array) StoreInnerChunk(ctx context.Context, innerIndex []int, elements arraybytes.ArrayBytes) error {
	outerIndex, subsetInChunk, err := a.innerChunkLocation(innerIndex)
	if err != nil {
		return err
	}
	return a.StoreChunkSubset(ctx, outerIndex, subsetInChunk, elements)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
