package sharding

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
	"github.com/tuskan/zarrcore/indexer"
)

// indexDataType is a bookkeeping DataType used only to drive the index
// codec chain over 16-byte (offset, length) raw entries; it never
// appears in array metadata.
type indexDataType struct{}

func (indexDataType) Identifier() string          { return "sharding.index_entry" }
func (indexDataType) SizeClass() datatype.SizeClass { return datatype.Fixed }
func (indexDataType) FixedSize() int              { return 16 }

func (indexDataType) ParseFillValue(raw any) ([]byte, error) {
	return make([]byte, 16), nil
}

func (indexDataType) FormatFillValue(buf []byte) (any, error) {
	return nil, nil
}

func (indexDataType) Capabilities() datatype.Capabilities {
	return datatype.Capabilities{}
}

var _ datatype.DataType = indexDataType{}

// PartialDecoder implements the spec.md §4.3.1 partial-read protocol for
// shards: (1) fetch the index byte-range only, (2) for each requested
// inner chunk, fetch its (offset, length) slice, (3) decode only those
// inner chunks through the nested chain.
func (c *Codec) PartialDecoder(input codec.BytesPartialDecoder, decodedRepr codec.Representation, opts codec.Options) (codec.ArrayPartialDecoder, error) {
	return &partialDecoder{codec: c, input: input, repr: decodedRepr}, nil
}

func (c *Codec) PartialEncoder(input codec.BytesPartialDecoder, output codec.BytesPartialEncoder, decodedRepr codec.Representation, opts codec.Options) (codec.ArrayPartialEncoder, error) {
	return nil, fmt.Errorf("%w: sharding partial encode requires a whole-shard rewrite; use Encode", codec.ErrUnsupported)
}

type partialDecoder struct {
	codec   *Codec
	input   codec.BytesPartialDecoder
	repr    codec.Representation
	entries []IndexEntry
	grid    interface {
		ChunkShape(arrayShape []int, index []int) ([]int, error)
		ChunkStart(arrayShape []int, index []int) ([]int, error)
	}
	gridShape []int
	loaded    bool
}

func (d *partialDecoder) ensureIndex(ctx context.Context, opts codec.Options) error {
	if d.loaded {
		return nil
	}
	grid, gridShape, err := d.codec.innerGrid(d.repr.Shape)
	if err != nil {
		return err
	}
	numInner := productOf(gridShape)
	indexSize, err := d.codec.indexByteSize(numInner)
	if err != nil {
		return err
	}

	length := uint64(indexSize)
	var rangeReq codec.ByteRangeRequest
	if d.codec.IndexLocation == IndexStart {
		rangeReq = codec.ByteRangeRequest{Offset: 0, Length: &length}
	} else {
		rangeReq = codec.ByteRangeRequest{Suffix: true, Length: &length}
	}
	chunks, err := d.input.PartialDecode(ctx, []codec.ByteRangeRequest{rangeReq}, opts)
	if err != nil {
		return fmt.Errorf("sharding: fetch index: %w", err)
	}
	entries, err := d.codec.decodeIndex(ctx, chunks[0], numInner, opts)
	if err != nil {
		return fmt.Errorf("sharding: decode index: %w", err)
	}
	d.entries = entries
	d.grid = grid
	d.gridShape = gridShape
	d.loaded = true
	return nil
}

// innerChunkRange returns the shard-relative byte range holding inner
// chunk flatIdx's encoded bytes, accounting for the index's placement
// (Start pushes the payload forward by the index's encoded size).
func (d *partialDecoder) innerChunkRange(flatIdx int, indexSize uint64) (codec.ByteRangeRequest, IndexEntry) {
	entry := d.entries[flatIdx]
	base := uint64(0)
	if d.codec.IndexLocation == IndexStart {
		base = indexSize
	}
	offset := base + entry.Offset
	length := entry.Length
	return codec.ByteRangeRequest{Offset: offset, Length: &length}, entry
}

func (d *partialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts codec.Options) ([]arraybytes.ArrayBytes, error) {
	if err := d.ensureIndex(ctx, opts); err != nil {
		return nil, err
	}
	indexSize, err := d.codec.indexByteSize(productOf(d.gridShape))
	if err != nil {
		return nil, err
	}

	out := make([]arraybytes.ArrayBytes, len(subsets))
	for si, subset := range subsets {
		total := subset.NumElements()
		fillRepr := codec.Representation{Shape: subset.Shape, DataType: d.repr.DataType, FillValue: d.repr.FillValue}
		fillAB, err := fillBroadcast(fillRepr, total)
		if err != nil {
			return nil, err
		}
		result := fillAB

		err = forEachGridIndex(d.gridShape, func(innerIdx []int) error {
			innerShape, err := d.grid.ChunkShape(d.repr.Shape, innerIdx)
			if err != nil {
				return err
			}
			innerStart, err := d.grid.ChunkStart(d.repr.Shape, innerIdx)
			if err != nil {
				return err
			}
			innerSubset := indexer.ArraySubset{Start: innerStart, Shape: innerShape}
			overlap, ok := innerSubset.Intersect(subset)
			if !ok {
				return nil
			}
			flatIdx := flatGridIndex(d.gridShape, innerIdx)
			rangeReq, entry := d.innerChunkRange(flatIdx, uint64(indexSize))
			if entry.IsEmpty() {
				return nil
			}
			chunks, err := d.input.PartialDecode(ctx, []codec.ByteRangeRequest{rangeReq}, opts)
			if err != nil {
				return err
			}
			innerRepr := codec.Representation{Shape: innerShape, DataType: d.repr.DataType, FillValue: d.repr.FillValue}
			innerAB, err := d.codec.InnerChain.Decode(ctx, chunks[0], innerRepr, opts)
			if err != nil {
				return err
			}
			// Map overlap (shard-absolute coords) into inner-chunk-relative
			// and subset-relative flat index lists to gather/scatter.
			innerRel := make([]int, len(overlap.Start))
			outRel := make([]int, len(overlap.Start))
			for i := range overlap.Start {
				innerRel[i] = overlap.Start[i] - innerStart[i]
				outRel[i] = overlap.Start[i] - subset.Start[i]
			}
			innerFlat := indexer.FlattenSubset(innerShape, indexer.ArraySubset{Start: innerRel, Shape: overlap.Shape})
			gathered, err := arraybytes.ExtractIndices(innerAB, innerFlat)
			if err != nil {
				return err
			}
			outFlat := indexer.FlattenSubset(subset.Shape, indexer.ArraySubset{Start: outRel, Shape: overlap.Shape})
			return arraybytes.Overwrite(result, outFlat, gathered)
		})
		if err != nil {
			return nil, err
		}
		out[si] = result
	}
	return out, nil
}

func flatGridIndex(gridShape, idx []int) int {
	strides := indexer.Strides(gridShape)
	return indexer.FlatIndex(idx, strides)
}

var _ codec.ArrayPartialDecoder = (*partialDecoder)(nil)
