package codec

import (
	"context"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
	"github.com/tuskan/zarrcore/indexer"
)

// Squeeze is an array→array codec dropping size-1 dimensions, e.g. a
// `[4,1,4]` chunk encodes as `[4,4]` (spec.md §4.3 point 1). Like
// Reshape, the C-order element sequence is unchanged, so the underlying
// buffer passes through untouched; only Representation.Shape changes.
type Squeeze struct{}

func (s *Squeeze) Identifier() string { return "squeeze" }

func (s *Squeeze) Capabilities() Capability { return CapPartialDecode | CapPartialEncode }

func (s *Squeeze) EncodedRepresentation(decoded Representation) (Representation, error) {
	shape := make([]int, 0, len(decoded.Shape))
	for _, d := range decoded.Shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	return Representation{Shape: shape, DataType: decoded.DataType, FillValue: decoded.FillValue}, nil
}

func (s *Squeeze) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	return decoded, nil
}

func (s *Squeeze) Decode(ctx context.Context, encoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	return encoded, nil
}

func (s *Squeeze) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	return concurrency.Range{Min: 1, Max: 4}
}

// unitDims reports, for each dimension of shape, whether squeeze drops it.
func unitDims(shape []int) []bool {
	mask := make([]bool, len(shape))
	for i, d := range shape {
		mask[i] = d == 1
	}
	return mask
}

// dropSubsetDims removes the dimensions flagged in mask from subset: a
// unit dimension of a chunk's shape can only ever be requested as
// [Start:0, Shape:1], so dropping it never changes which elements are
// selected.
func dropSubsetDims(mask []bool, subset indexer.ArraySubset) indexer.ArraySubset {
	start := make([]int, 0, len(subset.Start))
	shape := make([]int, 0, len(subset.Shape))
	for i, drop := range mask {
		if drop {
			continue
		}
		start = append(start, subset.Start[i])
		shape = append(shape, subset.Shape[i])
	}
	return indexer.ArraySubset{Start: start, Shape: shape}
}

func (s *Squeeze) PartialDecoder(input ArrayPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	return &squeezePartialDecoder{mask: unitDims(decodedRepr.Shape), input: input}, nil
}

func (s *Squeeze) PartialEncoder(input ArrayPartialDecoder, output ArrayPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	return &squeezePartialEncoder{mask: unitDims(decodedRepr.Shape), output: output}, nil
}

type squeezePartialDecoder struct {
	mask  []bool
	input ArrayPartialDecoder
}

func (d *squeezePartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts Options) ([]arraybytes.ArrayBytes, error) {
	encSubsets := make([]indexer.ArraySubset, len(subsets))
	for i, s := range subsets {
		encSubsets[i] = dropSubsetDims(d.mask, s)
	}
	return d.input.PartialDecode(ctx, encSubsets, opts)
}

type squeezePartialEncoder struct {
	mask   []bool
	output ArrayPartialEncoder
}

func (e *squeezePartialEncoder) PartialEncode(ctx context.Context, writes []ArraySubsetWrite, opts Options) error {
	out := make([]ArraySubsetWrite, len(writes))
	for i, w := range writes {
		out[i] = ArraySubsetWrite{Subset: dropSubsetDims(e.mask, w.Subset), Data: w.Data}
	}
	return e.output.PartialEncode(ctx, out, opts)
}

var _ ArrayToArrayCodec = (*Squeeze)(nil)
var _ ArrayPartialDecoder = (*squeezePartialDecoder)(nil)
var _ ArrayPartialEncoder = (*squeezePartialEncoder)(nil)
