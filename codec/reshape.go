package codec

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
)

// Reshape is an array→array codec changing a chunk's logical shape while
// preserving C-order element sequence and total element count (spec.md
// §4.3 point 1). Since the underlying ArrayBytes representations here
// carry no shape of their own (only NumElements), Reshape is a no-op on
// the buffer itself; it only rewrites the Representation that flows
// through the chain.
type Reshape struct {
	Shape []int
}

// NewReshape validates Shape has non-negative extents.
func NewReshape(shape []int) (*Reshape, error) {
	for i, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("codec: reshape: negative extent %d at dim %d", s, i)
		}
	}
	return &Reshape{Shape: shape}, nil
}

func (r *Reshape) Identifier() string { return "reshape" }

func (r *Reshape) Capabilities() Capability { return CapNone }

func (r *Reshape) EncodedRepresentation(decoded Representation) (Representation, error) {
	if arraybytes.NumElementsForChunkShape(decoded.Shape) != arraybytes.NumElementsForChunkShape(r.Shape) {
		return Representation{}, fmt.Errorf("%w: reshape: element count %d != target shape %v element count %d", ErrInvalidArraySubset, arraybytes.NumElementsForChunkShape(decoded.Shape), r.Shape, arraybytes.NumElementsForChunkShape(r.Shape))
	}
	return Representation{Shape: r.Shape, DataType: decoded.DataType, FillValue: decoded.FillValue}, nil
}

func (r *Reshape) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	return decoded, nil
}

func (r *Reshape) Decode(ctx context.Context, encoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	return encoded, nil
}

func (r *Reshape) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	return concurrency.Range{Min: 1, Max: 4}
}

// PartialDecoder falls back to decoding the whole chunk once: merging or
// splitting non-unit dimensions can scramble row boundaries, so an
// arbitrary decoded-space subset is not always expressible as a single
// rectangular region of the encoded (reshaped) representation. For
// example reshaping [2,6] to [3,4] and requesting row 1 of the [3,4]
// view (flat indices 4-7) spans row 0 cols 4-5 and row 1 cols 0-1 of the
// [2,6] view: two disjoint runs, not one box. Transpose and squeeze
// avoid this because a permutation or unit-dimension drop always maps
// one rectangular region to exactly one other.
func (r *Reshape) PartialDecoder(input ArrayPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	encodedRepr, err := r.EncodedRepresentation(decodedRepr)
	if err != nil {
		return nil, err
	}
	return NewArrayToArrayPartialDecoderCache(r, input, decodedRepr, encodedRepr), nil
}

func (r *Reshape) PartialEncoder(input ArrayPartialDecoder, output ArrayPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	encodedRepr, err := r.EncodedRepresentation(decodedRepr)
	if err != nil {
		return nil, err
	}
	cache := NewArrayToArrayPartialDecoderCache(r, input, decodedRepr, encodedRepr)
	return NewArrayToArrayPartialEncoderFallback(r, cache, output, decodedRepr, encodedRepr), nil
}

var _ ArrayToArrayCodec = (*Reshape)(nil)
