package codec

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
	"github.com/tuskan/zarrcore/indexer"
)

// Transpose is an array→array codec permuting a chunk's dimension order,
// matching the Zarr V3 `transpose` codec (spec.md §4.3 point 1). It is
// shape-altering: EncodedRepresentation applies Order to Shape.
type Transpose struct {
	// Order[i] is the source dimension that becomes dimension i of the
	// encoded representation.
	Order []int
}

// NewTranspose validates Order is a permutation of [0, rank).
func NewTranspose(order []int) (*Transpose, error) {
	seen := make([]bool, len(order))
	for _, o := range order {
		if o < 0 || o >= len(order) || seen[o] {
			return nil, fmt.Errorf("codec: transpose order %v is not a permutation of [0,%d)", order, len(order))
		}
		seen[o] = true
	}
	return &Transpose{Order: order}, nil
}

func (t *Transpose) Identifier() string { return "transpose" }

func (t *Transpose) Capabilities() Capability { return CapPartialDecode | CapPartialEncode }

func (t *Transpose) EncodedRepresentation(decoded Representation) (Representation, error) {
	if len(decoded.Shape) != len(t.Order) {
		return Representation{}, fmt.Errorf("codec: transpose: shape rank %d != order rank %d", len(decoded.Shape), len(t.Order))
	}
	shape := make([]int, len(t.Order))
	for i, o := range t.Order {
		shape[i] = decoded.Shape[o]
	}
	return Representation{Shape: shape, DataType: decoded.DataType, FillValue: decoded.FillValue}, nil
}

func (t *Transpose) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	return t.permute(decoded, decodedRepr.Shape, t.Order)
}

func (t *Transpose) Decode(ctx context.Context, encoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	inverse := make([]int, len(t.Order))
	for i, o := range t.Order {
		inverse[o] = i
	}
	encodedShape := make([]int, len(t.Order))
	for i, o := range t.Order {
		encodedShape[i] = decodedRepr.Shape[o]
	}
	return t.permute(encoded, encodedShape, inverse)
}

// permute reinterprets src (shape srcShape, C-order) under a dimension
// permutation `order`, where the output's dimension i comes from src's
// dimension order[i].
func (t *Transpose) permute(src arraybytes.ArrayBytes, srcShape []int, order []int) (arraybytes.ArrayBytes, error) {
	fixed, ok := src.(*arraybytes.Fixed)
	if !ok {
		return nil, fmt.Errorf("%w: transpose currently supports only Fixed ArrayBytes", ErrUnsupportedDataType)
	}
	dstShape := make([]int, len(order))
	for i, o := range order {
		dstShape[i] = srcShape[o]
	}
	srcStrides := indexer.Strides(srcShape)
	out := make([]byte, len(fixed.Data))
	dstStrides := indexer.Strides(dstShape)
	indexer.ForEachIndex(dstShape, func(dstCoords []int) {
		srcCoords := make([]int, len(order))
		for i, o := range order {
			srcCoords[o] = dstCoords[i]
		}
		srcFlat := indexer.FlatIndex(srcCoords, srcStrides)
		dstFlat := indexer.FlatIndex(dstCoords, dstStrides)
		copy(out[dstFlat*fixed.ElemSize:(dstFlat+1)*fixed.ElemSize], fixed.Data[srcFlat*fixed.ElemSize:(srcFlat+1)*fixed.ElemSize])
	})
	return arraybytes.NewFixed(out, fixed.ElemSize)
}

func (t *Transpose) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	return concurrency.Range{Min: 1, Max: 4}
}

// permuteSubset maps a subset expressed in this codec's decoded
// coordinate space to the corresponding subset in its encoded (permuted)
// coordinate space: transpose maps one rectangular region to exactly
// one other rectangular region, so this forwarding is always exact.
func (t *Transpose) permuteSubset(s indexer.ArraySubset) indexer.ArraySubset {
	start := make([]int, len(t.Order))
	shape := make([]int, len(t.Order))
	for i, o := range t.Order {
		start[i] = s.Start[o]
		shape[i] = s.Shape[o]
	}
	return indexer.ArraySubset{Start: start, Shape: shape}
}

func (t *Transpose) PartialDecoder(input ArrayPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	return &transposePartialDecoder{t: t, input: input, repr: decodedRepr}, nil
}

func (t *Transpose) PartialEncoder(input ArrayPartialDecoder, output ArrayPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	return &transposePartialEncoder{t: t, output: output, repr: decodedRepr}, nil
}

type transposePartialDecoder struct {
	t     *Transpose
	input ArrayPartialDecoder
	repr  Representation
}

func (d *transposePartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts Options) ([]arraybytes.ArrayBytes, error) {
	encSubsets := make([]indexer.ArraySubset, len(subsets))
	for i, s := range subsets {
		encSubsets[i] = d.t.permuteSubset(s)
	}
	fetched, err := d.input.PartialDecode(ctx, encSubsets, opts)
	if err != nil {
		return nil, err
	}
	out := make([]arraybytes.ArrayBytes, len(subsets))
	for i, s := range subsets {
		decoded, err := d.t.Decode(ctx, fetched[i], Representation{Shape: s.Shape, DataType: d.repr.DataType, FillValue: d.repr.FillValue}, opts)
		if err != nil {
			return nil, err
		}
		out[i] = decoded
	}
	return out, nil
}

type transposePartialEncoder struct {
	t      *Transpose
	output ArrayPartialEncoder
	repr   Representation
}

func (e *transposePartialEncoder) PartialEncode(ctx context.Context, writes []ArraySubsetWrite, opts Options) error {
	encWrites := make([]ArraySubsetWrite, len(writes))
	for i, w := range writes {
		encoded, err := e.t.Encode(ctx, w.Data, Representation{Shape: w.Subset.Shape, DataType: e.repr.DataType, FillValue: e.repr.FillValue}, opts)
		if err != nil {
			return err
		}
		encWrites[i] = ArraySubsetWrite{Subset: e.t.permuteSubset(w.Subset), Data: encoded}
	}
	return e.output.PartialEncode(ctx, encWrites, opts)
}

var _ ArrayToArrayCodec = (*Transpose)(nil)
var _ ArrayPartialDecoder = (*transposePartialDecoder)(nil)
var _ ArrayPartialEncoder = (*transposePartialEncoder)(nil)
