package codec

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
)

// Chain is an ordered codec pipeline: zero or more array→array codecs,
// exactly one array→bytes codec, then zero or more bytes→bytes codecs
// (spec.md §4.3).
type Chain struct {
	ArrayToArray []ArrayToArrayCodec
	ArrayToBytes ArrayToBytesCodec
	BytesToBytes []BytesToBytesCodec
}

// NewChain validates that exactly one array→bytes codec is present.
func NewChain(aa []ArrayToArrayCodec, ab ArrayToBytesCodec, bb []BytesToBytesCodec) (*Chain, error) {
	if ab == nil {
		return nil, fmt.Errorf("codec: chain requires exactly one array->bytes codec, got none")
	}
	return &Chain{ArrayToArray: aa, ArrayToBytes: ab, BytesToBytes: bb}, nil
}

// EncodedRepresentation runs decodedRepr through every array→array
// codec's EncodedRepresentation in order, producing the representation
// that reaches the array→bytes stage.
func (c *Chain) EncodedRepresentation(decodedRepr Representation) (Representation, error) {
	repr := decodedRepr
	for _, aa := range c.ArrayToArray {
		var err error
		repr, err = aa.EncodedRepresentation(repr)
		if err != nil {
			return Representation{}, fmt.Errorf("codec: chain: %s: %w", aa.Identifier(), err)
		}
	}
	return repr, nil
}

// Encode runs decoded through the array→array stages, the array→bytes
// stage, then the bytes→bytes stages in order, per spec.md §4.3.
func (c *Chain) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) ([]byte, error) {
	ab := decoded
	repr := decodedRepr
	for _, aa := range c.ArrayToArray {
		var err error
		encodedRepr, err := aa.EncodedRepresentation(repr)
		if err != nil {
			return nil, fmt.Errorf("codec: chain encode: %s: %w", aa.Identifier(), err)
		}
		ab, err = aa.Encode(ctx, ab, repr, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain encode: %s: %w", aa.Identifier(), err)
		}
		repr = encodedRepr
	}

	bytesOut, err := c.ArrayToBytes.Encode(ctx, ab, repr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: chain encode: %s: %w", c.ArrayToBytes.Identifier(), err)
	}

	for _, bb := range c.BytesToBytes {
		bytesOut, err = bb.Encode(ctx, bytesOut, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain encode: %s: %w", bb.Identifier(), err)
		}
	}
	return bytesOut, nil
}

// Decode runs encoded through the bytes→bytes stages in reverse, the
// array→bytes decode, then the array→array stages in reverse.
func (c *Chain) Decode(ctx context.Context, encoded []byte, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	// Compute the representation each array->array codec sees on the
	// way in, so decode can unwind in reverse order.
	reprs, err := c.arrayToArrayReprs(decodedRepr)
	if err != nil {
		return nil, fmt.Errorf("codec: chain decode: %w", err)
	}
	bytesRepr := reprs[len(reprs)-1]

	bytesIn := encoded
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		bb := c.BytesToBytes[i]
		bytesIn, err = bb.Decode(ctx, bytesIn, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain decode: %s: %w", bb.Identifier(), err)
		}
	}

	ab, err := c.ArrayToBytes.Decode(ctx, bytesIn, bytesRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: chain decode: %s: %w", c.ArrayToBytes.Identifier(), err)
	}

	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		aa := c.ArrayToArray[i]
		ab, err = aa.Decode(ctx, ab, reprs[i], opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain decode: %s: %w", aa.Identifier(), err)
		}
	}
	return ab, nil
}

// arrayToArrayReprs precomputes the representation seen by each
// array→array stage (index i) plus the representation reaching the
// array→bytes stage (the last element), shared by PartialDecoder,
// PartialEncoder and RecommendedConcurrency.
func (c *Chain) arrayToArrayReprs(decodedRepr Representation) ([]Representation, error) {
	reprs := make([]Representation, len(c.ArrayToArray)+1)
	reprs[0] = decodedRepr
	for i, aa := range c.ArrayToArray {
		next, err := aa.EncodedRepresentation(reprs[i])
		if err != nil {
			return nil, fmt.Errorf("codec: chain: %s: %w", aa.Identifier(), err)
		}
		reprs[i+1] = next
	}
	return reprs, nil
}

// PartialDecoder cascades a region request through the whole chain,
// spec.md §4.3's partial decode protocol: bytes→bytes stages wrap input
// in reverse order, the array→bytes stage turns byte-range requests into
// ArraySubset requests, and array→array stages wrap that in reverse
// order, each either transforming-and-forwarding the request or falling
// back to ArrayToArrayPartialDecoderCache.
func (c *Chain) PartialDecoder(input BytesPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	reprs, err := c.arrayToArrayReprs(decodedRepr)
	if err != nil {
		return nil, fmt.Errorf("codec: chain partial decoder: %w", err)
	}
	bytesRepr := reprs[len(reprs)-1]

	bytesHandle := input
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		bb := c.BytesToBytes[i]
		wrapped, err := bb.PartialDecoder(bytesHandle, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain partial decoder: %s: %w", bb.Identifier(), err)
		}
		bytesHandle = wrapped
	}

	arrayHandle, err := c.ArrayToBytes.PartialDecoder(bytesHandle, bytesRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: chain partial decoder: %s: %w", c.ArrayToBytes.Identifier(), err)
	}

	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		aa := c.ArrayToArray[i]
		wrapped, err := aa.PartialDecoder(arrayHandle, reprs[i], opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain partial decoder: %s: %w", aa.Identifier(), err)
		}
		arrayHandle = wrapped
	}
	return arrayHandle, nil
}

// PartialEncoder cascades a region write through the whole chain,
// mirroring PartialDecoder. Any stage that cannot support partial
// encode (most compressors, sharding's index rewrite) reports an error
// at build time, which callers treat as "fall back to read-modify-write
// of the whole chunk".
func (c *Chain) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	reprs, err := c.arrayToArrayReprs(decodedRepr)
	if err != nil {
		return nil, fmt.Errorf("codec: chain partial encoder: %w", err)
	}
	bytesRepr := reprs[len(reprs)-1]

	bytesIn := input
	bytesOut := output
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		bb := c.BytesToBytes[i]
		wrappedIn, err := bb.PartialDecoder(bytesIn, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain partial encoder: %s: %w", bb.Identifier(), err)
		}
		wrappedOut, err := bb.PartialEncoder(bytesIn, bytesOut, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain partial encoder: %s: %w", bb.Identifier(), err)
		}
		bytesIn = wrappedIn
		bytesOut = wrappedOut
	}

	arrayOut, err := c.ArrayToBytes.PartialEncoder(bytesIn, bytesOut, bytesRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: chain partial encoder: %s: %w", c.ArrayToBytes.Identifier(), err)
	}
	arrayIn, err := c.ArrayToBytes.PartialDecoder(bytesIn, bytesRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: chain partial encoder: %s: %w", c.ArrayToBytes.Identifier(), err)
	}

	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		aa := c.ArrayToArray[i]
		wrappedOut, err := aa.PartialEncoder(arrayIn, arrayOut, reprs[i], opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain partial encoder: %s: %w", aa.Identifier(), err)
		}
		wrappedIn, err := aa.PartialDecoder(arrayIn, reprs[i], opts)
		if err != nil {
			return nil, fmt.Errorf("codec: chain partial encoder: %s: %w", aa.Identifier(), err)
		}
		arrayOut = wrappedOut
		arrayIn = wrappedIn
	}
	return arrayOut, nil
}

// RecommendedConcurrency intersects every stage's recommended range
// (spec.md §5), each array→array and the array→bytes stage evaluated
// against the representation it actually sees.
func (c *Chain) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	repr := decodedRepr
	result := concurrency.Range{}
	first := true
	merge := func(r concurrency.Range) {
		if first {
			result = r
			first = false
			return
		}
		if r.Min > result.Min {
			result.Min = r.Min
		}
		if r.Max < result.Max {
			result.Max = r.Max
		}
		if result.Max < result.Min {
			result.Max = result.Min
		}
	}
	for _, aa := range c.ArrayToArray {
		merge(aa.RecommendedConcurrency(repr))
		if next, err := aa.EncodedRepresentation(repr); err == nil {
			repr = next
		}
	}
	merge(c.ArrayToBytes.RecommendedConcurrency(repr))
	for _, bb := range c.BytesToBytes {
		merge(bb.RecommendedConcurrency())
	}
	return result
}
