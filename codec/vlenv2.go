package codec

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
)

// VlenV2 is the `vlen_v2` array→bytes codec (spec.md §4.3.2): a 4-byte
// little-endian element count header followed by per-element
// `(length: u32 LE, bytes)` pairs.
type VlenV2 struct{}

func (v *VlenV2) Identifier() string { return "vlen_v2" }

func (v *VlenV2) Capabilities() Capability { return CapNone }

func (v *VlenV2) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) ([]byte, error) {
	variable, ok := decoded.(*arraybytes.Variable)
	if !ok {
		return nil, fmt.Errorf("%w: vlen_v2 requires Variable ArrayBytes, got %T", ErrUnsupportedDataType, decoded)
	}
	n := variable.NumElements()
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(n))
	out := make([]byte, 0, 4+n*4+len(variable.Data))
	out = append(out, header[:]...)
	for i := 0; i < n; i++ {
		elem := variable.Element(i)
		var lenBytes [4]byte
		binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(elem)))
		out = append(out, lenBytes[:]...)
		out = append(out, elem...)
	}
	return out, nil
}

func (v *VlenV2) Decode(ctx context.Context, encoded []byte, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	if len(encoded) < 4 {
		return nil, fmt.Errorf("%w: vlen_v2: too short for header", ErrInvalidBytesLength)
	}
	n := int(binary.LittleEndian.Uint32(encoded[:4]))
	if want := arraybytes.NumElementsForChunkShape(decodedRepr.Shape); n != want {
		return nil, fmt.Errorf("%w: vlen_v2: header count %d inconsistent with chunk shape %v", ErrInvalidBytesLength, n, decodedRepr.Shape)
	}
	pos := 4
	offsets := make([]int, n+1)
	data := make([]byte, 0, len(encoded))
	for i := 0; i < n; i++ {
		if pos+4 > len(encoded) {
			return nil, fmt.Errorf("%w: vlen_v2: truncated length prefix at element %d", ErrInvalidBytesLength, i)
		}
		elemLen := int(binary.LittleEndian.Uint32(encoded[pos : pos+4]))
		pos += 4
		if pos+elemLen > len(encoded) {
			return nil, fmt.Errorf("%w: vlen_v2: truncated element %d", ErrInvalidBytesLength, i)
		}
		data = append(data, encoded[pos:pos+elemLen]...)
		pos += elemLen
		offsets[i+1] = len(data)
	}
	return arraybytes.NewVariable(data, offsets)
}

func (v *VlenV2) PartialDecoder(input BytesPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	return NewArrayPartialDecoderCache(v, decodedRepr, opts, fullFetcher(input)), nil
}

func (v *VlenV2) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	return nil, fmt.Errorf("%w: vlen_v2 does not support partial encode", ErrUnsupported)
}

func (v *VlenV2) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	return concurrency.Range{Min: 1, Max: 4}
}

var _ ArrayToBytesCodec = (*VlenV2)(nil)
