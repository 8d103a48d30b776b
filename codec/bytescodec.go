package codec

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
	"github.com/tuskan/zarrcore/indexer"
)

// Endian selects byte order for the `bytes` array→bytes codec.
type Endian int

const (
	LittleEndian Endian = iota
	BigEndian
)

// BytesCodec is the `bytes` array→bytes codec (spec.md §4.3 point 2): the
// default encoder from a Fixed typed element buffer to a raw byte
// stream, swapping byte order per element when the configured Endian
// differs from the storage order (element bytes are always stored
// little-endian by arraybytes.Fixed; BigEndian reverses each element's
// bytes on encode and on decode).
type BytesCodec struct {
	Endian Endian
}

func (b *BytesCodec) Identifier() string { return "bytes" }

func (b *BytesCodec) Capabilities() Capability {
	return CapPartialRead | CapPartialDecode | CapPartialEncode
}

func (b *BytesCodec) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) ([]byte, error) {
	fixed, ok := decoded.(*arraybytes.Fixed)
	if !ok {
		return nil, fmt.Errorf("%w: bytes codec requires Fixed ArrayBytes, got %T", ErrUnsupportedDataType, decoded)
	}
	if b.Endian == LittleEndian || fixed.ElemSize <= 1 {
		out := make([]byte, len(fixed.Data))
		copy(out, fixed.Data)
		return out, nil
	}
	return swapEndian(fixed.Data, fixed.ElemSize), nil
}

func (b *BytesCodec) Decode(ctx context.Context, encoded []byte, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	elemSize := decodedRepr.DataType.FixedSize()
	if len(encoded)%elemSize != 0 {
		return nil, fmt.Errorf("%w: bytes codec: length %d not a multiple of element size %d", ErrInvalidBytesLength, len(encoded), elemSize)
	}
	data := encoded
	if b.Endian == BigEndian && elemSize > 1 {
		data = swapEndian(encoded, elemSize)
	} else {
		cp := make([]byte, len(encoded))
		copy(cp, encoded)
		data = cp
	}
	return arraybytes.NewFixed(data, elemSize)
}

func swapEndian(data []byte, elemSize int) []byte {
	out := make([]byte, len(data))
	n := len(data) / elemSize
	for i := 0; i < n; i++ {
		src := data[i*elemSize : (i+1)*elemSize]
		dst := out[i*elemSize : (i+1)*elemSize]
		for j := 0; j < elemSize; j++ {
			dst[j] = src[elemSize-1-j]
		}
	}
	return out
}

func (b *BytesCodec) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	return concurrency.Range{Min: 1, Max: 8}
}

func (b *BytesCodec) PartialDecoder(input BytesPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	return &bytesCodecPartialDecoder{codec: b, input: input, repr: decodedRepr}, nil
}

func (b *BytesCodec) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	return &bytesCodecPartialEncoder{codec: b, output: output, repr: decodedRepr}, nil
}

// bytesCodecPartialDecoder serves ArraySubset reads directly as byte
// ranges against the underlying store, since `bytes` is element-wise:
// element i always lives at a fixed byte offset, so no whole-chunk
// decode is needed (CapPartialDecode).
type bytesCodecPartialDecoder struct {
	codec *BytesCodec
	input BytesPartialDecoder
	repr  Representation
}

func (d *bytesCodecPartialDecoder) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts Options) ([]arraybytes.ArrayBytes, error) {
	elemSize := d.repr.DataType.FixedSize()
	out := make([]arraybytes.ArrayBytes, len(subsets))
	for si, s := range subsets {
		flat := indexer.FlattenSubset(d.repr.Shape, s)
		ranges := make([]ByteRangeRequest, len(flat))
		for i, idx := range flat {
			offset := uint64(idx) * uint64(elemSize)
			length := uint64(elemSize)
			ranges[i] = ByteRangeRequest{Offset: offset, Length: &length}
		}
		chunks, err := d.input.PartialDecode(ctx, ranges, opts)
		if err != nil {
			return nil, fmt.Errorf("codec: bytes partial decode: %w", err)
		}
		buf := make([]byte, 0, len(chunks)*elemSize)
		for _, c := range chunks {
			if d.codec.Endian == BigEndian && elemSize > 1 {
				c = swapEndian(c, elemSize)
			}
			buf = append(buf, c...)
		}
		ab, err := arraybytes.NewFixed(buf, elemSize)
		if err != nil {
			return nil, err
		}
		out[si] = ab
	}
	return out, nil
}

type bytesCodecPartialEncoder struct {
	codec  *BytesCodec
	output BytesPartialEncoder
	repr   Representation
}

func (e *bytesCodecPartialEncoder) PartialEncode(ctx context.Context, writes []ArraySubsetWrite, opts Options) error {
	elemSize := e.repr.DataType.FixedSize()
	for _, w := range writes {
		fixed, ok := w.Data.(*arraybytes.Fixed)
		if !ok {
			return fmt.Errorf("%w: bytes codec partial encode requires Fixed ArrayBytes", ErrUnsupportedDataType)
		}
		flat := indexer.FlattenSubset(e.repr.Shape, w.Subset)
		byteWrites := make([]ByteRangeWrite, len(flat))
		for i, idx := range flat {
			elem := fixed.Element(i)
			if e.codec.Endian == BigEndian && elemSize > 1 {
				elem = swapEndian(elem, elemSize)
			}
			byteWrites[i] = ByteRangeWrite{Offset: uint64(idx) * uint64(elemSize), Data: elem}
		}
		if err := e.output.PartialEncode(ctx, byteWrites, opts); err != nil {
			return fmt.Errorf("codec: bytes partial encode: %w", err)
		}
	}
	return nil
}

var _ ArrayToBytesCodec = (*BytesCodec)(nil)
