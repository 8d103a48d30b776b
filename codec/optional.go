package codec

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
	"github.com/tuskan/zarrcore/datatype"
)

// Optional is the `optional` array→bytes codec (spec.md §4.3.3):
// encodes an Optional ArrayBytes by running the mask through a mask
// codec chain and the dense data through a data codec chain, then
// concatenating `[mask_len:u64 LE | data_len:u64 LE | encoded_mask | encoded_data]`.
type Optional struct {
	MaskChain *Chain
	DataChain *Chain
}

func (o *Optional) Identifier() string { return "optional" }

func (o *Optional) Capabilities() Capability { return CapNone }

func (o *Optional) Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) ([]byte, error) {
	opt, ok := decoded.(*arraybytes.Optional)
	if !ok {
		return nil, fmt.Errorf("%w: optional codec requires Optional ArrayBytes, got %T", ErrUnsupportedDataType, decoded)
	}
	nullable, ok := decodedRepr.DataType.(datatype.Nullable)
	if !ok {
		return nil, fmt.Errorf("%w: optional codec requires a Nullable data type", ErrUnsupportedDataType)
	}

	maskAB, err := arraybytes.NewFixed(opt.Mask, 1)
	if err != nil {
		return nil, fmt.Errorf("codec: optional: mask: %w", err)
	}
	maskRepr := Representation{Shape: decodedRepr.Shape, DataType: datatype.Bool()}
	encodedMask, err := o.MaskChain.Encode(ctx, maskAB, maskRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: optional: mask chain: %w", err)
	}

	dataRepr := Representation{Shape: decodedRepr.Shape, DataType: nullable.Inner()}
	encodedData, err := o.DataChain.Encode(ctx, opt.Inner, dataRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: optional: data chain: %w", err)
	}

	out := make([]byte, 0, 16+len(encodedMask)+len(encodedData))
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(encodedMask)))
	out = append(out, lenBuf[:]...)
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(encodedData)))
	out = append(out, lenBuf[:]...)
	out = append(out, encodedMask...)
	out = append(out, encodedData...)
	return out, nil
}

func (o *Optional) Decode(ctx context.Context, encoded []byte, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error) {
	if len(encoded) < 16 {
		return nil, fmt.Errorf("%w: optional: too short for header", ErrInvalidBytesLength)
	}
	nullable, ok := decodedRepr.DataType.(datatype.Nullable)
	if !ok {
		return nil, fmt.Errorf("%w: optional codec requires a Nullable data type", ErrUnsupportedDataType)
	}
	maskLen := binary.LittleEndian.Uint64(encoded[0:8])
	dataLen := binary.LittleEndian.Uint64(encoded[8:16])
	pos := uint64(16)
	if pos+maskLen+dataLen != uint64(len(encoded)) {
		return nil, fmt.Errorf("%w: optional: header lengths don't match payload size", ErrInvalidBytesLength)
	}
	maskBytes := encoded[pos : pos+maskLen]
	dataBytes := encoded[pos+maskLen : pos+maskLen+dataLen]

	maskRepr := Representation{Shape: decodedRepr.Shape, DataType: datatype.Bool()}
	maskAB, err := o.MaskChain.Decode(ctx, maskBytes, maskRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: optional: mask chain: %w", err)
	}
	maskFixed, ok := maskAB.(*arraybytes.Fixed)
	if !ok {
		return nil, fmt.Errorf("%w: optional: mask chain must yield Fixed ArrayBytes", ErrUnsupportedDataType)
	}

	dataRepr := Representation{Shape: decodedRepr.Shape, DataType: nullable.Inner()}
	innerAB, err := o.DataChain.Decode(ctx, dataBytes, dataRepr, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: optional: data chain: %w", err)
	}

	return arraybytes.NewOptional(innerAB, maskFixed.Data)
}

func (o *Optional) PartialDecoder(input BytesPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error) {
	return NewArrayPartialDecoderCache(o, decodedRepr, opts, fullFetcher(input)), nil
}

func (o *Optional) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error) {
	return nil, fmt.Errorf("%w: optional does not support partial encode", ErrUnsupported)
}

// RecommendedConcurrency reports a narrow range: the mask and data
// chains run sequentially within a single Encode/Decode call, so this
// codec offers little internal parallelism of its own.
func (o *Optional) RecommendedConcurrency(decodedRepr Representation) concurrency.Range {
	return concurrency.Range{Min: 1, Max: 2}
}

var _ ArrayToBytesCodec = (*Optional)(nil)
