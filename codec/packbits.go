package codec

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/concurrency"
)

// PackBits is the bytes→bytes codec packing one-bit-per-element boolean
// data 8 elements to a byte, used for the `bool` data type's pack-bits
// capability (spec.md §4.1). Encode expects one input byte per element
// (0x00/0x01); decode expands back to one byte per element.
type PackBits struct{}

func (p *PackBits) Identifier() string { return "packbits" }

func (p *PackBits) Capabilities() Capability { return CapNone }

func (p *PackBits) Encode(ctx context.Context, decoded []byte, opts Options) ([]byte, error) {
	n := len(decoded)
	out := make([]byte, (n+7)/8)
	for i, b := range decoded {
		if b != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out, nil
}

// Decode expands packed bits back into one byte per element. The
// caller must slice the result to the original element count — packed
// bytes alone can't distinguish 8 elements from 1-7 padded.
func (p *PackBits) Decode(ctx context.Context, encoded []byte, opts Options) ([]byte, error) {
	out := make([]byte, len(encoded)*8)
	for i := range out {
		if encoded[i/8]&(1<<uint(i%8)) != 0 {
			out[i] = 1
		}
	}
	return out, nil
}

func (p *PackBits) PartialDecoder(input BytesPartialDecoder, opts Options) (BytesPartialDecoder, error) {
	return NewBytesPartialDecoderCache(decodedFetcher(p, input, opts)), nil
}

func (p *PackBits) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, opts Options) (BytesPartialEncoder, error) {
	return nil, fmt.Errorf("%w: packbits does not support partial encode", ErrUnsupported)
}

func (p *PackBits) RecommendedConcurrency() concurrency.Range { return concurrency.Range{Min: 1, Max: 4} }

// EncodedSize is fixed: packbits always emits ceil(n/8) bytes.
func (p *PackBits) EncodedSize(decodedSize int) EncodedSize {
	return EncodedSize{Kind: SizeFixed, Size: (decodedSize + 7) / 8}
}

var _ BytesToBytesCodec = (*PackBits)(nil)
