package codec

import (
	"context"
	"fmt"

	"github.com/golang/snappy"

	"github.com/tuskan/zarrcore/concurrency"
)

// Snappy is a bytes→bytes compression codec, grounded on
// `dolthub-dolt`'s go.mod (noms storage layer ships with snappy as a
// fast low-ratio compressor — the same tradeoff Zarr's `numcodecs`
// ecosystem uses snappy for).
type Snappy struct{}

func (s *Snappy) Identifier() string { return "snappy" }

func (s *Snappy) Capabilities() Capability { return CapNone }

func (s *Snappy) Encode(ctx context.Context, decoded []byte, opts Options) ([]byte, error) {
	return snappy.Encode(nil, decoded), nil
}

func (s *Snappy) Decode(ctx context.Context, encoded []byte, opts Options) ([]byte, error) {
	out, err := snappy.Decode(nil, encoded)
	if err != nil {
		return nil, fmt.Errorf("codec: snappy: decompress: %w", err)
	}
	return out, nil
}

func (s *Snappy) PartialDecoder(input BytesPartialDecoder, opts Options) (BytesPartialDecoder, error) {
	return NewBytesPartialDecoderCache(decodedFetcher(s, input, opts)), nil
}

func (s *Snappy) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, opts Options) (BytesPartialEncoder, error) {
	return nil, fmt.Errorf("%w: snappy does not support partial encode", ErrUnsupported)
}

func (s *Snappy) RecommendedConcurrency() concurrency.Range { return concurrency.Range{Min: 1, Max: 8} }

// EncodedSize is unbounded: snappy's compression ratio is data-dependent.
func (s *Snappy) EncodedSize(decodedSize int) EncodedSize {
	return EncodedSize{Kind: SizeUnbounded}
}

var _ BytesToBytesCodec = (*Snappy)(nil)
