package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/tuskan/zarrcore/concurrency"
)

// Gzip is a bytes→bytes compression codec, generalizing the teacher's
// hardcoded `case "zlib", "gzip":` branch (reader.go) which used
// stdlib `compress/zlib`; this module standardizes on
// klauspost/compress's faster drop-in implementation, matching the
// zstd codec below and the rest of the domain stack.
type Gzip struct {
	Level int
}

// NewGzip builds a Gzip codec; level follows compress/gzip's
// constants (gzip.DefaultCompression when 0).
func NewGzip(level int) *Gzip {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return &Gzip{Level: level}
}

func (g *Gzip) Identifier() string { return "gzip" }

func (g *Gzip) Capabilities() Capability { return CapNone }

func (g *Gzip) Encode(ctx context.Context, decoded []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.Level)
	if err != nil {
		return nil, fmt.Errorf("codec: gzip: %w", err)
	}
	if _, err := w.Write(decoded); err != nil {
		return nil, fmt.Errorf("codec: gzip: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: gzip: close: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Gzip) Decode(ctx context.Context, encoded []byte, opts Options) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("codec: gzip: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("codec: gzip: decompress: %w", err)
	}
	return out, nil
}

func (g *Gzip) PartialDecoder(input BytesPartialDecoder, opts Options) (BytesPartialDecoder, error) {
	return NewBytesPartialDecoderCache(decodedFetcher(g, input, opts)), nil
}

func (g *Gzip) PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, opts Options) (BytesPartialEncoder, error) {
	return nil, fmt.Errorf("%w: gzip does not support partial encode", ErrUnsupported)
}

func (g *Gzip) RecommendedConcurrency() concurrency.Range { return concurrency.Range{Min: 1, Max: 8} }

// EncodedSize is unbounded: gzip's compression ratio is data-dependent.
func (g *Gzip) EncodedSize(decodedSize int) EncodedSize {
	return EncodedSize{Kind: SizeUnbounded}
}

// fullFetcher adapts a BytesPartialDecoder into a "fetch the whole thing"
// closure, for codecs whose PartialDecoder falls back to
// BytesPartialDecoderCache.
func fullFetcher(input BytesPartialDecoder) func(ctx context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		out, err := input.PartialDecode(ctx, []ByteRangeRequest{{Offset: 0}}, Options{})
		if err != nil {
			return nil, err
		}
		if len(out) != 1 {
			return nil, fmt.Errorf("codec: expected exactly one full-range result, got %d", len(out))
		}
		return out[0], nil
	}
}

// decodedFetcher fetches the full encoded representation through input
// and runs c's Decode over it, for bytes→bytes codecs that cannot
// forward byte ranges: the downstream handle must see ranges of the
// decoded stream, not of c's encoded bytes.
func decodedFetcher(c BytesToBytesCodec, input BytesPartialDecoder, opts Options) func(ctx context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		raw, err := fullFetcher(input)(ctx)
		if err != nil {
			return nil, err
		}
		return c.Decode(ctx, raw, opts)
	}
}

var _ BytesToBytesCodec = (*Gzip)(nil)
