package codec

import (
	"context"
	"fmt"
	"sync"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/indexer"
)

// ArrayPartialDecoderCache is the generic fallback for any array→bytes
// codec whose Capabilities() lack CapPartialDecode: it decodes the
// underlying handle into ArrayBytes once, then serves every subsequent
// ArraySubset request by extracting from the cached buffer. Per
// SPEC_FULL §4.11, this is the *array* cache: it buffers the decoded
// typed representation, not raw bytes.
type ArrayPartialDecoderCache struct {
	inner ArrayToBytesCodec
	repr  Representation
	opts  Options

	mu        sync.Mutex
	decoded   arraybytes.ArrayBytes
	haveFetch bool
	fetch     func(ctx context.Context) ([]byte, error)
}

// NewArrayPartialDecoderCache wraps inner, using fetch to obtain the
// full encoded byte representation on first use.
func NewArrayPartialDecoderCache(inner ArrayToBytesCodec, repr Representation, opts Options, fetch func(ctx context.Context) ([]byte, error)) *ArrayPartialDecoderCache {
	return &ArrayPartialDecoderCache{inner: inner, repr: repr, opts: opts, fetch: fetch}
}

func (c *ArrayPartialDecoderCache) ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.haveFetch {
		return nil
	}
	raw, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("codec: array partial decoder cache: fetch: %w", err)
	}
	ab, err := c.inner.Decode(ctx, raw, c.repr, c.opts)
	if err != nil {
		return fmt.Errorf("codec: array partial decoder cache: decode: %w", err)
	}
	c.decoded = ab
	c.haveFetch = true
	return nil
}

func (c *ArrayPartialDecoderCache) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts Options) ([]arraybytes.ArrayBytes, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	decoded := c.decoded
	c.mu.Unlock()
	out := make([]arraybytes.ArrayBytes, len(subsets))
	for i, s := range subsets {
		flat := indexer.FlattenSubset(c.repr.Shape, s)
		ab, err := arraybytes.ExtractIndices(decoded, flat)
		if err != nil {
			return nil, fmt.Errorf("codec: array partial decoder cache: extract: %w", err)
		}
		out[i] = ab
	}
	return out, nil
}

var _ ArrayPartialDecoder = (*ArrayPartialDecoderCache)(nil)

// BytesPartialDecoderCache is the fallback for codecs that cannot serve
// byte-range reads without materializing the whole encoded
// representation: it fetches the full byte slice once, then slices the
// cached buffer for every subsequent range request.
type BytesPartialDecoderCache struct {
	fetch func(ctx context.Context) ([]byte, error)

	mu      sync.Mutex
	buf     []byte
	fetched bool
}

// NewBytesPartialDecoderCache wraps fetch, which must return the full
// encoded byte representation.
func NewBytesPartialDecoderCache(fetch func(ctx context.Context) ([]byte, error)) *BytesPartialDecoderCache {
	return &BytesPartialDecoderCache{fetch: fetch}
}

func (c *BytesPartialDecoderCache) ensure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetched {
		return nil
	}
	buf, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("codec: bytes partial decoder cache: fetch: %w", err)
	}
	c.buf = buf
	c.fetched = true
	return nil
}

func (c *BytesPartialDecoderCache) PartialDecode(ctx context.Context, ranges []ByteRangeRequest, opts Options) ([][]byte, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	buf := c.buf
	c.mu.Unlock()
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := rangeBounds(r, uint64(len(buf)))
		if err != nil {
			return nil, fmt.Errorf("codec: bytes partial decoder cache: %w", err)
		}
		out[i] = buf[start:end]
	}
	return out, nil
}

var _ BytesPartialDecoder = (*BytesPartialDecoderCache)(nil)

// ArrayToArrayPartialDecoderCache is the generic fallback for an
// array→array codec whose PartialDecoder cannot safely transform an
// arbitrary region request into a single rectangular request in its
// encoded coordinate space (reshape, in general): it decodes the full
// encoded representation once via the upstream handle, runs the codec's
// own whole-chunk Decode, and serves every subsequent ArraySubset
// request from the cached result.
type ArrayToArrayPartialDecoderCache struct {
	codec       ArrayToArrayCodec
	input       ArrayPartialDecoder
	decodedRepr Representation
	encodedRepr Representation

	mu      sync.Mutex
	decoded arraybytes.ArrayBytes
	have    bool
}

// NewArrayToArrayPartialDecoderCache wraps input, the upstream handle
// expressed in the codec's encoded coordinate space.
func NewArrayToArrayPartialDecoderCache(c ArrayToArrayCodec, input ArrayPartialDecoder, decodedRepr, encodedRepr Representation) *ArrayToArrayPartialDecoderCache {
	return &ArrayToArrayPartialDecoderCache{codec: c, input: input, decodedRepr: decodedRepr, encodedRepr: encodedRepr}
}

func (c *ArrayToArrayPartialDecoderCache) ensure(ctx context.Context, opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.have {
		return nil
	}
	full := indexer.ArraySubset{Start: make([]int, len(c.encodedRepr.Shape)), Shape: c.encodedRepr.Shape}
	fetched, err := c.input.PartialDecode(ctx, []indexer.ArraySubset{full}, opts)
	if err != nil {
		return fmt.Errorf("codec: array-to-array partial decoder cache: fetch: %w", err)
	}
	decoded, err := c.codec.Decode(ctx, fetched[0], c.decodedRepr, opts)
	if err != nil {
		return fmt.Errorf("codec: array-to-array partial decoder cache: decode: %w", err)
	}
	c.decoded = decoded
	c.have = true
	return nil
}

func (c *ArrayToArrayPartialDecoderCache) PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts Options) ([]arraybytes.ArrayBytes, error) {
	if err := c.ensure(ctx, opts); err != nil {
		return nil, err
	}
	c.mu.Lock()
	decoded := c.decoded
	c.mu.Unlock()
	out := make([]arraybytes.ArrayBytes, len(subsets))
	for i, s := range subsets {
		flat := indexer.FlattenSubset(c.decodedRepr.Shape, s)
		ab, err := arraybytes.ExtractIndices(decoded, flat)
		if err != nil {
			return nil, fmt.Errorf("codec: array-to-array partial decoder cache: extract: %w", err)
		}
		out[i] = ab
	}
	return out, nil
}

var _ ArrayPartialDecoder = (*ArrayToArrayPartialDecoderCache)(nil)

// ArrayToArrayPartialEncoderFallback is the write-side counterpart: it
// merges each write into the shared decoder cache's buffer, then
// re-encodes the whole chunk and writes it back as a single request.
type ArrayToArrayPartialEncoderFallback struct {
	codec       ArrayToArrayCodec
	cache       *ArrayToArrayPartialDecoderCache
	output      ArrayPartialEncoder
	decodedRepr Representation
	encodedRepr Representation
}

// NewArrayToArrayPartialEncoderFallback wraps output, sharing cache with
// this codec's PartialDecoder so a read-then-write sees consistent data.
func NewArrayToArrayPartialEncoderFallback(c ArrayToArrayCodec, cache *ArrayToArrayPartialDecoderCache, output ArrayPartialEncoder, decodedRepr, encodedRepr Representation) *ArrayToArrayPartialEncoderFallback {
	return &ArrayToArrayPartialEncoderFallback{codec: c, cache: cache, output: output, decodedRepr: decodedRepr, encodedRepr: encodedRepr}
}

func (e *ArrayToArrayPartialEncoderFallback) PartialEncode(ctx context.Context, writes []ArraySubsetWrite, opts Options) error {
	if err := e.cache.ensure(ctx, opts); err != nil {
		return err
	}
	e.cache.mu.Lock()
	for _, w := range writes {
		indices := indexer.FlattenSubset(e.decodedRepr.Shape, w.Subset)
		if err := arraybytes.Overwrite(e.cache.decoded, indices, w.Data); err != nil {
			e.cache.mu.Unlock()
			return fmt.Errorf("codec: array-to-array partial encoder fallback: merge: %w", err)
		}
	}
	decoded := e.cache.decoded
	e.cache.mu.Unlock()

	encoded, err := e.codec.Encode(ctx, decoded, e.decodedRepr, opts)
	if err != nil {
		return fmt.Errorf("codec: array-to-array partial encoder fallback: encode: %w", err)
	}
	full := indexer.ArraySubset{Start: make([]int, len(e.encodedRepr.Shape)), Shape: e.encodedRepr.Shape}
	return e.output.PartialEncode(ctx, []ArraySubsetWrite{{Subset: full, Data: encoded}}, opts)
}

var _ ArrayPartialEncoder = (*ArrayToArrayPartialEncoderFallback)(nil)

func rangeBounds(r ByteRangeRequest, totalLen uint64) (uint64, uint64, error) {
	if r.Suffix {
		length := uint64(0)
		if r.Length != nil {
			length = *r.Length
		}
		if length > totalLen {
			return 0, 0, fmt.Errorf("%w: suffix length %d exceeds total length %d", ErrInvalidBytesLength, length, totalLen)
		}
		return totalLen - length, totalLen, nil
	}
	start := r.Offset
	end := totalLen
	if r.Length != nil {
		end = start + *r.Length
	}
	if start > totalLen || end > totalLen || start > end {
		return 0, 0, fmt.Errorf("%w: range [%d,%d) out of bounds for length %d", ErrInvalidBytesLength, start, end, totalLen)
	}
	return start, end, nil
}
