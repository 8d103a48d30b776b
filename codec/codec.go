// Package codec implements the codec pipeline extension point (spec.md
// §4.3): chained array→array, exactly one array→bytes, then chained
// bytes→bytes transforms, plus the partial decode/encode protocol that
// lets region requests be served without materializing a whole chunk.
//
// This generalizes the teacher's single hardcoded compressor switch
// (reader.go's `switch r.meta.Compressor.ID { case "blosc": ... case
// "zlib", "gzip": ... }`) into a pluggable, ordered chain.
package codec

import (
	"context"
	"errors"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/concurrency"
	"github.com/tuskan/zarrcore/datatype"
	"github.com/tuskan/zarrcore/indexer"
)

// ErrUnsupportedDataType, ErrInvalidBytesLength, ErrInvalidArraySubset,
// ErrInvalidChecksum classify CodecError per spec.md §7; errors outside
// these classes are returned wrapped as they arise, with no sentinel of
// their own. ErrUnsupported covers an operation a codec cannot
// perform at all, chiefly partial encode on a codec without
// CapPartialEncode.
var (
	ErrUnsupportedDataType = errors.New("codec: unsupported data type")
	ErrInvalidBytesLength  = errors.New("codec: invalid bytes length")
	ErrInvalidArraySubset  = errors.New("codec: invalid array subset")
	ErrInvalidChecksum     = errors.New("codec: invalid checksum")
	ErrUnsupported         = errors.New("codec: unsupported operation")
)

// Capability is a small enum surfaced by every codec describing whether
// it can serve partial reads, partial decodes, or partial encodes
// without falling back to whole-chunk materialization (spec.md §9).
type Capability int

const (
	CapNone Capability = 0
	// CapPartialRead means the codec's byte representation can be
	// fetched in byte ranges without decoding the whole chunk (relevant
	// to array→bytes and bytes→bytes codecs sitting over a store that
	// supports GetPartial).
	CapPartialRead Capability = 1 << iota
	// CapPartialDecode means the codec can decode a sub-region of its
	// input without decoding the whole thing.
	CapPartialDecode
	// CapPartialEncode means the codec can encode a sub-region update
	// into its output without re-encoding the whole thing (read-modify-
	// write at the codec level, not falling back to whole-chunk).
	CapPartialEncode
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

// Representation describes the typed shape flowing between two stages
// of a codec chain: element count (via Shape), and the data type. Array
// codecs may change Shape (transpose/reshape/squeeze) or DataType
// (bitround does not, but a hypothetical quantizing codec could).
type Representation struct {
	Shape    []int
	DataType datatype.DataType
	// FillValue is the data-type-encoded fill value of the elements,
	// carried so codecs that synthesise missing regions (sharding's
	// empty-inner-chunk sentinel) produce fill-valued elements rather
	// than zero bytes. Nil means "all-zero bytes" for fixed types.
	FillValue []byte
}

// Options threads the two-level concurrency budget (spec.md §5) and any
// other per-call tuning through a codec invocation.
type Options struct {
	ConcurrentTarget int
}

// ArrayToArrayCodec transforms an ArrayBytes buffer without leaving the
// typed domain: transpose, reshape, squeeze, bitround.
type ArrayToArrayCodec interface {
	Identifier() string
	Capabilities() Capability
	// EncodedRepresentation computes the representation this codec
	// produces for a given decoded (input) representation, e.g.
	// transpose permutes Shape.
	EncodedRepresentation(decoded Representation) (Representation, error)
	Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error)
	Decode(ctx context.Context, encoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error)
	// PartialDecoder builds a handle layered on an input ArraySubset
	// source expressed in this codec's encoded coordinate space, serving
	// requests expressed in its decoded coordinate space. A codec whose
	// subset mapping isn't always a single rectangular region in the
	// encoded space (reshape, in general) falls back to decoding the
	// whole chunk once via ArrayToArrayPartialDecoderCache.
	PartialDecoder(input ArrayPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error)
	PartialEncoder(input ArrayPartialDecoder, output ArrayPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error)
	// RecommendedConcurrency reports the {min,max} inner-parallelism this
	// codec can usefully absorb for a chunk of the given decoded
	// representation (spec.md §5), feeding concurrency.Compute.
	RecommendedConcurrency(decodedRepr Representation) concurrency.Range
}

// ArrayToBytesCodec is the single required stage converting a typed
// element buffer to a raw byte stream: `bytes` (endian), `sharding`,
// `vlen_v2`, `optional`.
type ArrayToBytesCodec interface {
	Identifier() string
	Capabilities() Capability
	Encode(ctx context.Context, decoded arraybytes.ArrayBytes, decodedRepr Representation, opts Options) ([]byte, error)
	Decode(ctx context.Context, encoded []byte, decodedRepr Representation, opts Options) (arraybytes.ArrayBytes, error)
	// PartialDecoder builds a pipeline-aware handle layered on an input
	// byte-range source, serving ArraySubset requests without full
	// decode when Capabilities().Has(CapPartialDecode); otherwise the
	// generic ArrayPartialDecoderCache fallback applies.
	PartialDecoder(input BytesPartialDecoder, decodedRepr Representation, opts Options) (ArrayPartialDecoder, error)
	PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, decodedRepr Representation, opts Options) (ArrayPartialEncoder, error)
	RecommendedConcurrency(decodedRepr Representation) concurrency.Range
}

// BytesToBytesCodec transforms the byte stream: compression, checksums,
// shuffle, packbits.
type BytesToBytesCodec interface {
	Identifier() string
	Capabilities() Capability
	Encode(ctx context.Context, decoded []byte, opts Options) ([]byte, error)
	Decode(ctx context.Context, encoded []byte, opts Options) ([]byte, error)
	PartialDecoder(input BytesPartialDecoder, opts Options) (BytesPartialDecoder, error)
	PartialEncoder(input BytesPartialDecoder, output BytesPartialEncoder, opts Options) (BytesPartialEncoder, error)
	RecommendedConcurrency() concurrency.Range
	// EncodedSize reports how this codec's output length relates to a
	// given input length (spec.md §4.3), feeding the sharding index-size
	// computation without an empirical trial encode.
	EncodedSize(decodedSize int) EncodedSize
}

// BytesPartialDecoder serves byte-range reads of an encoded
// representation without materializing the whole thing, when the
// underlying codec/store supports it.
type BytesPartialDecoder interface {
	PartialDecode(ctx context.Context, ranges []ByteRangeRequest, opts Options) ([][]byte, error)
}

// BytesPartialEncoder serves byte-range writes.
type BytesPartialEncoder interface {
	PartialEncode(ctx context.Context, writes []ByteRangeWrite, opts Options) error
}

// ArrayPartialDecoder serves ArraySubset reads against a typed
// representation without full chunk decode.
type ArrayPartialDecoder interface {
	PartialDecode(ctx context.Context, subsets []indexer.ArraySubset, opts Options) ([]arraybytes.ArrayBytes, error)
}

// ArrayPartialEncoder serves ArraySubset writes.
type ArrayPartialEncoder interface {
	PartialEncode(ctx context.Context, writes []ArraySubsetWrite, opts Options) error
}

// ByteRangeRequest asks for a single byte range, either from-start
// (Offset, Length) or suffix (last Length bytes); nil Length means
// "to the end".
type ByteRangeRequest struct {
	Offset uint64
	Length *uint64
	Suffix bool
}

// ByteRangeWrite is a single byte-range overwrite.
type ByteRangeWrite struct {
	Offset uint64
	Data   []byte
}

// ArraySubsetWrite is a single ArraySubset overwrite against a typed
// representation.
type ArraySubsetWrite struct {
	Subset indexer.ArraySubset
	Data   arraybytes.ArrayBytes
}

// EncodedSizeKind classifies how a bytes→bytes codec's output length
// relates to its input length.
type EncodedSizeKind int

const (
	// SizeFixed means the output length is an exact function of the
	// input length (e.g. crc32c always appends 4 bytes).
	SizeFixed EncodedSizeKind = iota
	// SizeBounded means the output length is known only as an upper
	// bound.
	SizeBounded
	// SizeUnbounded means the output length cannot be predicted from the
	// input length (general-purpose compressors: ratio is data-dependent).
	SizeUnbounded
)

// EncodedSize is a bytes→bytes codec's answer for a given decoded size.
type EncodedSize struct {
	Kind EncodedSizeKind
	Size int
}
