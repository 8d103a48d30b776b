package sharding

import (
	"fmt"

	"github.com/tuskan/zarrcore/codec"
)

// Builder mirrors the array.Builder pattern for the sharding codec's own
// inner codec chain and inner chunk shape (grounded on zarrs'
// sharding_codec_builder.rs per SPEC_FULL §4.11).
type Builder struct {
	innerChunkShape []int
	innerChain      *codec.Chain
	indexChain      *codec.Chain
	indexLocation   IndexLocation
}

// NewBuilder starts a sharding codec builder for the given inner chunk
// shape.
func NewBuilder(innerChunkShape []int) *Builder {
	return &Builder{innerChunkShape: innerChunkShape, indexLocation: IndexEnd}
}

func (b *Builder) WithInnerChain(chain *codec.Chain) *Builder {
	b.innerChain = chain
	return b
}

func (b *Builder) WithIndexChain(chain *codec.Chain) *Builder {
	b.indexChain = chain
	return b
}

func (b *Builder) WithIndexLocation(loc IndexLocation) *Builder {
	b.indexLocation = loc
	return b
}

// Build validates required fields and constructs the Codec.
func (b *Builder) Build() (*Codec, error) {
	if len(b.innerChunkShape) == 0 {
		return nil, fmt.Errorf("sharding: builder requires a non-empty inner chunk shape")
	}
	if b.innerChain == nil {
		return nil, fmt.Errorf("sharding: builder requires an inner codec chain")
	}
	indexChain := b.indexChain
	if indexChain == nil {
		// spec.md §4.3.1's recommended default: bytes + crc32c.
		var err error
		indexChain, err = codec.NewChain(nil, &codec.BytesCodec{Endian: codec.LittleEndian}, []codec.BytesToBytesCodec{&codec.Crc32c{ValidateChecksums: true}})
		if err != nil {
			return nil, err
		}
	}
	return &Codec{
		InnerChunkShape: b.innerChunkShape,
		InnerChain:      b.innerChain,
		IndexChain:      indexChain,
		IndexLocation:   b.indexLocation,
	}, nil
}
