package sharding_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/codec/sharding"
	"github.com/tuskan/zarrcore/datatype"
	"github.com/tuskan/zarrcore/indexer"
)

func int32Fixed(t *testing.T, vals []int32) *arraybytes.Fixed {
	t.Helper()
	buf := make([]byte, len(vals)*4)
	for i, v := range vals {
		buf[i*4] = byte(v)
		buf[i*4+1] = byte(v >> 8)
		buf[i*4+2] = byte(v >> 16)
		buf[i*4+3] = byte(v >> 24)
	}
	fixed, err := arraybytes.NewFixed(buf, 4)
	require.NoError(t, err)
	return fixed
}

func buildShardingCodec(t *testing.T, innerShape []int) *sharding.Codec {
	t.Helper()
	innerChain, err := codec.NewChain(nil, &codec.BytesCodec{Endian: codec.LittleEndian}, nil)
	require.NoError(t, err)
	c, err := sharding.NewBuilder(innerShape).WithInnerChain(innerChain).Build()
	require.NoError(t, err)
	return c
}

func TestSharding_EncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	// shard shape [4,4], inner chunks [2,2]: a 2x2 grid of inner chunks.
	shardShape := []int{4, 4}
	vals := make([]int32, 16)
	for i := range vals {
		vals[i] = int32(i)
	}
	ab := int32Fixed(t, vals)
	repr := codec.Representation{Shape: shardShape, DataType: datatype.Int32()}

	c := buildShardingCodec(t, []int{2, 2})

	encoded, err := c.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)

	decoded, err := c.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

func TestSharding_EmptyInnerChunkSentinel(t *testing.T) {
	ctx := context.Background()
	shardShape := []int{4, 4}
	vals := make([]int32, 16) // all zero => every inner chunk is "fill value"
	ab := int32Fixed(t, vals)
	repr := codec.Representation{Shape: shardShape, DataType: datatype.Int32()}

	c := buildShardingCodec(t, []int{2, 2})
	encoded, err := c.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)

	decoded, err := c.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

// memBytesPartialDecoder is a minimal BytesPartialDecoder backed by an
// in-memory slice, used to exercise sharding's partial-read protocol.
type memBytesPartialDecoder struct {
	buf []byte
}

func (m *memBytesPartialDecoder) PartialDecode(ctx context.Context, ranges []codec.ByteRangeRequest, opts codec.Options) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		var start, end uint64
		if r.Suffix {
			length := uint64(0)
			if r.Length != nil {
				length = *r.Length
			}
			start = uint64(len(m.buf)) - length
			end = uint64(len(m.buf))
		} else {
			start = r.Offset
			end = uint64(len(m.buf))
			if r.Length != nil {
				end = start + *r.Length
			}
		}
		out[i] = m.buf[start:end]
	}
	return out, nil
}

func TestSharding_PartialDecodeServesSubsetWithoutFullDecode(t *testing.T) {
	ctx := context.Background()
	shardShape := []int{4, 4}
	vals := make([]int32, 16)
	for i := range vals {
		vals[i] = int32(i + 1)
	}
	ab := int32Fixed(t, vals)
	repr := codec.Representation{Shape: shardShape, DataType: datatype.Int32()}

	c := buildShardingCodec(t, []int{2, 2})
	encoded, err := c.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)

	input := &memBytesPartialDecoder{buf: encoded}
	decoder, err := c.PartialDecoder(input, repr, codec.Options{})
	require.NoError(t, err)

	subset, err := indexer.New([]int{1, 1}, []int{2, 2})
	require.NoError(t, err)
	results, err := decoder.PartialDecode(ctx, []indexer.ArraySubset{subset}, codec.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	full, err := c.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	fullFixed := full.(*arraybytes.Fixed)

	flat := indexer.FlattenSubset(shardShape, subset)
	want, err := arraybytes.ExtractIndices(fullFixed, flat)
	require.NoError(t, err)
	require.Equal(t, want.(*arraybytes.Fixed).Data, results[0].(*arraybytes.Fixed).Data)
}
