package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
)

func TestOptional_RoundTrip(t *testing.T) {
	ctx := context.Background()
	nullable := datatype.Optional(datatype.Uint8())
	repr := codec.Representation{Shape: []int{4}, DataType: nullable}

	inner, err := arraybytes.NewFixed([]byte{0, 0, 5, 0}, 1)
	require.NoError(t, err)
	mask := []byte{0, 1, 1, 0} // None, Some(None), Some(5), None
	opt, err := arraybytes.NewOptional(inner, mask)
	require.NoError(t, err)

	maskChain, err := codec.NewChain(nil, &codec.BytesCodec{Endian: codec.LittleEndian}, nil)
	require.NoError(t, err)
	dataChain, err := codec.NewChain(nil, &codec.BytesCodec{Endian: codec.LittleEndian}, nil)
	require.NoError(t, err)

	o := &codec.Optional{MaskChain: maskChain, DataChain: dataChain}

	encoded, err := o.Encode(ctx, opt, repr, codec.Options{})
	require.NoError(t, err)

	decoded, err := o.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)

	out := decoded.(*arraybytes.Optional)
	require.Equal(t, mask, out.Mask)
	require.Equal(t, inner.Data, out.Inner.(*arraybytes.Fixed).Data)
	for i := range mask {
		require.Equal(t, mask[i] == 0, out.IsNull(i))
	}
}
