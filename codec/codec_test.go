package codec_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
)

func fixedInt32(t *testing.T, vals []int32) *arraybytes.Fixed {
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

func TestBytesCodec_RoundTripLittleEndian(t *testing.T) {
	ctx := context.Background()
	ab := fixedInt32(t, []int32{1, 2, 3, 4})
	repr := codec.Representation{Shape: []int{4}, DataType: datatype.Int32()}

	bc := &codec.BytesCodec{Endian: codec.LittleEndian}
	encoded, err := bc.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, encoded)

	decoded, err := bc.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

func TestBytesCodec_RoundTripBigEndian(t *testing.T) {
	ctx := context.Background()
	ab := fixedInt32(t, []int32{1, 2, 3})
	repr := codec.Representation{Shape: []int{3}, DataType: datatype.Int32()}

	bc := &codec.BytesCodec{Endian: codec.BigEndian}
	encoded, err := bc.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)
	require.NotEqual(t, ab.Data, encoded)

	decoded, err := bc.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

func TestGzip_RoundTrip(t *testing.T) {
	ctx := context.Background()
	g := codec.NewGzip(0)
	data := []byte("hello hello hello hello hello")
	encoded, err := g.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	decoded, err := g.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestCrc32c_RoundTripAndValidation(t *testing.T) {
	ctx := context.Background()
	c := &codec.Crc32c{Location: codec.ChecksumSuffix, ValidateChecksums: true}
	data := []byte("payload bytes")
	encoded, err := c.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	decoded, err := c.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)

	corrupted := append([]byte{}, encoded...)
	corrupted[0] ^= 0xFF
	_, err = c.Decode(ctx, corrupted, codec.Options{})
	require.ErrorIs(t, err, codec.ErrInvalidChecksum)
}

func TestXxh3_RoundTripAndValidation(t *testing.T) {
	ctx := context.Background()
	x := &codec.Xxh3{ValidateChecksums: true}
	data := []byte("another payload")
	encoded, err := x.Encode(ctx, data, codec.Options{})
	require.NoError(t, err)
	decoded, err := x.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestShuffle_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := codec.NewShuffle(4)
	require.NoError(t, err)
	ab := fixedInt32(t, []int32{10, 20, 30, 40})
	shuffled, err := s.Encode(ctx, ab.Data, codec.Options{})
	require.NoError(t, err)
	require.NotEqual(t, ab.Data, shuffled)
	unshuffled, err := s.Decode(ctx, shuffled, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, unshuffled)
}

func TestPackBits_RoundTrip(t *testing.T) {
	ctx := context.Background()
	p := &codec.PackBits{}
	bits := []byte{1, 0, 1, 1, 0, 0, 1, 0, 1}
	packed, err := p.Encode(ctx, bits, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, 2, len(packed))
	unpacked, err := p.Decode(ctx, packed, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, bits, unpacked[:len(bits)])
}

func TestBitround_ZeroesLowMantissaBits(t *testing.T) {
	ctx := context.Background()
	br, err := codec.NewBitround(10)
	require.NoError(t, err)
	ab := fixedInt32(t, []int32{0x3F800001}) // 1.0 plus one low mantissa bit
	repr := codec.Representation{Shape: []int{1}, DataType: datatype.Float32()}
	rounded, err := br.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)
	fixed := rounded.(*arraybytes.Fixed)
	require.NotEqual(t, ab.Data, fixed.Data)
}

func TestChain_EncodeDecodeRoundTrip(t *testing.T) {
	ctx := context.Background()
	ab := fixedInt32(t, []int32{1, 2, 3, 4, 5, 6})
	repr := codec.Representation{Shape: []int{6}, DataType: datatype.Int32()}

	chain, err := codec.NewChain(
		nil,
		&codec.BytesCodec{Endian: codec.LittleEndian},
		[]codec.BytesToBytesCodec{codec.NewGzip(0), &codec.Crc32c{ValidateChecksums: true}},
	)
	require.NoError(t, err)

	encoded, err := chain.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)

	decoded, err := chain.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

func TestVlenV2_RoundTrip(t *testing.T) {
	ctx := context.Background()
	v := &codec.VlenV2{}
	ab, err := arraybytes.NewVariable([]byte("foobarbaz"), []int{0, 3, 6, 9})
	require.NoError(t, err)
	repr := codec.Representation{Shape: []int{3}, DataType: datatype.String()}

	encoded, err := v.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)

	decoded, err := v.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	variable := decoded.(*arraybytes.Variable)
	require.Equal(t, ab.Data, variable.Data)
	require.Equal(t, ab.Offsets, variable.Offsets)
}

func TestVlenV2_WireLayout(t *testing.T) {
	ctx := context.Background()
	v := &codec.VlenV2{}
	ab, err := arraybytes.FromElements(datatype.String(), []string{"a", "", "longer"})
	require.NoError(t, err)
	repr := codec.Representation{Shape: []int{3}, DataType: datatype.String()}

	encoded, err := v.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)

	// [num_elements:u32 LE | (len:u32 LE | bytes)*]
	require.Equal(t, uint32(3), binary.LittleEndian.Uint32(encoded[0:4]))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(encoded[4:8]))
	require.Equal(t, byte('a'), encoded[8])
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(encoded[9:13]))
	require.Equal(t, uint32(6), binary.LittleEndian.Uint32(encoded[13:17]))
	require.Equal(t, []byte("longer"), encoded[17:23])
	require.Len(t, encoded, 23)
}
