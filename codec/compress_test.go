package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/codec"
)

func TestZstd_RoundTrip(t *testing.T) {
	ctx := context.Background()
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated: the quick brown fox jumps over the lazy dog")

	z := codec.NewZstd(3)
	encoded, err := z.Encode(ctx, payload, codec.Options{})
	require.NoError(t, err)

	decoded, err := z.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestSnappy_RoundTrip(t *testing.T) {
	ctx := context.Background()
	payload := []byte("snappy compressed payloads round-trip exactly")

	s := &codec.Snappy{}
	encoded, err := s.Encode(ctx, payload, codec.Options{})
	require.NoError(t, err)

	decoded, err := s.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}

func TestBlosc_RoundTrip(t *testing.T) {
	ctx := context.Background()
	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i)
	}

	b := codec.NewBlosc("blosclz", 5, 1, 1)
	encoded, err := b.Encode(ctx, payload, codec.Options{})
	require.NoError(t, err)

	decoded, err := b.Decode(ctx, encoded, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, payload, decoded)
}
