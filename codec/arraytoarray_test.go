package codec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
)

func TestTranspose_RoundTrip(t *testing.T) {
	ctx := context.Background()
	// 2x3 chunk, C-order: row-major [[0,1,2],[3,4,5]]
	ab := fixedInt32(t, []int32{0, 1, 2, 3, 4, 5})
	repr := codec.Representation{Shape: []int{2, 3}, DataType: datatype.Int32()}

	tr, err := codec.NewTranspose([]int{1, 0})
	require.NoError(t, err)

	encRepr, err := tr.EncodedRepresentation(repr)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, encRepr.Shape)

	encoded, err := tr.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)
	// transposed: [[0,3],[1,4],[2,5]]
	require.Equal(t, []int32{0, 3, 1, 4, 2, 5}, int32sFromFixed(t, encoded.(*arraybytes.Fixed)))

	decoded, err := tr.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

func int32sFromFixed(t *testing.T, f *arraybytes.Fixed) []int32 {
	t.Helper()
	n := len(f.Data) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(f.Data[i*4]) | int32(f.Data[i*4+1])<<8 | int32(f.Data[i*4+2])<<16 | int32(f.Data[i*4+3])<<24
	}
	return out
}

func TestReshape_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ab := fixedInt32(t, []int32{1, 2, 3, 4, 5, 6})
	repr := codec.Representation{Shape: []int{2, 3}, DataType: datatype.Int32()}

	rs, err := codec.NewReshape([]int{3, 2})
	require.NoError(t, err)

	encRepr, err := rs.EncodedRepresentation(repr)
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, encRepr.Shape)

	encoded, err := rs.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, encoded.(*arraybytes.Fixed).Data)

	decoded, err := rs.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}

func TestReshape_RejectsMismatchedElementCount(t *testing.T) {
	rs, err := codec.NewReshape([]int{4, 2})
	require.NoError(t, err)
	repr := codec.Representation{Shape: []int{2, 3}, DataType: datatype.Int32()}
	_, err = rs.EncodedRepresentation(repr)
	require.Error(t, err)
}

func TestSqueeze_DropsUnitDimensions(t *testing.T) {
	ctx := context.Background()
	ab := fixedInt32(t, []int32{1, 2, 3, 4})
	repr := codec.Representation{Shape: []int{4, 1}, DataType: datatype.Int32()}

	sq := &codec.Squeeze{}
	encRepr, err := sq.EncodedRepresentation(repr)
	require.NoError(t, err)
	require.Equal(t, []int{4}, encRepr.Shape)

	encoded, err := sq.Encode(ctx, ab, repr, codec.Options{})
	require.NoError(t, err)
	decoded, err := sq.Decode(ctx, encoded, repr, codec.Options{})
	require.NoError(t, err)
	require.Equal(t, ab.Data, decoded.(*arraybytes.Fixed).Data)
}
