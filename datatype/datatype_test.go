package datatype_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuskan/zarrcore/datatype"
)

func TestInt_FillValueRoundTrip(t *testing.T) {
	dt := datatype.Uint16()
	buf, err := dt.ParseFillValue(float64(513))
	require.NoError(t, err)
	require.Len(t, buf, 2)

	back, err := dt.FormatFillValue(buf)
	require.NoError(t, err)
	require.Equal(t, float64(513), back)
}

func TestFloat_FillValueSpecialTokens(t *testing.T) {
	dt := datatype.Float32()

	for _, tc := range []struct {
		in   any
		want any
	}{
		{"NaN", "NaN"},
		{"Infinity", "Infinity"},
		{"-Infinity", "-Infinity"},
		{float64(1.5), float64(1.5)},
	} {
		buf, err := dt.ParseFillValue(tc.in)
		require.NoError(t, err)
		got, err := dt.FormatFillValue(buf)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestComplex_FillValueRoundTrip(t *testing.T) {
	dt := datatype.Complex64()
	buf, err := dt.ParseFillValue([]any{float64(1), float64(-2)})
	require.NoError(t, err)
	require.Len(t, buf, 8)

	back, err := dt.FormatFillValue(buf)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(-2)}, back)
}

func TestRawBits_FillValueRoundTrip(t *testing.T) {
	dt := datatype.RawBits(24)
	require.Equal(t, 3, dt.FixedSize())
	buf, err := dt.ParseFillValue([]any{float64(1), float64(2), float64(3)})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, buf)
}

func TestOptional_DelegatesToInner(t *testing.T) {
	dt := datatype.Optional(datatype.Uint8())
	require.Equal(t, "optional<uint8>", dt.Identifier())
	require.Equal(t, 1, dt.FixedSize())

	nullable, ok := dt.(datatype.Nullable)
	require.True(t, ok)
	require.Equal(t, "uint8", nullable.Inner().Identifier())
}

func TestLookupName(t *testing.T) {
	dt, err := datatype.LookupName("float64")
	require.NoError(t, err)
	require.Equal(t, "float64", dt.Identifier())

	dt, err = datatype.LookupName("r32")
	require.NoError(t, err)
	require.Equal(t, 4, dt.FixedSize())

	dt, err = datatype.LookupName("optional<int32>")
	require.NoError(t, err)
	require.Equal(t, "optional<int32>", dt.Identifier())

	_, err = datatype.LookupName("nonexistent")
	require.Error(t, err)
}
