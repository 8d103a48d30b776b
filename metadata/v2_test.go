package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/metadata"
)

func TestParseDType_LittleEndianInt32(t *testing.T) {
	name, size, bigEndian, err := metadata.ParseDType("<i4")
	require.NoError(t, err)
	require.Equal(t, "int32", name)
	require.Equal(t, 4, size)
	require.False(t, bigEndian)
}

func TestParseDType_BigEndianFloat64(t *testing.T) {
	name, size, bigEndian, err := metadata.ParseDType(">f8")
	require.NoError(t, err)
	require.Equal(t, "float64", name)
	require.Equal(t, 8, size)
	require.True(t, bigEndian)
}

func TestParseDType_Bool(t *testing.T) {
	name, size, _, err := metadata.ParseDType("|b1")
	require.NoError(t, err)
	require.Equal(t, "bool", name)
	require.Equal(t, 1, size)
}

func TestParseDType_RejectsUnknownKind(t *testing.T) {
	_, _, _, err := metadata.ParseDType("<x4")
	require.Error(t, err)
}

func TestArrayMetadataV2_ResolveWithoutCompressor(t *testing.T) {
	m := &metadata.ArrayMetadataV2{
		ZarrFormat: 2,
		Shape:      []int{4, 4},
		Chunks:     []int{2, 2},
		DType:      "<i4",
		FillValue:  float64(0),
		Order:      "C",
	}
	resolved, err := m.Resolve()
	require.NoError(t, err)
	require.Equal(t, "int32", resolved.DataType.Identifier())
	require.Equal(t, "regular", resolved.ChunkGrid.Identifier())
	require.Equal(t, "v2", resolved.ChunkKeyEncoding.Identifier())
}

func TestArrayMetadataV2_ResolveWithBloscCompressor(t *testing.T) {
	m := &metadata.ArrayMetadataV2{
		ZarrFormat: 2,
		Shape:      []int{8},
		Chunks:     []int{4},
		DType:      "<f8",
		FillValue:  float64(0),
		Compressor: &metadata.CompressorConfigV2{ID: "blosc", Cname: "zstd", Clevel: 5, Shuffle: 1},
	}
	resolved, err := m.Resolve()
	require.NoError(t, err)
	require.NotNil(t, resolved.Codecs)
}

func TestArrayMetadataV2_RejectsWrongFormat(t *testing.T) {
	m := &metadata.ArrayMetadataV2{ZarrFormat: 3}
	_, err := m.Resolve()
	require.Error(t, err)
}
