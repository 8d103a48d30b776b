package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/metadata"
)

const sampleArrayV3 = `{
  "zarr_format": 3,
  "node_type": "array",
  "shape": [4, 4],
  "data_type": "int32",
  "chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [2, 2]}},
  "chunk_key_encoding": {"name": "default", "configuration": {"separator": "/"}},
  "fill_value": 0,
  "codecs": [
    {"name": "bytes", "configuration": {"endian": "little"}},
    {"name": "gzip", "configuration": {"level": 5}}
  ],
  "attributes": {"units": "meters"}
}`

func TestParseArrayMetadataV3_ResolvesExtensions(t *testing.T) {
	m, err := metadata.ParseArrayMetadataV3([]byte(sampleArrayV3))
	require.NoError(t, err)
	require.Equal(t, []int{4, 4}, m.Shape)

	resolved, err := m.Resolve(nil)
	require.NoError(t, err)
	require.Equal(t, "int32", resolved.DataType.Identifier())
	require.Equal(t, "regular", resolved.ChunkGrid.Identifier())
	require.Equal(t, "default", resolved.ChunkKeyEncoding.Identifier())
	require.Equal(t, []byte{0, 0, 0, 0}, resolved.FillValue)
	require.Equal(t, "meters", resolved.Attributes["units"])
}

func TestParseArrayMetadataV3_RejectsWrongFormat(t *testing.T) {
	_, err := metadata.ParseArrayMetadataV3([]byte(`{"zarr_format": 2, "node_type": "array"}`))
	require.Error(t, err)
}

func TestParseArrayMetadataV3_RejectsGroupNodeType(t *testing.T) {
	_, err := metadata.ParseArrayMetadataV3([]byte(`{"zarr_format": 3, "node_type": "group"}`))
	require.Error(t, err)
}

func TestArrayMetadataV3_MarshalRoundTrip(t *testing.T) {
	m, err := metadata.ParseArrayMetadataV3([]byte(sampleArrayV3))
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)

	reparsed, err := metadata.ParseArrayMetadataV3(data)
	require.NoError(t, err)
	require.Equal(t, m.Shape, reparsed.Shape)
	require.Len(t, reparsed.Codecs, len(m.Codecs))
	for i, c := range m.Codecs {
		require.Equal(t, c.Name, reparsed.Codecs[i].Name)
	}
}

func TestParseGroupMetadataV3(t *testing.T) {
	g, err := metadata.ParseGroupMetadataV3([]byte(`{"zarr_format": 3, "node_type": "group", "attributes": {"k": "v"}}`))
	require.NoError(t, err)
	require.Equal(t, "v", g.Attributes["k"])
}

func TestFromResolved_RendersCanonicalDocument(t *testing.T) {
	m, err := metadata.ParseArrayMetadataV3([]byte(sampleArrayV3))
	require.NoError(t, err)
	resolved, err := m.Resolve(nil)
	require.NoError(t, err)

	rendered, err := metadata.FromResolved(resolved, m.Codecs)
	require.NoError(t, err)
	require.Equal(t, resolved.Shape, rendered.Shape)

	reresolved, err := rendered.Resolve(nil)
	require.NoError(t, err)
	require.Equal(t, resolved.DataType.Identifier(), reresolved.DataType.Identifier())
	require.Equal(t, resolved.FillValue, reresolved.FillValue)
}
