package metadata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tuskan/zarrcore/chunkgrid"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
	"github.com/tuskan/zarrcore/keyencoding"
	"github.com/tuskan/zarrcore/storage"
)

// CompressorConfigV2 is the V2 `.zarray` compressor field, a direct
// generalization of the teacher's `CompressorConfig` (zarr/metadata.go)
// kept byte-for-byte field-compatible for V2-interop reads/writes.
type CompressorConfigV2 struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// ArrayMetadataV2 is the on-disk `.zarray` document (Zarr V2), kept for
// interop alongside the V3-native ArrayMetadataV3 the rest of this
// module writes by default.
type ArrayMetadataV2 struct {
	ZarrFormat int                 `json:"zarr_format"`
	Shape      []int               `json:"shape"`
	Chunks     []int               `json:"chunks"`
	DType      string              `json:"dtype"`
	Compressor *CompressorConfigV2 `json:"compressor"`
	FillValue  any                 `json:"fill_value"`
	Order      string              `json:"order"`
}

// GroupMetadataV2 is the on-disk `.zgroup` document (Zarr V2).
type GroupMetadataV2 struct {
	ZarrFormat int `json:"zarr_format"`
}

// ParseDType parses a NumPy-style dtype string ("<f4", "|b1", ">i8",
// "<u2") into the Zarr V3 data-type identifier name ("float32", "bool",
// "int64", "uint16") that datatype.LookupName understands, and the
// per-element byte size. This generalizes the teacher's `ParseDType`
// (zarr/metadata.go), which rejected big-endian ('>') types outright;
// here big-endian is accepted and reported so callers can wire a `bytes`
// codec configured with the matching endianness instead of failing.
func ParseDType(s string) (name string, size int, bigEndian bool, err error) {
	if len(s) < 3 {
		return "", 0, false, fmt.Errorf("metadata: invalid dtype: %s", s)
	}
	endian := s[0]
	bigEndian = endian == '>'
	kind := s[1]
	sizeStr := s[2:]

	size, err = strconv.Atoi(sizeStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("metadata: invalid size in dtype: %s", s)
	}

	switch kind {
	case 'b':
		return "bool", size, bigEndian, nil
	case 'i':
		return fmt.Sprintf("int%d", size*8), size, bigEndian, nil
	case 'u':
		return fmt.Sprintf("uint%d", size*8), size, bigEndian, nil
	case 'f':
		return fmt.Sprintf("float%d", size*8), size, bigEndian, nil
	case 'c':
		return fmt.Sprintf("complex%d", size*8), size, bigEndian, nil
	default:
		return "", 0, false, fmt.Errorf("metadata: unsupported dtype kind: %c in %s", kind, s)
	}
}

// Resolve converts a V2 `.zarray` document into the same ResolvedArray
// shape ArrayMetadataV3.Resolve produces, so the array package can treat
// V2 and V3 nodes identically once loaded. The V2 chunk grid is always
// Regular (V2 has no ragged-grid concept); the key encoding is always
// `v2`; the codec chain is `bytes` (with the dtype's endianness) plus,
// if a compressor is configured, one bytes->bytes codec resolved by the
// compressor id (the teacher's `reader.go` switch on `Compressor.ID`,
// generalized to the codec registry instead of a hardcoded switch).
func (m *ArrayMetadataV2) Resolve() (*ResolvedArray, error) {
	if m.ZarrFormat != 2 {
		return nil, fmt.Errorf("metadata: unsupported zarr_format %d, expected 2", m.ZarrFormat)
	}
	name, _, bigEndian, err := ParseDType(m.DType)
	if err != nil {
		return nil, err
	}
	dt, err := datatype.LookupName(name)
	if err != nil {
		return nil, fmt.Errorf("metadata: dtype %q: %w", m.DType, err)
	}
	grid, err := chunkgrid.NewRegular(m.Chunks)
	if err != nil {
		return nil, err
	}
	keyEnc, err := keyencoding.NewV2(".")
	if err != nil {
		return nil, err
	}
	fillValue, err := dt.ParseFillValue(m.FillValue)
	if err != nil {
		return nil, fmt.Errorf("metadata: fill_value: %w", err)
	}

	endian := "little"
	if bigEndian {
		endian = "big"
	}
	configs := []codec.Configuration{{Name: "bytes", Configuration: mustMarshal(map[string]any{"endian": endian})}}
	if m.Compressor != nil {
		configs = append(configs, compressorToConfig(m.Compressor))
	}
	chain, err := codec.BuildChain(configs, nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: codecs: %w", err)
	}

	return &ResolvedArray{
		Shape:            m.Shape,
		DataType:         dt,
		ChunkGrid:        grid,
		ChunkKeyEncoding: keyEnc,
		FillValue:        fillValue,
		Codecs:           chain,
	}, nil
}

// compressorToConfig maps a V2 numcodecs compressor id onto the
// matching bytes->bytes codec name this module's registry knows.
func compressorToConfig(c *CompressorConfigV2) codec.Configuration {
	switch c.ID {
	case "blosc":
		return codec.Configuration{Name: "blosc", Configuration: mustMarshal(map[string]any{
			"cname": c.Cname, "clevel": c.Clevel, "shuffle": c.Shuffle,
		})}
	case "zstd":
		return codec.Configuration{Name: "zstd", Configuration: mustMarshal(map[string]any{"level": c.Clevel})}
	case "gzip", "zlib":
		return codec.Configuration{Name: "gzip", Configuration: mustMarshal(map[string]any{"level": c.Clevel})}
	default:
		return codec.Configuration{Name: c.ID}
	}
}

func mustMarshal(v any) []byte {
	data, err := json_.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// LoadArrayV2 fetches and parses the .zarray document at nodePath.
func LoadArrayV2(ctx context.Context, store storage.Store, nodePath string) (*ArrayMetadataV2, error) {
	data, ok, err := store.Get(ctx, V2ArrayMetadataKey(nodePath))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("metadata: no array metadata at %q", nodePath)
	}
	var m ArrayMetadataV2
	if err := json_.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata: invalid .zarray: %w", err)
	}
	return &m, nil
}

// LoadGroupV2 fetches and parses the .zgroup document at nodePath.
func LoadGroupV2(ctx context.Context, store storage.Store, nodePath string) (*GroupMetadataV2, error) {
	data, ok, err := store.Get(ctx, V2GroupMetadataKey(nodePath))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("metadata: no group metadata at %q", nodePath)
	}
	var m GroupMetadataV2
	if err := json_.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata: invalid .zgroup: %w", err)
	}
	return &m, nil
}
