// Package metadata implements Zarr node metadata (spec.md §6.1): the
// zarr.json document for V3 arrays and groups, and the .zarray/.zgroup
// documents for V2 interop, plus resolution of a document's extension
// references (data type, chunk grid, chunk key encoding, codec chain)
// into live objects from the other extension-point packages.
//
// JSON marshaling goes through github.com/json-iterator/go configured
// compatible with encoding/json's tag semantics (SPEC_FULL §4.9),
// generalizing the teacher's `encoding/json`-based `LoadMetadata` in
// zarr/metadata.go to a registry-backed resolver instead of a single
// hardcoded struct.
package metadata

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/tuskan/zarrcore/chunkgrid"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/datatype"
	"github.com/tuskan/zarrcore/keyencoding"
)

var json_ = jsoniter.ConfigCompatibleWithStandardLibrary

// CurrentZarrFormat is the Zarr V3 format version this package writes.
const CurrentZarrFormat = 3

// NodeType discriminates an array document from a group document in a
// shared zarr.json shape (spec.md §6.1).
type NodeType string

const (
	NodeTypeArray NodeType = "array"
	NodeTypeGroup NodeType = "group"
)

// ArrayMetadataV3 is the on-disk zarr.json document for an array node.
// Extension-point fields (DataType, ChunkGrid, ChunkKeyEncoding, Codecs)
// are kept as raw JSON here and resolved to live objects by Resolve,
// since resolution needs the extension registries and can fail
// independently of document parsing.
type ArrayMetadataV3 struct {
	ZarrFormat       int                 `json:"zarr_format"`
	NodeType         NodeType            `json:"node_type"`
	Shape            []int               `json:"shape"`
	DataType         json.RawMessage     `json:"data_type"`
	ChunkGrid        json.RawMessage     `json:"chunk_grid"`
	ChunkKeyEncoding json.RawMessage     `json:"chunk_key_encoding"`
	FillValue        json.RawMessage     `json:"fill_value"`
	Codecs           []codec.Configuration `json:"codecs"`
	Attributes       map[string]any      `json:"attributes,omitempty"`
	DimensionNames   []*string           `json:"dimension_names,omitempty"`
}

// GroupMetadataV3 is the on-disk zarr.json document for a group node
// (SPEC_FULL §4.11's supplemented group-node feature): minimal, just a
// node-type discriminator and free-form attributes.
type GroupMetadataV3 struct {
	ZarrFormat int            `json:"zarr_format"`
	NodeType   NodeType       `json:"node_type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ResolvedArray is an ArrayMetadataV3 with every extension-point
// reference resolved to a live object, ready to drive an Array handle.
type ResolvedArray struct {
	Shape            []int
	DataType         datatype.DataType
	ChunkGrid        chunkgrid.ChunkGrid
	ChunkKeyEncoding keyencoding.ChunkKeyEncoding
	FillValue        []byte
	Codecs           *codec.Chain
	Attributes       map[string]any
	DimensionNames   []*string
}

// ParseArrayMetadataV3 decodes a zarr.json document's bytes into an
// ArrayMetadataV3, validating the format/node_type discriminators.
func ParseArrayMetadataV3(data []byte) (*ArrayMetadataV3, error) {
	var m ArrayMetadataV3
	if err := json_.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata: invalid zarr.json: %w", err)
	}
	if m.ZarrFormat != CurrentZarrFormat {
		return nil, fmt.Errorf("metadata: unsupported zarr_format %d, expected %d", m.ZarrFormat, CurrentZarrFormat)
	}
	if m.NodeType != NodeTypeArray {
		return nil, fmt.Errorf("metadata: expected node_type %q, got %q", NodeTypeArray, m.NodeType)
	}
	return &m, nil
}

// ParseGroupMetadataV3 decodes a group zarr.json document.
func ParseGroupMetadataV3(data []byte) (*GroupMetadataV3, error) {
	var m GroupMetadataV3
	if err := json_.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metadata: invalid zarr.json: %w", err)
	}
	if m.ZarrFormat != CurrentZarrFormat {
		return nil, fmt.Errorf("metadata: unsupported zarr_format %d, expected %d", m.ZarrFormat, CurrentZarrFormat)
	}
	if m.NodeType != NodeTypeGroup {
		return nil, fmt.Errorf("metadata: expected node_type %q, got %q", NodeTypeGroup, m.NodeType)
	}
	return &m, nil
}

// Marshal serialises m back to zarr.json bytes.
func (m *ArrayMetadataV3) Marshal() ([]byte, error) {
	if m.ZarrFormat == 0 {
		m.ZarrFormat = CurrentZarrFormat
	}
	if m.NodeType == "" {
		m.NodeType = NodeTypeArray
	}
	return json_.MarshalIndent(m, "", "  ")
}

// Marshal serialises m back to zarr.json bytes.
func (m *GroupMetadataV3) Marshal() ([]byte, error) {
	if m.ZarrFormat == 0 {
		m.ZarrFormat = CurrentZarrFormat
	}
	if m.NodeType == "" {
		m.NodeType = NodeTypeGroup
	}
	return json_.MarshalIndent(m, "", "  ")
}

// Resolve resolves every extension reference in m to a live object.
// resolveArrayToBytes is forwarded to codec.BuildChain so callers (the
// array package) can wire codecs — the sharding codec in particular —
// that would create an import cycle if registered directly in the codec
// package (SPEC_FULL §4.11).
func (m *ArrayMetadataV3) Resolve(resolveArrayToBytes codec.ArrayToBytesResolver) (*ResolvedArray, error) {
	dt, err := datatype.ParseConfiguredName(m.DataType)
	if err != nil {
		return nil, fmt.Errorf("metadata: data_type: %w", err)
	}
	grid, err := chunkgrid.FromConfig(m.ChunkGrid)
	if err != nil {
		return nil, fmt.Errorf("metadata: chunk_grid: %w", err)
	}
	keyEnc, err := keyencoding.FromConfig(m.ChunkKeyEncoding)
	if err != nil {
		return nil, fmt.Errorf("metadata: chunk_key_encoding: %w", err)
	}
	var fillRaw any
	if len(m.FillValue) > 0 {
		if err := json_.Unmarshal(m.FillValue, &fillRaw); err != nil {
			return nil, fmt.Errorf("metadata: fill_value: %w", err)
		}
	}
	fillValue, err := dt.ParseFillValue(fillRaw)
	if err != nil {
		return nil, fmt.Errorf("metadata: fill_value: %w", err)
	}
	chain, err := codec.BuildChain(m.Codecs, resolveArrayToBytes)
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
		Attributes:       m.Attributes,
		DimensionNames:   m.DimensionNames,
	}, nil
}

// FromResolved builds the on-disk document for a ResolvedArray, the
// inverse of Resolve for the parts that have a canonical JSON rendering
// (codecs are not round-tripped here — callers that built a chain by
// hand keep their own Configuration list; ArrayBuilder does this for
// them).
func FromResolved(r *ResolvedArray, codecs []codec.Configuration) (*ArrayMetadataV3, error) {
	gridName, gridConfig, err := chunkgrid.ToConfig(r.ChunkGrid)
	if err != nil {
		return nil, err
	}
	fillJSON, err := r.DataType.FormatFillValue(r.FillValue)
	if err != nil {
		return nil, fmt.Errorf("metadata: fill_value: %w", err)
	}
	fillRaw, err := json_.Marshal(fillJSON)
	if err != nil {
		return nil, err
	}
	dataTypeRaw, err := json_.Marshal(r.DataType.Identifier())
	if err != nil {
		return nil, err
	}
	gridRaw, err := json_.Marshal(map[string]any{"name": gridName, "configuration": gridConfig})
	if err != nil {
		return nil, err
	}
	keyEncConfig, err := keyencoding.ToConfig(r.ChunkKeyEncoding)
	if err != nil {
		return nil, err
	}
	keyEncRaw, err := json_.Marshal(keyEncConfig)
	if err != nil {
		return nil, err
	}
	return &ArrayMetadataV3{
		ZarrFormat:       CurrentZarrFormat,
		NodeType:         NodeTypeArray,
		Shape:            r.Shape,
		DataType:         dataTypeRaw,
		ChunkGrid:        gridRaw,
		ChunkKeyEncoding: keyEncRaw,
		FillValue:        fillRaw,
		Codecs:           codecs,
		Attributes:       r.Attributes,
		DimensionNames:   r.DimensionNames,
	}, nil
}
