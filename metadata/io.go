package metadata

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/storage"
)

// V3MetadataKey is the well-known storage key for a V3 node's metadata
// document at nodePath (spec.md §6.1: "<path>/zarr.json").
func V3MetadataKey(nodePath string) string {
	if nodePath == "" {
		return "zarr.json"
	}
	return nodePath + "/zarr.json"
}

// V2ArrayMetadataKey is the well-known storage key for a V2 array's
// .zarray document at nodePath.
func V2ArrayMetadataKey(nodePath string) string {
	if nodePath == "" {
		return ".zarray"
	}
	return nodePath + "/.zarray"
}

// V2GroupMetadataKey is the well-known storage key for a V2 group's
// .zgroup document at nodePath.
func V2GroupMetadataKey(nodePath string) string {
	if nodePath == "" {
		return ".zgroup"
	}
	return nodePath + "/.zgroup"
}

// LoadArrayV3 fetches and parses the zarr.json document at nodePath.
func LoadArrayV3(ctx context.Context, store storage.Store, nodePath string) (*ArrayMetadataV3, error) {
	data, ok, err := store.Get(ctx, V3MetadataKey(nodePath))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("metadata: no array metadata at %q", nodePath)
	}
	return ParseArrayMetadataV3(data)
}

// SaveArrayV3 serialises and commits m at nodePath.
func SaveArrayV3(ctx context.Context, store storage.Store, nodePath string, m *ArrayMetadataV3) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return store.Set(ctx, V3MetadataKey(nodePath), data)
}

// LoadGroupV3 fetches and parses the zarr.json document at nodePath for
// a group node.
func LoadGroupV3(ctx context.Context, store storage.Store, nodePath string) (*GroupMetadataV3, error) {
	data, ok, err := store.Get(ctx, V3MetadataKey(nodePath))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("metadata: no group metadata at %q", nodePath)
	}
	return ParseGroupMetadataV3(data)
}

// SaveGroupV3 serialises and commits m at nodePath.
func SaveGroupV3(ctx context.Context, store storage.Store, nodePath string, m *GroupMetadataV3) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return store.Set(ctx, V3MetadataKey(nodePath), data)
}
