package array

import (
	"context"
	"path"

	"github.com/tuskan/zarrcore/metadata"
	"github.com/tuskan/zarrcore/storage"
)

// Group is a minimal group node handle (SPEC_FULL §4.11's supplemented
// group-node feature: "zarr_format: 3, node_type: group", a zarr.json
// with just attributes). It exists so a hierarchy of arrays can share a
// common attributes document, the way a filesystem directory groups
// files, without groups carrying any array-specific state themselves.
type Group struct {
	Store      storage.Store
	NodePath   string
	Attributes map[string]any
}

// CreateGroup commits a new group zarr.json at nodePath.
func CreateGroup(ctx context.Context, store storage.Store, nodePath string, attributes map[string]any) (*Group, error) {
	doc := &metadata.GroupMetadataV3{
		ZarrFormat: metadata.CurrentZarrFormat,
		NodeType:   metadata.NodeTypeGroup,
		Attributes: attributes,
	}
	if err := metadata.SaveGroupV3(ctx, store, nodePath, doc); err != nil {
		return nil, err
	}
	return &Group{Store: store, NodePath: nodePath, Attributes: attributes}, nil
}

// OpenGroup loads the group zarr.json at nodePath.
func OpenGroup(ctx context.Context, store storage.Store, nodePath string) (*Group, error) {
	doc, err := metadata.LoadGroupV3(ctx, store, nodePath)
	if err != nil {
		return nil, err
	}
	return &Group{Store: store, NodePath: nodePath, Attributes: doc.Attributes}, nil
}

// Array opens the child array node named name under this group.
func (g *Group) Array(ctx context.Context, name string) (*Array, error) {
	return Open(ctx, g.Store, path.Join(g.NodePath, name))
}

// Subgroup opens the child group node named name under this group.
func (g *Group) Subgroup(ctx context.Context, name string) (*Group, error) {
	return OpenGroup(ctx, g.Store, path.Join(g.NodePath, name))
}

// ArrayBuilder starts a Builder for a child array node named name under
// this group.
func (g *Group) ArrayBuilder(name string) *Builder {
	return NewBuilder(g.Store, path.Join(g.NodePath, name))
}
