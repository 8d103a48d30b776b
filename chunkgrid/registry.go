package chunkgrid

import (
	"encoding/json"
	"fmt"
)

// config mirrors the {"name": ..., "configuration": {...}} shape zarr.json
// uses for the chunk_grid field (spec.md §6.1).
type config struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration"`
}

// FromConfig builds a ChunkGrid from a zarr.json chunk_grid object.
// "regular" takes {"chunk_shape": [...]}; "rectangular" takes
// {"chunk_shapes": [[...], ...]} (one list of chunk extents per
// dimension). Rectilinear's run-length form isn't part of the on-disk
// chunk_grid encoding spec.md §6.1 names; it is a construction-time
// convenience (NewRectilinear) expanded to Rectangular before storage.
func FromConfig(raw json.RawMessage) (ChunkGrid, error) {
	var c config
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("chunkgrid: invalid chunk_grid metadata: %w", err)
	}
	switch c.Name {
	case "regular":
		var cfg struct {
			ChunkShape []int `json:"chunk_shape"`
		}
		if err := json.Unmarshal(c.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("chunkgrid: invalid regular configuration: %w", err)
		}
		return NewRegular(cfg.ChunkShape)
	case "rectangular":
		var cfg struct {
			ChunkShapes [][]int `json:"chunk_shapes"`
		}
		if err := json.Unmarshal(c.Configuration, &cfg); err != nil {
			return nil, fmt.Errorf("chunkgrid: invalid rectangular configuration: %w", err)
		}
		return NewRectangular(cfg.ChunkShapes)
	default:
		return nil, fmt.Errorf("chunkgrid: unsupported chunk_grid name %q", c.Name)
	}
}

// ToConfig renders grid back into the JSON shape FromConfig parses,
// expanding Rectilinear to its Rectangular form since that is the only
// on-disk representation spec.md §6.1 defines.
func ToConfig(grid ChunkGrid) (name string, configuration any, err error) {
	switch g := grid.(type) {
	case *Regular:
		return "regular", map[string]any{"chunk_shape": g.Shape}, nil
	case *Rectangular:
		return "rectangular", map[string]any{"chunk_shapes": g.ChunkSizes}, nil
	case *Rectilinear:
		expanded := g.Expand()
		return "rectangular", map[string]any{"chunk_shapes": expanded.ChunkSizes}, nil
	default:
		return "", nil, fmt.Errorf("chunkgrid: unknown grid type %T", grid)
	}
}
