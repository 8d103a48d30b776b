package chunkgrid

import "fmt"

// Regular is the uniform chunk grid: every chunk has the same shape
// except edge chunks, which are clipped against the array shape. This is
// a direct generalization of the teacher's GridShape (chunk.go) from a
// single fixed shape pair to a grid object callable for any array shape.
type Regular struct {
	Shape []int
}

// NewRegular validates chunkShape (every extent must be positive, per
// spec.md §3's "chunk shape is the same [as array shape] with positive
// extents") and returns a Regular grid.
func NewRegular(chunkShape []int) (*Regular, error) {
	for i, s := range chunkShape {
		if s <= 0 {
			return nil, fmt.Errorf("chunkgrid: regular chunk shape must have positive extents, got %d at dim %d", s, i)
		}
	}
	return &Regular{Shape: chunkShape}, nil
}

func (r *Regular) Identifier() string { return "regular" }

func (r *Regular) GridShape(arrayShape []int) ([]int, error) {
	if err := validateShapeRank(arrayShape, len(r.Shape), "GridShape"); err != nil {
		return nil, err
	}
	if len(arrayShape) == 0 {
		return []int{}, nil
	}
	grid := make([]int, len(arrayShape))
	for i := range arrayShape {
		grid[i] = (arrayShape[i] + r.Shape[i] - 1) / r.Shape[i]
	}
	return grid, nil
}

func (r *Regular) ChunkShape(arrayShape []int, index []int) ([]int, error) {
	if err := validateShapeRank(arrayShape, len(r.Shape), "ChunkShape"); err != nil {
		return nil, err
	}
	if len(arrayShape) == 0 {
		return []int{}, nil
	}
	shape := make([]int, len(arrayShape))
	for i := range arrayShape {
		start := index[i] * r.Shape[i]
		extent, err := clippedExtent(start, r.Shape[i], arrayShape[i])
		if err != nil {
			return nil, fmt.Errorf("chunkgrid: regular: dim %d: %w", i, err)
		}
		shape[i] = extent
	}
	return shape, nil
}

func (r *Regular) ChunkStart(arrayShape []int, index []int) ([]int, error) {
	if err := validateShapeRank(arrayShape, len(r.Shape), "ChunkStart"); err != nil {
		return nil, err
	}
	start := make([]int, len(index))
	for i, idx := range index {
		start[i] = idx * r.Shape[i]
	}
	return start, nil
}

func (r *Regular) ChunkIndexForElement(arrayShape []int, element []int) ([]int, error) {
	if err := validateShapeRank(arrayShape, len(r.Shape), "ChunkIndexForElement"); err != nil {
		return nil, err
	}
	idx := make([]int, len(element))
	for i, e := range element {
		if e < 0 || e >= arrayShape[i] {
			return nil, fmt.Errorf("chunkgrid: regular: element %d out of bounds [0,%d) at dim %d", e, arrayShape[i], i)
		}
		idx[i] = e / r.Shape[i]
	}
	return idx, nil
}

var _ ChunkGrid = (*Regular)(nil)
