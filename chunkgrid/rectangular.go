package chunkgrid

import "fmt"

// Rectangular is a per-dimension ragged chunk grid: along each dimension,
// an explicit list of chunk extents (which need not be equal, unlike
// Regular) summing exactly to the array's extent in that dimension.
// Spec.md §8 scenario 5 ("dim-0 chunks [1,2,3,2], dim-1 chunks [4,4]") is
// exactly this shape.
type Rectangular struct {
	// ChunkSizes[d] lists the extent of chunk 0, 1, 2, ... along dimension d.
	ChunkSizes [][]int
}

// NewRectangular validates that each dimension's chunk sizes are all
// positive and builds a Rectangular grid. The sizes must sum to the
// corresponding array extent at GridShape/ChunkShape call time — checked
// there, since the grid itself is constructed before the array shape is
// necessarily fixed (array builders may attach a grid before shape, or
// reuse a grid's per-dimension chunk-size lists across arrays of the same
// extent).
func NewRectangular(chunkSizes [][]int) (*Rectangular, error) {
	for d, sizes := range chunkSizes {
		for i, s := range sizes {
			if s <= 0 {
				return nil, fmt.Errorf("chunkgrid: rectangular chunk size must be positive, got %d at dim %d chunk %d", s, d, i)
			}
		}
	}
	return &Rectangular{ChunkSizes: chunkSizes}, nil
}

func (r *Rectangular) Identifier() string { return "rectangular" }

func (r *Rectangular) checkSums(arrayShape []int) error {
	if err := validateShapeRank(arrayShape, len(r.ChunkSizes), "rectangular"); err != nil {
		return err
	}
	for d, sizes := range r.ChunkSizes {
		sum := 0
		for _, s := range sizes {
			sum += s
		}
		if sum != arrayShape[d] {
			return fmt.Errorf("chunkgrid: rectangular: dim %d chunk sizes sum to %d, array extent is %d", d, sum, arrayShape[d])
		}
	}
	return nil
}

func (r *Rectangular) GridShape(arrayShape []int) ([]int, error) {
	if err := r.checkSums(arrayShape); err != nil {
		return nil, err
	}
	grid := make([]int, len(r.ChunkSizes))
	for d, sizes := range r.ChunkSizes {
		grid[d] = len(sizes)
	}
	return grid, nil
}

func (r *Rectangular) ChunkShape(arrayShape []int, index []int) ([]int, error) {
	if err := r.checkSums(arrayShape); err != nil {
		return nil, err
	}
	shape := make([]int, len(index))
	for d, idx := range index {
		if idx < 0 || idx >= len(r.ChunkSizes[d]) {
			return nil, fmt.Errorf("chunkgrid: rectangular: chunk index %d out of range at dim %d", idx, d)
		}
		shape[d] = r.ChunkSizes[d][idx]
	}
	return shape, nil
}

func (r *Rectangular) ChunkStart(arrayShape []int, index []int) ([]int, error) {
	if err := r.checkSums(arrayShape); err != nil {
		return nil, err
	}
	start := make([]int, len(index))
	for d, idx := range index {
		s := 0
		for i := 0; i < idx; i++ {
			s += r.ChunkSizes[d][i]
		}
		start[d] = s
	}
	return start, nil
}

func (r *Rectangular) ChunkIndexForElement(arrayShape []int, element []int) ([]int, error) {
	if err := r.checkSums(arrayShape); err != nil {
		return nil, err
	}
	idx := make([]int, len(element))
	for d, e := range element {
		if e < 0 || e >= arrayShape[d] {
			return nil, fmt.Errorf("chunkgrid: rectangular: element %d out of bounds at dim %d", e, d)
		}
		cum := 0
		found := -1
		for i, size := range r.ChunkSizes[d] {
			if e < cum+size {
				found = i
				break
			}
			cum += size
		}
		idx[d] = found
	}
	return idx, nil
}

var _ ChunkGrid = (*Rectangular)(nil)
