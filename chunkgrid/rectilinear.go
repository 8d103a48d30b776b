package chunkgrid

import "fmt"

// RunLength is one (size, count) run in a rectilinear dimension's
// run-length-encoded chunk size list.
type RunLength struct {
	Size  int
	Count int
}

// Rectilinear is Rectangular's run-length-encoded form (spec.md §3): each
// dimension is a list of (size, count) runs instead of one entry per
// chunk, which is far more compact when most chunks share a handful of
// sizes (e.g. "4096 chunks of size 256, then one of size 37").
type Rectilinear struct {
	Runs [][]RunLength
}

// NewRectilinear validates run sizes/counts and builds a Rectilinear grid.
func NewRectilinear(runs [][]RunLength) (*Rectilinear, error) {
	for d, dimRuns := range runs {
		for i, run := range dimRuns {
			if run.Size <= 0 || run.Count <= 0 {
				return nil, fmt.Errorf("chunkgrid: rectilinear run must have positive size and count, got %+v at dim %d run %d", run, d, i)
			}
		}
	}
	return &Rectilinear{Runs: runs}, nil
}

// Expand converts the run-length form into Rectangular's flat per-chunk
// size list, so the two grid kinds can share traversal logic.
func (g *Rectilinear) Expand() *Rectangular {
	sizes := make([][]int, len(g.Runs))
	for d, dimRuns := range g.Runs {
		for _, run := range dimRuns {
			for i := 0; i < run.Count; i++ {
				sizes[d] = append(sizes[d], run.Size)
			}
		}
	}
	return &Rectangular{ChunkSizes: sizes}
}

func (g *Rectilinear) Identifier() string { return "rectilinear" }

func (g *Rectilinear) GridShape(arrayShape []int) ([]int, error) {
	return g.Expand().GridShape(arrayShape)
}

func (g *Rectilinear) ChunkShape(arrayShape []int, index []int) ([]int, error) {
	return g.Expand().ChunkShape(arrayShape, index)
}

func (g *Rectilinear) ChunkStart(arrayShape []int, index []int) ([]int, error) {
	return g.Expand().ChunkStart(arrayShape, index)
}

func (g *Rectilinear) ChunkIndexForElement(arrayShape []int, element []int) ([]int, error) {
	return g.Expand().ChunkIndexForElement(arrayShape, element)
}

var _ ChunkGrid = (*Rectilinear)(nil)
