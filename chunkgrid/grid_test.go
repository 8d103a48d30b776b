package chunkgrid

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/indexer"
)

func TestRegular_GridAndChunkShape(t *testing.T) {
	grid, err := NewRegular([]int{4, 4})
	require.NoError(t, err)

	shape := []int{10, 10}
	gridShape, err := grid.GridShape(shape)
	require.NoError(t, err)
	require.Equal(t, []int{3, 3}, gridShape)

	// Edge chunk (2,2) is clipped: 10 = 2*4 + 2.
	chunkShape, err := grid.ChunkShape(shape, []int{2, 2})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, chunkShape)

	start, err := grid.ChunkStart(shape, []int{2, 2})
	require.NoError(t, err)
	require.Equal(t, []int{8, 8}, start)

	idx, err := grid.ChunkIndexForElement(shape, []int{9, 1})
	require.NoError(t, err)
	require.Equal(t, []int{2, 0}, idx)
}

func TestRegular_RejectsNonPositiveShape(t *testing.T) {
	_, err := NewRegular([]int{4, 0})
	require.Error(t, err)
}

func TestRectangular_GridAndChunkShape(t *testing.T) {
	// spec.md §8 scenario 5: dim-0 chunks [1,2,3,2], dim-1 chunks [4,4].
	grid, err := NewRectangular([][]int{{1, 2, 3, 2}, {4, 4}})
	require.NoError(t, err)

	arrayShape := []int{8, 8}
	gridShape, err := grid.GridShape(arrayShape)
	require.NoError(t, err)
	require.Equal(t, []int{4, 2}, gridShape)

	shape, err := grid.ChunkShape(arrayShape, []int{2, 0})
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, shape)

	start, err := grid.ChunkStart(arrayShape, []int{2, 0})
	require.NoError(t, err)
	require.Equal(t, []int{3, 0}, start)

	idx, err := grid.ChunkIndexForElement(arrayShape, []int{5, 3})
	require.NoError(t, err)
	require.Equal(t, []int{2, 0}, idx)
}

func TestRectangular_RejectsSumMismatch(t *testing.T) {
	grid, err := NewRectangular([][]int{{1, 2, 3}})
	require.NoError(t, err)
	_, err = grid.GridShape([]int{10})
	require.Error(t, err)
}

func TestRectilinear_ExpandsToRectangular(t *testing.T) {
	grid, err := NewRectilinear([][]RunLength{
		{{Size: 4, Count: 2}},
		{{Size: 2, Count: 1}, {Size: 3, Count: 2}},
	})
	require.NoError(t, err)

	expanded := grid.Expand()
	require.Equal(t, [][]int{{4, 4}, {2, 3, 3}}, expanded.ChunkSizes)

	arrayShape := []int{8, 8}
	gridShape, err := grid.GridShape(arrayShape)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, gridShape)
}

func TestDecompose_RectangularScenario5(t *testing.T) {
	// spec.md §8 scenario 5: subset [3..6, 3..6] (inclusive) must touch exactly chunks
	// (2,0),(2,1),(3,0),(3,1).
	grid, err := NewRectangular([][]int{{1, 2, 3, 2}, {4, 4}})
	require.NoError(t, err)
	arrayShape := []int{8, 8}

	region, err := indexer.New([]int{3, 3}, []int{4, 4})
	require.NoError(t, err)

	triples, err := Decompose(grid, arrayShape, region)
	require.NoError(t, err)
	require.Len(t, triples, 4)

	var touched [][]int
	for _, tr := range triples {
		touched = append(touched, tr.ChunkIndex)
	}
	sort.Slice(touched, func(i, j int) bool {
		if touched[i][0] != touched[j][0] {
			return touched[i][0] < touched[j][0]
		}
		return touched[i][1] < touched[j][1]
	})
	require.Equal(t, [][]int{{2, 0}, {2, 1}, {3, 0}, {3, 1}}, touched)

	for _, tr := range triples {
		require.Equal(t, tr.SubsetInChunk.NumElements(), tr.SubsetInOutput.NumElements())
	}
}

func TestDecompose_RegularFullArray(t *testing.T) {
	grid, err := NewRegular([]int{4, 4})
	require.NoError(t, err)
	arrayShape := []int{10, 10}

	region, err := indexer.New([]int{0, 0}, arrayShape)
	require.NoError(t, err)

	triples, err := Decompose(grid, arrayShape, region)
	require.NoError(t, err)
	require.Len(t, triples, 9) // 3x3 grid

	total := 0
	for _, tr := range triples {
		total += tr.SubsetInOutput.NumElements()
	}
	require.Equal(t, region.NumElements(), total)
}

func TestDecompose_SingleChunkSubset(t *testing.T) {
	grid, err := NewRegular([]int{4, 4})
	require.NoError(t, err)
	arrayShape := []int{10, 10}

	region, err := indexer.New([]int{1, 1}, []int{2, 2})
	require.NoError(t, err)

	triples, err := Decompose(grid, arrayShape, region)
	require.NoError(t, err)
	require.Len(t, triples, 1)
	require.Equal(t, []int{0, 0}, triples[0].ChunkIndex)
	require.Equal(t, []int{1, 1}, triples[0].SubsetInChunk.Start)
	require.Equal(t, []int{0, 0}, triples[0].SubsetInOutput.Start)
}

func TestDecompose_ZeroExtentRegionTouchesNoChunks(t *testing.T) {
	grid, err := NewRegular([]int{4, 4})
	require.NoError(t, err)
	arrayShape := []int{10, 10}

	region, err := indexer.New([]int{0, 0}, []int{0, 5})
	require.NoError(t, err)

	triples, err := Decompose(grid, arrayShape, region)
	require.NoError(t, err)
	require.Len(t, triples, 0)
}

func TestDecompose_RejectsOutOfBoundsRegion(t *testing.T) {
	grid, err := NewRegular([]int{4, 4})
	require.NoError(t, err)
	arrayShape := []int{10, 10}

	region, err := indexer.New([]int{0, 0}, []int{20, 20})
	require.NoError(t, err)

	_, err = Decompose(grid, arrayShape, region)
	require.Error(t, err)
}
