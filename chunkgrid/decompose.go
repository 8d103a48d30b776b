package chunkgrid

import (
	"fmt"

	"github.com/tuskan/zarrcore/indexer"
)

// Triple is one (chunk_index, subset_in_chunk, subset_in_output) entry
// produced by decomposing a region against a grid, per spec.md §4.4:
// writing the region is equivalent to, for each triple, reading the
// chunk, overwriting SubsetInChunk, and writing the chunk back; reading
// is the symmetric gather into SubsetInOutput.
type Triple struct {
	ChunkIndex    []int
	SubsetInChunk indexer.ArraySubset
	// SubsetInOutput is expressed relative to the requested region's own
	// origin (i.e. Start is 0-based against the region, not the array).
	SubsetInOutput indexer.ArraySubset
}

// Decompose produces one Triple per chunk overlapping region, for array
// shape arrayShape under grid. Edge chunks are clipped against arrayShape
// before intersecting, per spec.md §4.4.
func Decompose(grid ChunkGrid, arrayShape []int, region indexer.ArraySubset) ([]Triple, error) {
	if !region.InBounds(arrayShape) {
		return nil, fmt.Errorf("chunkgrid: region %+v out of bounds for array shape %v", region, arrayShape)
	}
	if len(arrayShape) == 0 {
		// 0-D: the one scalar "chunk" is the whole array.
		empty := indexer.ArraySubset{Start: []int{}, Shape: []int{}}
		return []Triple{{ChunkIndex: []int{}, SubsetInChunk: empty, SubsetInOutput: empty}}, nil
	}

	gridShape, err := grid.GridShape(arrayShape)
	if err != nil {
		return nil, err
	}

	regionEnd := region.End()
	minChunk := make([]int, len(arrayShape))
	maxChunk := make([]int, len(arrayShape))
	for i := range arrayShape {
		if region.Shape[i] == 0 {
			// Zero-extent region: no chunks touched.
			return nil, nil
		}
		lastElem := regionEnd[i] - 1
		startElem := region.Start[i]
		ci, err := chunkIndexForElementAt(grid, arrayShape, i, startElem)
		if err != nil {
			return nil, err
		}
		cj, err := chunkIndexForElementAt(grid, arrayShape, i, lastElem)
		if err != nil {
			return nil, err
		}
		minChunk[i] = ci
		maxChunk[i] = cj
		if minChunk[i] >= gridShape[i] || maxChunk[i] >= gridShape[i] {
			return nil, fmt.Errorf("chunkgrid: region resolves to chunk index beyond grid shape %v", gridShape)
		}
	}

	var triples []Triple
	idx := make([]int, len(arrayShape))
	copy(idx, minChunk)
	for {
		chunkStart, err := grid.ChunkStart(arrayShape, idx)
		if err != nil {
			return nil, err
		}
		chunkShape, err := grid.ChunkShape(arrayShape, idx)
		if err != nil {
			return nil, err
		}
		chunkSubset := indexer.ArraySubset{Start: chunkStart, Shape: chunkShape}

		overlap, ok := chunkSubset.Intersect(region)
		if ok {
			inChunkStart := make([]int, len(overlap.Start))
			inOutputStart := make([]int, len(overlap.Start))
			for d := range overlap.Start {
				inChunkStart[d] = overlap.Start[d] - chunkStart[d]
				inOutputStart[d] = overlap.Start[d] - region.Start[d]
			}
			chunkIdxCopy := make([]int, len(idx))
			copy(chunkIdxCopy, idx)
			triples = append(triples, Triple{
				ChunkIndex:     chunkIdxCopy,
				SubsetInChunk:  indexer.ArraySubset{Start: inChunkStart, Shape: overlap.Shape},
				SubsetInOutput: indexer.ArraySubset{Start: inOutputStart, Shape: overlap.Shape},
			})
		}

		// Odometer increment over [minChunk, maxChunk].
		d := len(idx) - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] <= maxChunk[d] {
				break
			}
			idx[d] = minChunk[d]
		}
		if d < 0 {
			break
		}
	}
	return triples, nil
}

// chunkIndexForElementAt finds the chunk index along dimension dim that
// contains element coordinate elem, holding the other dimensions at 0
// (grids here resolve each dimension's element->chunk mapping
// independently of the other dimensions' coordinates).
func chunkIndexForElementAt(grid ChunkGrid, arrayShape []int, dim int, elem int) (int, error) {
	element := make([]int, len(arrayShape))
	element[dim] = elem
	idx, err := grid.ChunkIndexForElement(arrayShape, element)
	if err != nil {
		return 0, err
	}
	return idx[dim], nil
}
