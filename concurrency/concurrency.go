// Package concurrency implements the two-level concurrency budgeting
// algorithm (spec.md §5): given a total concurrency target and N chunks
// to process with a per-codec recommended concurrency range, split the
// budget between the outer chunk-loop parallelism and the inner
// per-codec parallelism without oversubscribing either.
package concurrency

import "fmt"

// Range is a codec's recommended concurrency range.
type Range struct {
	Min int
	Max int
}

// Split is the outer/inner concurrency split for one operation.
type Split struct {
	Outer int
	Inner int
}

// ChunkConcurrentMinimum is the floor for outer (chunk-loop) parallelism
// before the budget tries to grow inner (codec) parallelism, per spec.md
// §5 step 1.
const ChunkConcurrentMinimum = 1

// Compute runs the two-level budgeting algorithm:
//  1. outer = min(N, ChunkConcurrentMinimum), inner = codecRange.Min.
//  2. If outer*inner < target, grow inner up to min(target/outer, codecRange.Max).
//  3. If still short, grow outer up to min(target/inner, N).
//  4. The resulting inner is what gets forwarded to the codec via a
//     derived codec.Options.
func Compute(target int, numChunks int, codecRange Range) (Split, error) {
	if target <= 0 {
		return Split{}, fmt.Errorf("concurrency: target must be positive, got %d", target)
	}
	if numChunks < 0 {
		return Split{}, fmt.Errorf("concurrency: numChunks must be non-negative, got %d", numChunks)
	}
	if codecRange.Min <= 0 || codecRange.Max < codecRange.Min {
		return Split{}, fmt.Errorf("concurrency: invalid codec range %+v", codecRange)
	}

	outer := minInt(numChunks, ChunkConcurrentMinimum)
	if outer <= 0 {
		outer = 1
	}
	inner := codecRange.Min

	if outer*inner < target {
		inner = minInt(target/outer, codecRange.Max)
		if inner < codecRange.Min {
			inner = codecRange.Min
		}
	}
	if outer*inner < target {
		outer = minInt(target/inner, numChunks)
		if outer <= 0 {
			outer = 1
		}
	}
	return Split{Outer: outer, Inner: inner}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
