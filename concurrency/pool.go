package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunChunks executes fn once per index in [0, numChunks) at the given
// outer concurrency limit, grounded on `rpcpool-yellowstone-faithful`'s
// use of `golang.org/x/sync/errgroup` for its chunk-fetch worker pools
// (`cmd-rpc-server-car-getBlock.go`). The first error cancels ctx for
// the remaining in-flight work and is returned; already-started chunk
// operations that already completed keep their effects (spec.md §5:
// "partial progress across chunks within one operation is possible").
func RunChunks(ctx context.Context, outer int, numChunks int, fn func(ctx context.Context, chunkIdx int) error) error {
	if outer <= 0 {
		outer = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(outer)
	for i := 0; i < numChunks; i++ {
		idx := i
		g.Go(func() error {
			return fn(gctx, idx)
		})
	}
	return g.Wait()
}
