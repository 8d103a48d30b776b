package concurrency_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/concurrency"
)

func TestCompute_GrowsInnerBeforeOuter(t *testing.T) {
	split, err := concurrency.Compute(8, 10, concurrency.Range{Min: 1, Max: 4})
	require.NoError(t, err)
	require.Equal(t, 2, split.Outer)
	require.Equal(t, 4, split.Inner)
}

func TestCompute_GrowsOuterWhenInnerExhausted(t *testing.T) {
	split, err := concurrency.Compute(16, 10, concurrency.Range{Min: 1, Max: 2})
	require.NoError(t, err)
	require.Equal(t, 2, split.Inner)
	require.Equal(t, 8, split.Outer)
}

func TestCompute_NeverExceedsNumChunks(t *testing.T) {
	split, err := concurrency.Compute(100, 3, concurrency.Range{Min: 1, Max: 100})
	require.NoError(t, err)
	require.LessOrEqual(t, split.Outer, 3)
}

func TestCompute_RejectsInvalidRange(t *testing.T) {
	_, err := concurrency.Compute(8, 10, concurrency.Range{Min: 4, Max: 1})
	require.Error(t, err)
}

func TestRunChunks_RunsAllAndRespectsLimit(t *testing.T) {
	var count int64
	var maxInFlight int64
	var inFlight int64

	err := concurrency.RunChunks(context.Background(), 2, 10, func(ctx context.Context, idx int) error {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			m := atomic.LoadInt64(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt64(&maxInFlight, m, n) {
				break
			}
		}
		atomic.AddInt64(&count, 1)
		atomic.AddInt64(&inFlight, -1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), count)
	require.LessOrEqual(t, maxInFlight, int64(2))
}

func TestRunChunks_PropagatesFirstError(t *testing.T) {
	boom := require.New(t)
	err := concurrency.RunChunks(context.Background(), 4, 5, func(ctx context.Context, idx int) error {
		if idx == 2 {
			return context.DeadlineExceeded
		}
		return nil
	})
	boom.Error(err)
}
