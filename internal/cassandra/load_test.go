package cassandra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(n int) RowSource {
	return func(yield func([]any) error) error {
		for i := 0; i < n; i++ {
			if err := yield([]any{int64(i), "name"}); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestWriteBatches_SplitsIntoBatches(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	var seen int

	n, err := writeBatches(context.Background(), 2, rowsOf(103), LoadOptions{BatchSize: 25, Concurrency: 3},
		func(_ context.Context, rows [][]any) error {
			mu.Lock()
			defer mu.Unlock()
			sizes = append(sizes, len(rows))
			seen += len(rows)
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, int64(103), n)
	assert.Equal(t, 103, seen)
	assert.Len(t, sizes, 5)
	assert.ElementsMatch(t, []int{25, 25, 25, 25, 3}, sizes)
}

func TestWriteBatches_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	close(release)

	_, err := writeBatches(context.Background(), 2, rowsOf(200), LoadOptions{BatchSize: 10, Concurrency: 2},
		func(context.Context, [][]any) error {
			cur := running.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil
		})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestWriteBatches_WriteError(t *testing.T) {
	boom := errors.New("write timeout")
	_, err := writeBatches(context.Background(), 2, rowsOf(100), LoadOptions{BatchSize: 10, Concurrency: 1},
		func(context.Context, [][]any) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWriteBatches_SourceError(t *testing.T) {
	boom := errors.New("generator failed")
	src := func(yield func([]any) error) error {
		if err := yield([]any{int64(1), "a"}); err != nil {
			return err
		}
		return boom
	}
	var writes atomic.Int32
	_, err := writeBatches(context.Background(), 2, src, LoadOptions{BatchSize: 10, Concurrency: 1},
		func(context.Context, [][]any) error {
			writes.Add(1)
			return nil
		})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, writes.Load())
}

func TestWriteBatches_RowWidthMismatch(t *testing.T) {
	_, err := writeBatches(context.Background(), 3, rowsOf(1), LoadOptions{BatchSize: 10},
		func(context.Context, [][]any) error { return nil })
	assert.ErrorContains(t, err, "has 2 values, want 3")
}
