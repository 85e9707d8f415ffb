package clickhouse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowradar/pkg/errors"
)

type captureFlush struct {
	mu      sync.Mutex
	batches [][]interface{}
	fail    bool
}

func (c *captureFlush) flush(_ context.Context, batch []interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.ErrUnavailable
	}
	c.batches = append(c.batches, batch)
	return nil
}

func (c *captureFlush) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func TestBatchWriterFlushesOnSize(t *testing.T) {
	capture := &captureFlush{}
	bw := NewBatchWriter(BatchWriterConfig{
		FlushFunc: capture.flush,
		Table:     "trades",
		MaxBatch:  3,
		MaxAge:    time.Hour,
	})
	ctx := context.Background()

	require.NoError(t, bw.Add(ctx, "a"))
	require.NoError(t, bw.Add(ctx, "b"))
	assert.Equal(t, 0, capture.count(), "below threshold nothing flushes")

	require.NoError(t, bw.Add(ctx, "c"))
	require.Equal(t, 1, capture.count())
	assert.Len(t, capture.batches[0], 3)
	assert.Equal(t, 0, bw.BufferSize())
}

func TestBatchWriterFlushesOnAge(t *testing.T) {
	capture := &captureFlush{}
	bw := NewBatchWriter(BatchWriterConfig{
		FlushFunc: capture.flush,
		Table:     "trades",
		MaxBatch:  100,
		MaxAge:    20 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bw.Start(ctx)
	require.NoError(t, bw.Add(ctx, "a"))

	assert.Eventually(t, func() bool { return capture.count() == 1 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, bw.Stop(context.Background()))
}

func TestBatchWriterStopFlushesRemainder(t *testing.T) {
	capture := &captureFlush{}
	bw := NewBatchWriter(BatchWriterConfig{
		FlushFunc: capture.flush,
		Table:     "patterns",
		MaxBatch:  100,
		MaxAge:    time.Hour,
	})
	ctx := context.Background()

	bw.Start(ctx)
	require.NoError(t, bw.Add(ctx, "a"))
	require.NoError(t, bw.Add(ctx, "b"))
	require.NoError(t, bw.Stop(ctx))

	assert.Eventually(t, func() bool { return capture.count() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestBatchWriterFlushErrorKeepsRunning(t *testing.T) {
	capture := &captureFlush{fail: true}
	bw := NewBatchWriter(BatchWriterConfig{
		FlushFunc: capture.flush,
		Table:     "trades",
		MaxBatch:  1,
		MaxAge:    time.Hour,
	})
	ctx := context.Background()

	assert.Error(t, bw.Add(ctx, "a"))

	// Rows in a failed batch are dropped, not retried
	capture.fail = false
	require.NoError(t, bw.Add(ctx, "b"))
	require.Equal(t, 1, capture.count())
	assert.Len(t, capture.batches[0], 1)
}
