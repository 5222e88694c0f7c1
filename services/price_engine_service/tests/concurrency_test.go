// Package tests exercises the price engine's concurrency primitives under
// load, standing in for price_updater.py's "concurrent price updates
// across multiple platforms without conflicts" requirement without a live
// database.
package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quickdeals/price-intel/common/workerpool"
	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolProcessesAllJobsUnderLoad(t *testing.T) {
	var completed int64
	pool := workerpool.New(context.Background(), 5)
	for i := 0; i < 250; i++ {
		pool.Submit(context.Background(), func(ctx context.Context) error {
			atomic.AddInt64(&completed, 1)
			return nil
		})
	}
	errs := pool.Wait()
	assert.Empty(t, errs)
	assert.Equal(t, int64(250), completed)
}

func TestWorkerPoolSurfacesPerJobErrors(t *testing.T) {
	pool := workerpool.New(context.Background(), 3)
	for i := 0; i < 10; i++ {
		i := i
		pool.Submit(context.Background(), func(ctx context.Context) error {
			if i%2 == 0 {
				return assert.AnError
			}
			return nil
		})
	}
	errs := pool.Wait()
	assert.Len(t, errs, 5)
}

func TestWorkerPoolRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := workerpool.New(ctx, 2)
	cancel()
	time.Sleep(5 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not shut down after context cancellation")
	}
}
