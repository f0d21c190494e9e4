package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllJobs(t *testing.T) {
	p := NewPool(context.Background(), 4, 1000)

	var done int32
	for i := 0; i < 10; i++ {
		p.Submit(100, func(ctx context.Context) error {
			atomic.AddInt32(&done, 1)
			return nil
		})
	}
	require.NoError(t, p.Wait())
	assert.Equal(t, int32(10), atomic.LoadInt32(&done))
}

func TestPool_WorkerLimit(t *testing.T) {
	p := NewPool(context.Background(), 2, 1000)

	var running, peak int32
	for i := 0; i < 8; i++ {
		p.Submit(10, func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		})
	}
	require.NoError(t, p.Wait())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestPool_ByteBudget(t *testing.T) {
	p := NewPool(context.Background(), 4, 100)

	var mu sync.Mutex
	var admitted int64
	var peak int64

	job := func(size int64) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			mu.Lock()
			admitted += size
			if admitted > peak {
				peak = admitted
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			admitted -= size
			mu.Unlock()
			return nil
		}
	}

	// the accounting inside the jobs mirrors the pool's own; together the
	// two must never exceed the budget
	for i := 0; i < 6; i++ {
		p.Submit(60, job(60))
	}
	require.NoError(t, p.Wait())
	assert.LessOrEqual(t, peak, int64(100))
}

func TestPool_OversizedJobRunsAlone(t *testing.T) {
	p := NewPool(context.Background(), 4, 100)

	var ran int32
	p.Submit(500, func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	require.NoError(t, p.Wait())
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestPool_CancelUnblocksAdmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 4, 100)

	release := make(chan struct{})
	p.Submit(80, func(ctx context.Context) error {
		<-release
		return nil
	})
	// cannot be admitted while the first job holds 80 of 100
	p.Submit(80, func(ctx context.Context) error {
		return nil
	})

	time.Sleep(10 * time.Millisecond)
	cancel()
	close(release)

	err := p.Wait()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_NoAdmissionAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 4, 100)

	release := make(chan struct{})
	p.Submit(80, func(ctx context.Context) error {
		<-release
		return nil
	})

	var ran int32
	p.Submit(80, func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	// capacity frees only after the cancellation; the waiter must still
	// refuse the job
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(release)

	err := p.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}
