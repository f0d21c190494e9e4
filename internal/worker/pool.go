// Package worker runs the per-dataset import pipelines: bounded-admission
// scheduling, the worker-phase steps (validate, pseudonymize, convert), and
// RSA key generation for input encryption. Workers only touch working
// directory artifacts and job statuses, never the datastore ledgers.
package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool runs import workers bounded by both a worker count and an aggregate
// input byte budget. A job larger than the whole budget is admitted only
// when it can run alone.
type Pool struct {
	group    *errgroup.Group
	ctx      context.Context
	mu       sync.Mutex
	cond     *sync.Cond
	maxBytes int64
	used     int64
}

// NewPool creates a pool bounded by maxWorkers concurrent jobs and maxBytes
// aggregate admitted input size.
func NewPool(ctx context.Context, maxWorkers int, maxBytes int64) *Pool {
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxWorkers)

	p := &Pool{
		group:    group,
		ctx:      gctx,
		maxBytes: maxBytes,
	}
	p.cond = sync.NewCond(&p.mu)

	// Wake admitters when the pool's context ends. The mutex is held so the
	// broadcast cannot slip between a waiter's context check and its Wait.
	go func() {
		<-gctx.Done()
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	}()
	return p
}

// Submit schedules fn once sizeBytes fits in the byte budget. Submit itself
// does not block; admission happens inside the worker slot.
func (p *Pool) Submit(sizeBytes int64, fn func(ctx context.Context) error) {
	p.group.Go(func() error {
		if err := p.admit(sizeBytes); err != nil {
			return err
		}
		defer p.release(sizeBytes)
		return fn(p.ctx)
	})
}

// admit blocks until the byte budget has room, or the pool's context ends.
func (p *Pool) admit(sizeBytes int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.used > 0 && p.used+sizeBytes > p.maxBytes {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		p.cond.Wait()
	}
	// Capacity can free in the same instant the context ends; the waiter must
	// not admit the job once the pool is shutting down.
	if err := p.ctx.Err(); err != nil {
		return err
	}
	p.used += sizeBytes
	return nil
}

func (p *Pool) release(sizeBytes int64) {
	p.mu.Lock()
	p.used -= sizeBytes
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Wait blocks until all submitted jobs have finished and returns the first
// error.
func (p *Pool) Wait() error {
	return p.group.Wait()
}
