package stream

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/midgard-terrain/pkg/terrain"
)

// future is the completion handle of one scheduled tile build.
type future struct {
	coord  terrain.Coord
	done   chan struct{}
	result *build
	err    error
}

func (f *future) ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *future) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pool runs tile builds with at most n in flight.
type pool struct {
	ctx context.Context
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func newPool(ctx context.Context, n int) *pool {
	return &pool{ctx: ctx, sem: semaphore.NewWeighted(int64(n))}
}

func (p *pool) submit(c terrain.Coord, fn func(terrain.Coord) *build) *future {
	f := &future{coord: c, done: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(f.done)
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			f.err = err
			return
		}
		defer p.sem.Release(1)
		f.result = fn(c)
	}()
	return f
}

func (p *pool) wait() {
	p.wg.Wait()
}
