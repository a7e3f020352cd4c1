package roxy

import (
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps pipelines holding a browser (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// PipelineFactory builds one independent pipeline. Stateful steps such as
// Template must be created inside the factory so each pipeline owns its own.
type PipelineFactory func() (*Pipeline, error)

// ErrPoolClosed is returned by Acquire once the pool has been closed.
var ErrPoolClosed = errors.New("pipeline pool closed")

// PipelinePool hands out pipelines to concurrent workers. Pipelines are
// built lazily on first acquire, up to the pool size, and reused after
// Release.
type PipelinePool struct {
	size      int
	factory   PipelineFactory
	pipelines []*Pipeline
	idle      []*Pipeline
	mu        sync.Mutex
	cond      *sync.Cond
	created   int
	closed    bool
}

// NewPipelinePool creates a pool with capacity for n pipelines.
func NewPipelinePool(n int, factory PipelineFactory) *PipelinePool {
	if n < 1 {
		n = 1
	}
	p := &PipelinePool{
		size:      n,
		factory:   factory,
		pipelines: make([]*Pipeline, 0, n),
		idle:      make([]*Pipeline, 0, n),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire gets a pipeline from the pool, building one if capacity remains.
// Blocks while all pipelines are in use. A factory error gives the slot
// back and wakes one waiter, which then builds in its place.
func (p *PipelinePool) Acquire() (*Pipeline, error) {
	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		if n := len(p.idle); n > 0 {
			pl := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.mu.Unlock()
			return pl, nil
		}
		if p.created < p.size {
			break
		}
		p.cond.Wait()
	}
	p.created++
	p.mu.Unlock()

	// Build outside the lock
	pl, err := p.factory()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.created--
		p.cond.Signal()
		return nil, err
	}
	if p.closed {
		_ = pl.Close()
		return nil, ErrPoolClosed
	}
	p.pipelines = append(p.pipelines, pl)
	return pl, nil
}

// Release returns a pipeline to the pool. After Close it does nothing.
func (p *PipelinePool) Release(pl *Pipeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.idle = append(p.idle, pl)
	p.cond.Signal()
}

// Close closes every pipeline built by the pool and wakes blocked
// Acquire calls, which then fail with ErrPoolClosed.
// Returns an aggregated error if several pipelines fail to close.
func (p *PipelinePool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.idle = nil
	pipelines := p.pipelines
	p.cond.Broadcast()
	p.mu.Unlock()

	var errs []error
	for _, pl := range pipelines {
		if err := pl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *PipelinePool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
