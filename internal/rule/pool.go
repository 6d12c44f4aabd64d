package rule

import (
	"context"
	"fmt"
)

// Pool holds independently loaded engines, one per desired concurrent
// rule execution. Workers acquire an engine for the duration of a
// page's rule work and release it afterwards; no engine is ever used
// by two goroutines at once.
type Pool struct {
	engines chan *Engine
	size    int
}

// NewPool loads the workspace rules size times, giving each slot its
// own isolated set of goja runtimes.
func NewPool(sources []Source, size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		engines: make(chan *Engine, size),
		size:    size,
	}
	for i := 0; i < size; i++ {
		engine, err := NewEngine(sources, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build rule engine %d: %w", i+1, err)
		}
		p.engines <- engine
	}
	return p, nil
}

// Acquire blocks until an engine is free or the context is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*Engine, error) {
	select {
	case engine := <-p.engines:
		return engine, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an engine to the pool. Must be called exactly once
// per successful Acquire.
func (p *Pool) Release(engine *Engine) {
	p.engines <- engine
}

// Size returns the number of execution slots.
func (p *Pool) Size() int {
	return p.size
}
