// Package lazy provides one-shot memoization for expensive data loads.
package lazy

import (
	"context"
	"sync"
)

// Property memoizes the result of a load function. The first call to Get runs
// the load; every later call returns the same value and error without running
// it again. Errors memoize like values: a failed load is not retried.
//
// Safe for concurrent use. The load runs under the context of whichever
// caller arrives first.
type Property[T any] struct {
	once sync.Once
	load func(ctx context.Context) (T, error)
	val  T
	err  error
}

// New returns a Property that computes its value with load.
func New[T any](load func(ctx context.Context) (T, error)) *Property[T] {
	return &Property[T]{load: load}
}

// Get returns the memoized value, computing it on first call.
func (p *Property[T]) Get(ctx context.Context) (T, error) {
	p.once.Do(func() {
		p.val, p.err = p.load(ctx)
		p.load = nil
	})
	return p.val, p.err
}
