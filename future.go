// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"sync"
)

// Future is a single assignment promise of a Result. The first Settle
// wins; later ones are ignored.
type Future[T any] struct {
	once   sync.Once
	done   chan struct{}
	result Result[T]
}

// NewFuture returns an unsettled Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Settle stores r if the Future is still unsettled and reports whether it
// did.
func (f *Future[T]) Settle(r Result[T]) bool {
	settled := false
	f.once.Do(func() {
		f.result = r
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the Future is settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result returns the settlement without blocking.
func (f *Future[T]) Result() (Result[T], bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result[T]{}, false
	}
}

// Wait blocks until the Future is settled.
func (f *Future[T]) Wait() Result[T] {
	<-f.done
	return f.result
}

// Get waits for the settlement and unpacks it. Abandoning the wait through
// ctx does not stop the invocation.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
		return f.result.Get()
	}
}
