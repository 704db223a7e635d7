// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"sync/atomic"
)

// LocalTransport dispatches into an in-process Registry. It exercises the
// full envelope path without a network, for tests and for running handlers
// next to their callers.
type LocalTransport struct {
	reg    *Registry
	pool   *workers
	closed atomic.Bool
}

// NewLocalTransport returns a transport serving reg. Only WithLogger and
// WithMaxConcurrency apply.
func NewLocalTransport(reg *Registry, opts ...DialOption) *LocalTransport {
	o := newDialOptions(opts)
	return &LocalTransport{
		reg:  reg,
		pool: newWorkers(o.maxConcurrency, o.logger),
	}
}

func (t *LocalTransport) Invoke(ctx context.Context, target string, request []byte) (Reply, error) {
	if t.closed.Load() {
		return Reply{}, ErrClosed
	}
	return t.pool.do(ctx, func(ctx context.Context) (Reply, error) {
		return t.reg.Dispatch(ctx, target, request)
	})
}

func (t *LocalTransport) InvokeAsync(ctx context.Context, target string, request []byte, done func(Reply, error)) {
	if t.closed.Load() {
		go done(Reply{}, ErrClosed)
		return
	}
	t.pool.goDo(ctx, func(ctx context.Context) (Reply, error) {
		return t.reg.Dispatch(ctx, target, request)
	}, done)
}

func (t *LocalTransport) Close() error {
	t.closed.Store(true)
	return nil
}
