// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchOption configures RunBatch and Transform.
type BatchOption func(*batchOptions)

type batchOptions struct {
	concurrency int64
}

// WithBatchConcurrency caps the invocations a batch keeps in flight. Zero,
// the default, issues every invocation at once and leaves queueing to the
// transport's own ceiling.
func WithBatchConcurrency(n int64) BatchOption {
	return func(o *batchOptions) {
		if n >= 0 {
			o.concurrency = n
		}
	}
}

// RunBatch invokes b once per element of args, concurrently, and returns
// when every invocation has settled. Slot i of the result always belongs
// to args[i], whatever order the answers arrive in, and each slot fails or
// succeeds on its own.
//
// If ctx ends while the batch is waiting for capacity, the invocations not
// yet issued settle with the context's error.
func RunBatch[A, R any](ctx context.Context, b *Binding[A, R], args []A, opts ...BatchOption) []Result[R] {
	o := &batchOptions{}
	for _, opt := range opts {
		opt(o)
	}

	results := make([]Result[R], len(args))
	var sem *semaphore.Weighted
	if o.concurrency > 0 {
		sem = semaphore.NewWeighted(o.concurrency)
	}

	var wg sync.WaitGroup
	wg.Add(len(args))
	for i, a := range args {
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				for j := i; j < len(args); j++ {
					results[j] = Failed[R](err)
					wg.Done()
				}
				break
			}
		}
		b.CallAsync(ctx, a, func(r Result[R]) {
			results[i] = r
			if sem != nil {
				sem.Release(1)
			}
			wg.Done()
		})
	}
	wg.Wait()
	return results
}

// Transform is RunBatch for callers that want plain values: it returns the
// values in input order, or the failure of the lowest failing index.
func Transform[A, R any](ctx context.Context, b *Binding[A, R], args []A, opts ...BatchOption) ([]R, error) {
	results := RunBatch(ctx, b, args, opts...)
	out := make([]R, len(results))
	for i, r := range results {
		v, err := r.Get()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
