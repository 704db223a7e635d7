// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Transport types
const (
	TransportZAP    = "zap"    // Length-prefixed TCP frames, default
	TransportGRPC   = "grpc"   // Google RPC with a raw bytes codec
	TransportJSON   = "json"   // JSON-RPC 2.0 over HTTP
	TransportLambda = "lambda" // AWS Lambda RequestResponse invocations
)

// DefaultTransport is the default transport type (ZAP)
const DefaultTransport = TransportZAP

type dialFunc func(ctx context.Context, addr string, o *dialOptions) (Transport, error)
type listenFunc func(addr string, reg *Registry, o *serverOptions) (Server, error)

type transportEntry struct {
	dial   dialFunc
	listen listenFunc
}

var (
	transportsMu sync.RWMutex
	transports   = map[string]transportEntry{
		TransportZAP: {dialZAP, listenZAP},
	}
)

// registerTransport registers a new transport. listen may be nil for
// transports whose server side is hosted elsewhere.
func registerTransport(name string, dial dialFunc, listen listenFunc) {
	transportsMu.Lock()
	defer transportsMu.Unlock()
	transports[name] = transportEntry{dial, listen}
}

func lookupTransport(name string) (transportEntry, bool) {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	e, ok := transports[name]
	return e, ok
}

// AvailableTransports returns the sorted list of available transport types
func AvailableTransports() []string {
	transportsMu.RLock()
	defer transportsMu.RUnlock()
	result := make([]string, 0, len(transports))
	for name := range transports {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// HasTransport checks if a transport is available
func HasTransport(name string) bool {
	_, ok := lookupTransport(name)
	return ok
}

// workers is the bounded pool every transport runs invocations on. The
// semaphore is the only shared mutable state between concurrent calls.
type workers struct {
	sem *semaphore.Weighted
	log *zap.Logger
}

func newWorkers(limit int64, log *zap.Logger) *workers {
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	return &workers{
		sem: semaphore.NewWeighted(limit),
		log: log,
	}
}

// do runs fn once a slot is free.
func (w *workers) do(ctx context.Context, fn func(context.Context) (Reply, error)) (Reply, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return Reply{}, err
	}
	defer w.sem.Release(1)
	return fn(ctx)
}

// goDo runs fn on a pool goroutine and hands the outcome to done. The slot
// is released before done runs so slow callbacks don't hold capacity.
func (w *workers) goDo(ctx context.Context, fn func(context.Context) (Reply, error), done func(Reply, error)) {
	go func() {
		if err := w.sem.Acquire(ctx, 1); err != nil {
			w.log.Debug("invocation abandoned while queued", zap.Error(err))
			done(Reply{}, err)
			return
		}
		reply, err := fn(ctx)
		w.sem.Release(1)
		done(reply, err)
	}()
}
