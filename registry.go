// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Registry maps target names to handlers. Servers of every transport
// dispatch into a Registry.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      *zap.Logger
	metrics  *Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...ServerOption) *Registry {
	o := newServerOptions(opts)
	return &Registry{
		handlers: make(map[string]Handler),
		log:      o.logger,
		metrics:  o.metrics,
	}
}

// Register adds h under target. Target names are unique.
func (r *Registry) Register(target string, h Handler) error {
	if target == "" {
		return errors.New("register: empty target name")
	}
	if h == nil {
		return errors.Errorf("register %q: nil handler", target)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[target]; exists {
		return errors.Errorf("register %q: target already registered", target)
	}
	r.handlers[target] = h
	r.log.Info("registered target", zap.String("target", target))
	return nil
}

// MustRegister is Register for setup code; it panics on error.
func (r *Registry) MustRegister(target string, h Handler) {
	if err := r.Register(target, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for target.
func (r *Registry) Lookup(target string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[target]
	return h, ok
}

// Targets returns the registered target names in sorted order.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes one request to its handler. The only error is
// ErrUnknownTarget; handler failures are part of the Reply.
func (r *Registry) Dispatch(ctx context.Context, target string, request []byte) (Reply, error) {
	h, ok := r.Lookup(target)
	if !ok {
		r.log.Warn("request for unknown target", zap.String("target", target))
		r.metrics.observeDispatch(target, outcomeUnknown)
		return Reply{}, errors.Wrapf(ErrUnknownTarget, "dispatch %q", target)
	}

	start := time.Now()
	reply := h.Respond(ctx, request)
	if reply.Failed {
		r.log.Debug("handler reported failure",
			zap.String("target", target),
			zap.ByteString("body", reply.Body),
			zap.Duration("elapsed", time.Since(start)),
		)
		r.metrics.observeDispatch(target, outcomeRemoteError)
	} else {
		r.log.Debug("handler succeeded",
			zap.String("target", target),
			zap.Duration("elapsed", time.Since(start)),
		)
		r.metrics.observeDispatch(target, outcomeOK)
	}
	return reply, nil
}
