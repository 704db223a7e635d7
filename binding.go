// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Signature is the argument tuple and return type of a remote function.
type Signature[A, R any] struct {
	Args   Type[A]
	Result Type[R]
}

// Sig builds a Signature.
func Sig[A, R any](args Type[A], result Type[R]) Signature[A, R] {
	return Signature[A, R]{Args: args, Result: result}
}

// Binding is the typed call surface of one remote target. It holds no per
// call state and may be shared by any number of goroutines.
type Binding[A, R any] struct {
	client   *Client
	target   string
	sig      Signature[A, R]
	fallible Fallible[R]
}

// Bind associates target and sig with the client's transport. It does no
// I/O and cannot fail.
func Bind[A, R any](c *Client, target string, sig Signature[A, R]) *Binding[A, R] {
	b := &Binding[A, R]{
		client: c,
		target: target,
		sig:    sig,
	}
	b.fallible, _ = sig.Result.(Fallible[R])
	return b
}

// Target returns the bound target name.
func (b *Binding[A, R]) Target() string { return b.target }

// Signature returns the bound signature.
func (b *Binding[A, R]) Signature() Signature[A, R] { return b.sig }

// Call invokes the target and waits for its answer.
//
// Transport and decode failures are always returned as errors. A failure
// reported by the remote function is returned as a *RemoteError, unless R
// is error-aware (see ResultOf), in which case it is returned as a failed
// value with a nil error.
func (b *Binding[A, R]) Call(ctx context.Context, args A) (R, error) {
	request, err := b.request(args)
	if err != nil {
		var zero R
		return zero, err
	}
	start := b.begin()
	reply, err := b.client.transport.Invoke(ctx, b.target, request)
	return b.flatten(b.settle(start, reply, err))
}

// CallAsync invokes the target without waiting. onSettle is called exactly
// once, on a goroutine owned by the transport, and must be safe to run
// concurrently with other callbacks.
func (b *Binding[A, R]) CallAsync(ctx context.Context, args A, onSettle func(Result[R])) {
	request, err := b.request(args)
	if err != nil {
		go onSettle(Failed[R](err))
		return
	}
	start := b.begin()
	var once sync.Once
	b.client.transport.InvokeAsync(ctx, b.target, request, func(reply Reply, err error) {
		once.Do(func() {
			onSettle(b.settle(start, reply, err))
		})
	})
}

// Go invokes the target without waiting and returns a Future of the result.
func (b *Binding[A, R]) Go(ctx context.Context, args A) *Future[R] {
	f := NewFuture[R]()
	b.CallAsync(ctx, args, func(r Result[R]) { f.Settle(r) })
	return f
}

func (b *Binding[A, R]) request(args A) ([]byte, error) {
	payload, err := Encode(b.sig.Args, args)
	if err != nil {
		return nil, errors.Wrapf(err, "encode arguments for %s", b.target)
	}
	return NewRequest(payload).Marshal()
}

func (b *Binding[A, R]) begin() time.Time {
	b.client.metrics.callStarted()
	return time.Now()
}

// settle turns a transport outcome into the canonical Result.
func (b *Binding[A, R]) settle(start time.Time, reply Reply, err error) Result[R] {
	if err != nil {
		b.client.log.Warn("invocation failed in transport",
			zap.String("target", b.target),
			zap.Error(err),
		)
		b.record(start, outcomeTransportError)
		return Failed[R](&TransportError{Target: b.target, Err: err})
	}

	env, err := UnmarshalResponse(reply.Body, reply.Failed)
	if err != nil {
		b.record(start, outcomeDecodeError)
		return Failed[R](err)
	}
	if env.Kind == KindError {
		b.record(start, outcomeRemoteError)
		return Err[R](env.Message)
	}

	v, err := Decode(b.sig.Result, env.Payload)
	if err != nil {
		b.record(start, outcomeDecodeError)
		return Failed[R](err)
	}
	b.record(start, outcomeOK)
	return Ok(v)
}

func (b *Binding[A, R]) record(start time.Time, outcome string) {
	elapsed := time.Since(start)
	b.client.metrics.callSettled(b.target, outcome, elapsed)
	b.client.log.Debug("invocation settled",
		zap.String("target", b.target),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	)
}

// flatten converts the canonical Result into Call's return values.
func (b *Binding[A, R]) flatten(r Result[R]) (R, error) {
	if re, ok := r.err.(*RemoteError); ok && b.fallible != nil {
		return b.fallible.FromFailure(re.Message), nil
	}
	return r.Get()
}

// CallRaw sends a pre-encoded request body to target.
func (c *Client) CallRaw(ctx context.Context, target string, request []byte) (Reply, error) {
	reply, err := c.transport.Invoke(ctx, target, request)
	if err != nil {
		return Reply{}, &TransportError{Target: target, Err: err}
	}
	return reply, nil
}

// CallJSON calls a target served by HandleJSON: args is sent as plain JSON
// and the JSON answer is unmarshalled into reply.
func (c *Client) CallJSON(ctx context.Context, target string, args, reply interface{}) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return errors.Wrap(err, "encode args")
	}

	resp, err := c.CallRaw(ctx, target, payload)
	if err != nil {
		return err
	}
	if resp.Failed {
		env, err := UnmarshalResponse(resp.Body, true)
		if err != nil {
			return err
		}
		return &RemoteError{Message: env.Message}
	}

	if reply != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, reply); err != nil {
			return newDecodeError(fmt.Sprintf("json %T", reply), err.Error())
		}
	}
	return nil
}
