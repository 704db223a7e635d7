// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

// Result is the settlement of one invocation: either a value or an error.
// Asynchronous, future and batch paths always deliver a Result. Used as a
// binding's return type (see ResultOf) it also lets synchronous callers
// receive remote failures as values.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err returns a Result carrying a remote application failure with the
// given message.
func Err[T any](message string) Result[T] {
	return Result[T]{err: &RemoteError{Message: message}}
}

// Failed returns a Result carrying err, which is usually a *TransportError,
// *DecodeError or *RemoteError.
func Failed[T any](err error) Result[T] {
	if err == nil {
		panic("invoke: Failed called with nil error")
	}
	return Result[T]{err: err}
}

// IsOk reports whether the Result holds a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the value, or the zero value if the Result failed.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Message returns the failure text, or "" for a successful Result.
func (r Result[T]) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Get unpacks the Result into Go's usual value, error pair.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}
