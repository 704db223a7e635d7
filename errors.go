// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by transports and servers after Close.
	ErrClosed = errors.New("invoke: closed")

	// ErrUnknownTarget is reported when a registry has no handler for the
	// requested target name.
	ErrUnknownTarget = errors.New("invoke: unknown target")

	// ErrUnknownTransport is returned by Dial and Listen for unregistered
	// transport names.
	ErrUnknownTransport = errors.New("invoke: unknown transport")
)

// DecodeError reports a payload that does not have the shape the decoder
// was asked for. Index is the argument position inside a tuple, or -1.
type DecodeError struct {
	Index    int
	Expected string
	Observed string
}

func newDecodeError(expected, observed string) *DecodeError {
	return &DecodeError{Index: -1, Expected: expected, Observed: observed}
}

func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("decode: argument %d: expected %s, observed %s", e.Index, e.Expected, e.Observed)
	}
	return fmt.Sprintf("decode: expected %s, observed %s", e.Expected, e.Observed)
}

// atIndex tags a DecodeError with the tuple position it came from. Errors
// already tagged by a nested tuple keep their innermost position.
func atIndex(err error, i int) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Index < 0 {
		return &DecodeError{Index: i, Expected: de.Expected, Observed: de.Observed}
	}
	return err
}

// TransportError reports an invocation that could not reach or complete
// against the backend. It is never retried by this package.
type TransportError struct {
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError carries the failure message reported by the remote function
// body. Error returns the message exactly as the remote side produced it.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// IsRemote reports whether err is, or wraps, a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
