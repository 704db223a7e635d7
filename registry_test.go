// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testRegistry serves the functions used throughout the package tests.
func testRegistry(t *testing.T, opts ...ServerOption) *Registry {
	t.Helper()
	reg := NewRegistry(opts...)
	reg.MustRegister("add", Handle2(Int32, Int32, Int32, add))
	reg.MustRegister("concat", Handle2(String, String, String, func(_ context.Context, a, b string) (string, error) {
		return a + b, nil
	}))
	reg.MustRegister("fail", Handle1(String, String, func(_ context.Context, msg string) (string, error) {
		return "", errors.New(msg)
	}))
	reg.MustRegister("panic", Handle(Sig(NoArgs, Int32), func(context.Context, Args0) (int32, error) {
		panic("boom")
	}))
	reg.MustRegister("checked", Handle1(Int32, ResultOf(Int32), func(_ context.Context, v int32) (Result[int32], error) {
		if v < 0 {
			return Err[int32]("negative"), nil
		}
		return Ok(v), nil
	}))
	reg.MustRegister("sleep", Handle1(Int64, Int64, func(ctx context.Context, ms int64) (int64, error) {
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			return ms, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}))
	reg.MustRegister("echo_bool", echo(Bool))
	reg.MustRegister("echo_float32", echo(Float32))
	reg.MustRegister("echo_float64", echo(Float64))
	reg.MustRegister("echo_raw", echo(Raw))
	reg.MustRegister("echo_void", echo(Void))
	reg.MustRegister("echo_json", echo(JSON[point]()))
	return reg
}

func echo[T any](typ Type[T]) Handler {
	return Handle1(typ, typ, func(_ context.Context, v T) (T, error) { return v, nil })
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	h := Handle2(Int32, Int32, Int32, add)

	require.NoError(t, reg.Register("add", h))
	require.Error(t, reg.Register("add", h))
	require.Error(t, reg.Register("", h))
	require.Error(t, reg.Register("nil", nil))
	require.Panics(t, func() { reg.MustRegister("add", h) })

	got, ok := reg.Lookup("add")
	require.True(t, ok)
	require.Equal(t, h, got)

	_, ok = reg.Lookup("missing")
	require.False(t, ok)
}

func TestRegistryTargets(t *testing.T) {
	reg := testRegistry(t)
	require.Equal(t, []string{
		"add", "checked", "concat",
		"echo_bool", "echo_float32", "echo_float64", "echo_json", "echo_raw", "echo_void",
		"fail", "panic", "sleep",
	}, reg.Targets())
}

func TestRegistryDispatch(t *testing.T) {
	reg := testRegistry(t)

	reply, err := reg.Dispatch(context.Background(), "add", addRequest(t, 2, 3))
	require.NoError(t, err)
	require.Equal(t, int32(5), decodeSuccess(t, Int32, reply))

	_, err = reg.Dispatch(context.Background(), "missing", addRequest(t, 2, 3))
	require.ErrorIs(t, err, ErrUnknownTarget)
	require.Contains(t, err.Error(), `"missing"`)
}

func TestRegistryDispatchFailureIsReply(t *testing.T) {
	reg := testRegistry(t)
	body, err := NewRequest(nil).Marshal()
	require.NoError(t, err)

	reply, err := reg.Dispatch(context.Background(), "panic", body)
	require.NoError(t, err)
	require.Equal(t, "boom", failureMessage(t, reply))
}
