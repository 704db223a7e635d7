// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var addSig = Sig(Tuple2(Int32, Int32), Int32)

func add(_ context.Context, a, b int32) (int32, error) { return a + b, nil }

func addRequest(t *testing.T, a, b int32) []byte {
	t.Helper()
	payload, err := Encode(addSig.Args, Args2[int32, int32]{a, b})
	require.NoError(t, err)
	body, err := NewRequest(payload).Marshal()
	require.NoError(t, err)
	return body
}

func decodeSuccess[T any](t *testing.T, typ Type[T], reply Reply) T {
	t.Helper()
	require.False(t, reply.Failed, "unexpected failure: %s", reply.Body)
	env, err := UnmarshalResponse(reply.Body, false)
	require.NoError(t, err)
	v, err := Decode(typ, env.Payload)
	require.NoError(t, err)
	return v
}

func failureMessage(t *testing.T, reply Reply) string {
	t.Helper()
	require.True(t, reply.Failed)
	env, err := UnmarshalResponse(reply.Body, true)
	require.NoError(t, err)
	return env.Message
}

func TestHandleSuccess(t *testing.T) {
	h := Handle2(Int32, Int32, Int32, add)
	reply := h.Respond(context.Background(), addRequest(t, 2, 3))
	require.Equal(t, int32(5), decodeSuccess(t, Int32, reply))
}

func TestHandleIsIdempotent(t *testing.T) {
	h := Handle2(Int32, Int32, Int32, add)
	request := addRequest(t, 20, 22)
	first := h.Respond(context.Background(), request)
	second := h.Respond(context.Background(), request)
	require.Equal(t, first, second)
}

func TestHandleError(t *testing.T) {
	h := Handle1(String, String, func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	})
	body, err := NewRequest(mustEncode(t, Tuple1(String), Args1[string]{"x"})).Marshal()
	require.NoError(t, err)

	reply := h.Respond(context.Background(), body)
	require.Equal(t, "boom", failureMessage(t, reply))
}

func TestHandlePanic(t *testing.T) {
	tests := []struct {
		name  string
		panic interface{}
	}{
		{"error", errors.New("boom")},
		{"string", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handle2(Int32, Int32, Int32, func(context.Context, int32, int32) (int32, error) {
				panic(tt.panic)
			})
			reply := h.Respond(context.Background(), addRequest(t, 1, 1))
			require.Equal(t, "boom", failureMessage(t, reply))
		})
	}
}

func TestHandleFallibleFailure(t *testing.T) {
	h := Handle(Sig(Tuple1(Int32), ResultOf(Int32)), func(_ context.Context, args Args1[int32]) (Result[int32], error) {
		if args.First < 0 {
			return Err[int32]("boom"), nil
		}
		return Ok(args.First * 2), nil
	})

	body, err := NewRequest(mustEncode(t, Tuple1(Int32), Args1[int32]{-1})).Marshal()
	require.NoError(t, err)
	require.Equal(t, "boom", failureMessage(t, h.Respond(context.Background(), body)))

	body, err = NewRequest(mustEncode(t, Tuple1(Int32), Args1[int32]{4})).Marshal()
	require.NoError(t, err)
	require.Equal(t, int32(8), decodeSuccess(t, Int32, h.Respond(context.Background(), body)))
}

func TestHandleBadRequest(t *testing.T) {
	h := Handle2(Int32, Int32, Int32, add)

	msg := failureMessage(t, h.Respond(context.Background(), []byte("garbage")))
	require.Contains(t, msg, "request envelope")

	body, err := NewRequest(mustEncode(t, Tuple2(String, String), Args2[string, string]{"2", "3"})).Marshal()
	require.NoError(t, err)
	msg = failureMessage(t, h.Respond(context.Background(), body))
	require.Equal(t, "decode: argument 0: expected int32, observed string", msg)
}

func TestHandleVoid(t *testing.T) {
	called := false
	h := Handle(Sig(NoArgs, Void), func(context.Context, Args0) (Unit, error) {
		called = true
		return Unit{}, nil
	})
	body, err := NewRequest(nil).Marshal()
	require.NoError(t, err)
	decodeSuccess(t, Void, h.Respond(context.Background(), body))
	require.True(t, called)
}

func TestHandleJSON(t *testing.T) {
	type in struct{ Name string }
	type out struct{ Greeting string }
	h := HandleJSON(func(_ context.Context, i in) (out, error) {
		if i.Name == "" {
			return out{}, errors.New("name required")
		}
		return out{Greeting: "hello " + i.Name}, nil
	})

	reply := h.Respond(context.Background(), []byte(`{"Name":"lux"}`))
	require.False(t, reply.Failed)
	require.JSONEq(t, `{"Greeting":"hello lux"}`, string(reply.Body))

	reply = h.Respond(context.Background(), []byte(`{}`))
	require.Equal(t, "name required", failureMessage(t, reply))
}

func TestHandleRaw(t *testing.T) {
	h := HandleRaw(func(_ context.Context, in json.RawMessage) (json.RawMessage, error) {
		return in, nil
	})
	reply := h.Respond(context.Background(), []byte(`{"a": [1, 2]}`))
	require.False(t, reply.Failed)
	require.JSONEq(t, `{"a":[1,2]}`, string(reply.Body))

	require.True(t, h.Respond(context.Background(), []byte(`{`)).Failed)
}

func TestHandlerFunc(t *testing.T) {
	h := HandlerFunc(func(_ context.Context, request []byte) (Reply, error) {
		if len(request) == 0 {
			return Reply{}, errors.New("empty")
		}
		return Reply{Body: request}, nil
	})
	require.Equal(t, Reply{Body: []byte("x")}, h.Respond(context.Background(), []byte("x")))
	require.Equal(t, "empty", failureMessage(t, h.Respond(context.Background(), nil)))
}

func mustEncode[T any](t *testing.T, typ Type[T], v T) []byte {
	t.Helper()
	data, err := Encode(typ, v)
	require.NoError(t, err)
	return data
}
