// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler is the remote side entrypoint for one target. Respond never
// fails: every error and panic raised while serving the request is turned
// into an error envelope.
type Handler interface {
	Respond(ctx context.Context, request []byte) Reply
}

// HandlerFunc receives the raw request body and builds the Reply itself.
// A returned error becomes an error envelope carrying its message.
type HandlerFunc func(ctx context.Context, request []byte) (Reply, error)

func (f HandlerFunc) Respond(ctx context.Context, request []byte) Reply {
	return respond(ctx, func(ctx context.Context) (Reply, error) {
		return f(ctx, request)
	})
}

// Handle adapts fn to a Handler: the request envelope is decoded with
// sig.Args, fn is called, and its result is encoded with sig.Result.
func Handle[A, R any](sig Signature[A, R], fn func(context.Context, A) (R, error)) Handler {
	h := &typedHandler[A, R]{sig: sig, fn: fn}
	h.fallible, _ = sig.Result.(Fallible[R])
	return h
}

// Handle1 adapts a one argument function.
func Handle1[A, R any](a Type[A], r Type[R], fn func(context.Context, A) (R, error)) Handler {
	return Handle(Sig(Tuple1(a), r), func(ctx context.Context, args Args1[A]) (R, error) {
		return fn(ctx, args.First)
	})
}

// Handle2 adapts a two argument function.
func Handle2[A, B, R any](a Type[A], b Type[B], r Type[R], fn func(context.Context, A, B) (R, error)) Handler {
	return Handle(Sig(Tuple2(a, b), r), func(ctx context.Context, args Args2[A, B]) (R, error) {
		return fn(ctx, args.First, args.Second)
	})
}

// Handle3 adapts a three argument function.
func Handle3[A, B, C, R any](a Type[A], b Type[B], c Type[C], r Type[R], fn func(context.Context, A, B, C) (R, error)) Handler {
	return Handle(Sig(Tuple3(a, b, c), r), func(ctx context.Context, args Args3[A, B, C]) (R, error) {
		return fn(ctx, args.First, args.Second, args.Third)
	})
}

type typedHandler[A, R any] struct {
	sig      Signature[A, R]
	fn       func(context.Context, A) (R, error)
	fallible Fallible[R]
}

func (h *typedHandler[A, R]) Respond(ctx context.Context, request []byte) Reply {
	return respond(ctx, func(ctx context.Context) (Reply, error) {
		env, err := UnmarshalRequest(request)
		if err != nil {
			return Reply{}, err
		}
		args, err := Decode(h.sig.Args, env.Payload)
		if err != nil {
			return Reply{}, err
		}
		result, err := h.fn(ctx, args)
		if err != nil {
			return Reply{}, err
		}
		if h.fallible != nil {
			if message, failed := h.fallible.Failure(result); failed {
				return failureReply(message), nil
			}
		}
		payload, err := Encode(h.sig.Result, result)
		if err != nil {
			return Reply{}, err
		}
		body, err := NewSuccess(payload).Marshal()
		if err != nil {
			return Reply{}, err
		}
		return Reply{Body: body}, nil
	})
}

// HandleJSON serves targets whose request body is plain JSON rather than a
// request envelope. The input is unmarshalled into In and the output is
// written back as JSON with no envelope, the counterpart of Client.CallJSON.
func HandleJSON[In, Out any](fn func(context.Context, In) (Out, error)) Handler {
	return HandlerFunc(func(ctx context.Context, request []byte) (Reply, error) {
		var in In
		if err := json.Unmarshal(request, &in); err != nil {
			return Reply{}, newDecodeError(fmt.Sprintf("json %T", in), err.Error())
		}
		out, err := fn(ctx, in)
		if err != nil {
			return Reply{}, err
		}
		body, err := json.Marshal(out)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Body: body}, nil
	})
}

// HandleRaw serves raw structured input: the request body is handed to fn
// as is and its answer is returned as the response body.
func HandleRaw(fn func(context.Context, json.RawMessage) (json.RawMessage, error)) Handler {
	return HandleJSON(fn)
}

// respond is the single point where handler failures are caught.
func respond(ctx context.Context, fn func(context.Context) (Reply, error)) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			switch r := r.(type) {
			case error:
				reply = failureReply(r.Error())
			default:
				reply = failureReply(fmt.Sprint(r))
			}
		}
	}()

	reply, err := fn(ctx)
	if err != nil {
		return failureReply(err.Error())
	}
	return reply
}

func failureReply(message string) Reply {
	body, err := NewFailure(message).Marshal()
	if err != nil {
		body = []byte(`{"errorMessage":"invoke: unencodable failure message"}`)
	}
	return Reply{Body: body, Failed: true}
}
