// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import "context"

// Func1 is a Binding called with one positional argument.
type Func1[A, R any] struct {
	b *Binding[Args1[A], R]
}

// Bind1 binds a one argument function.
func Bind1[A, R any](c *Client, target string, a Type[A], r Type[R]) Func1[A, R] {
	return Func1[A, R]{Bind(c, target, Sig(Tuple1(a), r))}
}

func (f Func1[A, R]) Call(ctx context.Context, a A) (R, error) {
	return f.b.Call(ctx, Args1[A]{a})
}

func (f Func1[A, R]) CallAsync(ctx context.Context, a A, onSettle func(Result[R])) {
	f.b.CallAsync(ctx, Args1[A]{a}, onSettle)
}

func (f Func1[A, R]) Go(ctx context.Context, a A) *Future[R] {
	return f.b.Go(ctx, Args1[A]{a})
}

func (f Func1[A, R]) Binding() *Binding[Args1[A], R] { return f.b }

// Func2 is a Binding called with two positional arguments.
type Func2[A, B, R any] struct {
	b *Binding[Args2[A, B], R]
}

// Bind2 binds a two argument function.
func Bind2[A, B, R any](c *Client, target string, a Type[A], b Type[B], r Type[R]) Func2[A, B, R] {
	return Func2[A, B, R]{Bind(c, target, Sig(Tuple2(a, b), r))}
}

func (f Func2[A, B, R]) Call(ctx context.Context, a A, b B) (R, error) {
	return f.b.Call(ctx, Args2[A, B]{a, b})
}

func (f Func2[A, B, R]) CallAsync(ctx context.Context, a A, b B, onSettle func(Result[R])) {
	f.b.CallAsync(ctx, Args2[A, B]{a, b}, onSettle)
}

func (f Func2[A, B, R]) Go(ctx context.Context, a A, b B) *Future[R] {
	return f.b.Go(ctx, Args2[A, B]{a, b})
}

func (f Func2[A, B, R]) Binding() *Binding[Args2[A, B], R] { return f.b }

// Func3 is a Binding called with three positional arguments.
type Func3[A, B, C, R any] struct {
	b *Binding[Args3[A, B, C], R]
}

// Bind3 binds a three argument function.
func Bind3[A, B, C, R any](c *Client, target string, a Type[A], b Type[B], cc Type[C], r Type[R]) Func3[A, B, C, R] {
	return Func3[A, B, C, R]{Bind(c, target, Sig(Tuple3(a, b, cc), r))}
}

func (f Func3[A, B, C, R]) Call(ctx context.Context, a A, b B, c C) (R, error) {
	return f.b.Call(ctx, Args3[A, B, C]{a, b, c})
}

func (f Func3[A, B, C, R]) CallAsync(ctx context.Context, a A, b B, c C, onSettle func(Result[R])) {
	f.b.CallAsync(ctx, Args3[A, B, C]{a, b, c}, onSettle)
}

func (f Func3[A, B, C, R]) Go(ctx context.Context, a A, b B, c C) *Future[R] {
	return f.b.Go(ctx, Args3[A, B, C]{a, b, c})
}

func (f Func3[A, B, C, R]) Binding() *Binding[Args3[A, B, C], R] { return f.b }
