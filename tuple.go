// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import "strings"

// Argument tuples. Fields are encoded positionally in declaration order.
type (
	Args0 struct{}

	Args1[A any] struct {
		First A
	}

	Args2[A, B any] struct {
		First  A
		Second B
	}

	Args3[A, B, C any] struct {
		First  A
		Second B
		Third  C
	}

	Args4[A, B, C, D any] struct {
		First  A
		Second B
		Third  C
		Fourth D
	}
)

func tupleName(names ...string) string {
	return "(" + strings.Join(names, ", ") + ")"
}

// NoArgs is the codec for functions without arguments.
var NoArgs Type[Args0] = args0Type{}

type args0Type struct{}

func (args0Type) Name() string { return tupleName() }

func (args0Type) Append(b []byte, _ Args0) ([]byte, error) { return b, nil }

func (args0Type) Consume([]byte) (Args0, int, error) { return Args0{}, 0, nil }

// Tuple1 returns the codec for one argument.
func Tuple1[A any](a Type[A]) Type[Args1[A]] {
	return args1Type[A]{a}
}

type args1Type[A any] struct {
	a Type[A]
}

func (t args1Type[A]) Name() string { return tupleName(t.a.Name()) }

func (t args1Type[A]) Append(b []byte, v Args1[A]) ([]byte, error) {
	return t.a.Append(b, v.First)
}

func (t args1Type[A]) Consume(b []byte) (Args1[A], int, error) {
	a, n, err := t.a.Consume(b)
	if err != nil {
		return Args1[A]{}, 0, atIndex(err, 0)
	}
	return Args1[A]{First: a}, n, nil
}

// Tuple2 returns the codec for two arguments.
func Tuple2[A, B any](a Type[A], b Type[B]) Type[Args2[A, B]] {
	return args2Type[A, B]{a, b}
}

type args2Type[A, B any] struct {
	a Type[A]
	b Type[B]
}

func (t args2Type[A, B]) Name() string { return tupleName(t.a.Name(), t.b.Name()) }

func (t args2Type[A, B]) Append(b []byte, v Args2[A, B]) ([]byte, error) {
	b, err := t.a.Append(b, v.First)
	if err != nil {
		return nil, err
	}
	return t.b.Append(b, v.Second)
}

func (t args2Type[A, B]) Consume(b []byte) (Args2[A, B], int, error) {
	var v Args2[A, B]
	var off, n int
	var err error
	if v.First, n, err = t.a.Consume(b); err != nil {
		return v, 0, atIndex(err, 0)
	}
	off += n
	if v.Second, n, err = t.b.Consume(b[off:]); err != nil {
		return v, 0, atIndex(err, 1)
	}
	return v, off + n, nil
}

// Tuple3 returns the codec for three arguments.
func Tuple3[A, B, C any](a Type[A], b Type[B], c Type[C]) Type[Args3[A, B, C]] {
	return args3Type[A, B, C]{a, b, c}
}

type args3Type[A, B, C any] struct {
	a Type[A]
	b Type[B]
	c Type[C]
}

func (t args3Type[A, B, C]) Name() string {
	return tupleName(t.a.Name(), t.b.Name(), t.c.Name())
}

func (t args3Type[A, B, C]) Append(b []byte, v Args3[A, B, C]) ([]byte, error) {
	b, err := t.a.Append(b, v.First)
	if err != nil {
		return nil, err
	}
	if b, err = t.b.Append(b, v.Second); err != nil {
		return nil, err
	}
	return t.c.Append(b, v.Third)
}

func (t args3Type[A, B, C]) Consume(b []byte) (Args3[A, B, C], int, error) {
	var v Args3[A, B, C]
	var off, n int
	var err error
	if v.First, n, err = t.a.Consume(b); err != nil {
		return v, 0, atIndex(err, 0)
	}
	off += n
	if v.Second, n, err = t.b.Consume(b[off:]); err != nil {
		return v, 0, atIndex(err, 1)
	}
	off += n
	if v.Third, n, err = t.c.Consume(b[off:]); err != nil {
		return v, 0, atIndex(err, 2)
	}
	return v, off + n, nil
}

// Tuple4 returns the codec for four arguments.
func Tuple4[A, B, C, D any](a Type[A], b Type[B], c Type[C], d Type[D]) Type[Args4[A, B, C, D]] {
	return args4Type[A, B, C, D]{a, b, c, d}
}

type args4Type[A, B, C, D any] struct {
	a Type[A]
	b Type[B]
	c Type[C]
	d Type[D]
}

func (t args4Type[A, B, C, D]) Name() string {
	return tupleName(t.a.Name(), t.b.Name(), t.c.Name(), t.d.Name())
}

func (t args4Type[A, B, C, D]) Append(b []byte, v Args4[A, B, C, D]) ([]byte, error) {
	b, err := t.a.Append(b, v.First)
	if err != nil {
		return nil, err
	}
	if b, err = t.b.Append(b, v.Second); err != nil {
		return nil, err
	}
	if b, err = t.c.Append(b, v.Third); err != nil {
		return nil, err
	}
	return t.d.Append(b, v.Fourth)
}

func (t args4Type[A, B, C, D]) Consume(b []byte) (Args4[A, B, C, D], int, error) {
	var v Args4[A, B, C, D]
	var off, n int
	var err error
	if v.First, n, err = t.a.Consume(b); err != nil {
		return v, 0, atIndex(err, 0)
	}
	off += n
	if v.Second, n, err = t.b.Consume(b[off:]); err != nil {
		return v, 0, atIndex(err, 1)
	}
	off += n
	if v.Third, n, err = t.c.Consume(b[off:]); err != nil {
		return v, 0, atIndex(err, 2)
	}
	off += n
	if v.Fourth, n, err = t.d.Consume(b[off:]); err != nil {
		return v, 0, atIndex(err, 3)
	}
	return v, off + n, nil
}
