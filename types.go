// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Type is the codec for one value type. Each encoded value starts with a
// wire tag whose field number identifies the type, so a decoder can name
// what it observed when the shape does not match.
type Type[T any] interface {
	// Name is the human readable shape used in decode errors.
	Name() string

	// Append encodes v onto the end of b.
	Append(b []byte, v T) ([]byte, error)

	// Consume decodes one value from the front of b and reports how many
	// bytes it used.
	Consume(b []byte) (T, int, error)
}

// Fallible is implemented by error-aware result types. A binding whose
// result type is Fallible receives remote failures as values instead of
// errors, and a handler returning a failed value responds with an error
// envelope.
type Fallible[T any] interface {
	Type[T]
	FromFailure(message string) T
	Failure(v T) (message string, failed bool)
}

type tag protowire.Number

const (
	tagBool tag = 1 + iota
	tagInt32
	tagInt64
	tagFloat32
	tagFloat64
	tagString
	tagRaw
	tagUnit
	tagJSON
)

var tagNames = map[tag]string{
	tagBool:    "bool",
	tagInt32:   "int32",
	tagInt64:   "int64",
	tagFloat32: "float32",
	tagFloat64: "float64",
	tagString:  "string",
	tagRaw:     "raw",
	tagUnit:    "unit",
	tagJSON:    "json",
}

func (t tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("field %d", int32(t))
}

// describe names the shape of the value at the front of b.
func describe(b []byte) string {
	if len(b) == 0 {
		return "end of input"
	}
	num, _, n := protowire.ConsumeTag(b)
	if n < 0 {
		return "malformed tag"
	}
	return tag(num).String()
}

func consumeTag(b []byte, want tag, wt protowire.Type) (int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return 0, newDecodeError(want.String(), describe(b))
	}
	if tag(num) != want || typ != wt {
		return 0, newDecodeError(want.String(), tag(num).String())
	}
	return n, nil
}

func truncated(t tag) error {
	return newDecodeError(t.String(), "truncated value")
}

var (
	Bool    Type[bool]            = boolType{}
	Int32   Type[int32]           = int32Type{}
	Int64   Type[int64]           = int64Type{}
	Float32 Type[float32]         = float32Type{}
	Float64 Type[float64]         = float64Type{}
	String  Type[string]          = stringType{}
	Raw     Type[json.RawMessage] = rawType{}
	Void    Type[Unit]            = unitType{}
)

// Unit is the result of functions that return nothing.
type Unit struct{}

type boolType struct{}

func (boolType) Name() string { return tagBool.String() }

func (boolType) Append(b []byte, v bool) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagBool), protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v)), nil
}

func (boolType) Consume(b []byte) (bool, int, error) {
	n, err := consumeTag(b, tagBool, protowire.VarintType)
	if err != nil {
		return false, 0, err
	}
	v, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return false, 0, truncated(tagBool)
	}
	if v > 1 {
		return false, 0, newDecodeError(tagBool.String(), fmt.Sprintf("varint %d", v))
	}
	return v == 1, n + m, nil
}

type int32Type struct{}

func (int32Type) Name() string { return tagInt32.String() }

func (int32Type) Append(b []byte, v int32) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagInt32), protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v))), nil
}

func (int32Type) Consume(b []byte) (int32, int, error) {
	n, err := consumeTag(b, tagInt32, protowire.VarintType)
	if err != nil {
		return 0, 0, err
	}
	u, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return 0, 0, truncated(tagInt32)
	}
	v := protowire.DecodeZigZag(u)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, 0, newDecodeError(tagInt32.String(), fmt.Sprintf("out of range value %d", v))
	}
	return int32(v), n + m, nil
}

type int64Type struct{}

func (int64Type) Name() string { return tagInt64.String() }

func (int64Type) Append(b []byte, v int64) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagInt64), protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v)), nil
}

func (int64Type) Consume(b []byte) (int64, int, error) {
	n, err := consumeTag(b, tagInt64, protowire.VarintType)
	if err != nil {
		return 0, 0, err
	}
	u, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return 0, 0, truncated(tagInt64)
	}
	return protowire.DecodeZigZag(u), n + m, nil
}

type float32Type struct{}

func (float32Type) Name() string { return tagFloat32.String() }

func (float32Type) Append(b []byte, v float32) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagFloat32), protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v)), nil
}

func (float32Type) Consume(b []byte) (float32, int, error) {
	n, err := consumeTag(b, tagFloat32, protowire.Fixed32Type)
	if err != nil {
		return 0, 0, err
	}
	u, m := protowire.ConsumeFixed32(b[n:])
	if m < 0 {
		return 0, 0, truncated(tagFloat32)
	}
	return math.Float32frombits(u), n + m, nil
}

type float64Type struct{}

func (float64Type) Name() string { return tagFloat64.String() }

func (float64Type) Append(b []byte, v float64) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagFloat64), protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v)), nil
}

func (float64Type) Consume(b []byte) (float64, int, error) {
	n, err := consumeTag(b, tagFloat64, protowire.Fixed64Type)
	if err != nil {
		return 0, 0, err
	}
	u, m := protowire.ConsumeFixed64(b[n:])
	if m < 0 {
		return 0, 0, truncated(tagFloat64)
	}
	return math.Float64frombits(u), n + m, nil
}

type stringType struct{}

func (stringType) Name() string { return tagString.String() }

func (stringType) Append(b []byte, v string) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagString), protowire.BytesType)
	return protowire.AppendString(b, v), nil
}

func (stringType) Consume(b []byte) (string, int, error) {
	n, err := consumeTag(b, tagString, protowire.BytesType)
	if err != nil {
		return "", 0, err
	}
	v, m := protowire.ConsumeString(b[n:])
	if m < 0 {
		return "", 0, truncated(tagString)
	}
	return v, n + m, nil
}

// rawType carries an already structured value (usually JSON) through the
// codec untouched.
type rawType struct{}

func (rawType) Name() string { return tagRaw.String() }

func (rawType) Append(b []byte, v json.RawMessage) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagRaw), protowire.BytesType)
	return protowire.AppendBytes(b, v), nil
}

func (rawType) Consume(b []byte) (json.RawMessage, int, error) {
	n, err := consumeTag(b, tagRaw, protowire.BytesType)
	if err != nil {
		return nil, 0, err
	}
	v, m := protowire.ConsumeBytes(b[n:])
	if m < 0 {
		return nil, 0, truncated(tagRaw)
	}
	return append(json.RawMessage(nil), v...), n + m, nil
}

type unitType struct{}

func (unitType) Name() string { return tagUnit.String() }

func (unitType) Append(b []byte, _ Unit) ([]byte, error) {
	b = protowire.AppendTag(b, protowire.Number(tagUnit), protowire.VarintType)
	return protowire.AppendVarint(b, 0), nil
}

func (unitType) Consume(b []byte) (Unit, int, error) {
	n, err := consumeTag(b, tagUnit, protowire.VarintType)
	if err != nil {
		return Unit{}, 0, err
	}
	_, m := protowire.ConsumeVarint(b[n:])
	if m < 0 {
		return Unit{}, 0, truncated(tagUnit)
	}
	return Unit{}, n + m, nil
}

// JSON returns a codec for structured values marshalled with
// encoding/json.
func JSON[T any]() Type[T] {
	var zero T
	return jsonType[T]{name: fmt.Sprintf("json %T", zero)}
}

type jsonType[T any] struct {
	name string
}

func (t jsonType[T]) Name() string { return t.name }

func (t jsonType[T]) Append(b []byte, v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", t.name)
	}
	b = protowire.AppendTag(b, protowire.Number(tagJSON), protowire.BytesType)
	return protowire.AppendBytes(b, data), nil
}

func (t jsonType[T]) Consume(b []byte) (T, int, error) {
	var v T
	n, err := consumeTag(b, tagJSON, protowire.BytesType)
	if err != nil {
		return v, 0, err
	}
	data, m := protowire.ConsumeBytes(b[n:])
	if m < 0 {
		return v, 0, truncated(tagJSON)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, 0, newDecodeError(t.name, err.Error())
	}
	return v, n + m, nil
}

// ResultOf returns the error-aware form of inner. Successful results are
// encoded exactly like inner, failures travel as error envelopes.
func ResultOf[T any](inner Type[T]) Fallible[Result[T]] {
	return resultType[T]{inner: inner}
}

type resultType[T any] struct {
	inner Type[T]
}

func (t resultType[T]) Name() string { return "result " + t.inner.Name() }

func (t resultType[T]) Append(b []byte, v Result[T]) ([]byte, error) {
	if v.err != nil {
		return nil, errors.Errorf("cannot encode failed %s: %v", t.Name(), v.err)
	}
	return t.inner.Append(b, v.value)
}

func (t resultType[T]) Consume(b []byte) (Result[T], int, error) {
	v, n, err := t.inner.Consume(b)
	if err != nil {
		return Result[T]{}, 0, err
	}
	return Ok(v), n, nil
}

func (resultType[T]) FromFailure(message string) Result[T] {
	return Err[T](message)
}

func (resultType[T]) Failure(v Result[T]) (string, bool) {
	if v.err == nil {
		return "", false
	}
	return v.err.Error(), true
}
