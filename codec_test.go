// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTrip[T any](t *testing.T, typ Type[T], v T) {
	t.Helper()
	data, err := Encode(typ, v)
	require.NoError(t, err)
	got, err := Decode(typ, data)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestScalarRoundTrip(t *testing.T) {
	roundTrip(t, Bool, true)
	roundTrip(t, Bool, false)
	roundTrip(t, Int32, int32(math.MinInt32))
	roundTrip(t, Int32, int32(-7))
	roundTrip(t, Int32, int32(math.MaxInt32))
	roundTrip(t, Int64, int64(math.MinInt64))
	roundTrip(t, Int64, int64(1)<<40)
	roundTrip(t, Float32, float32(3.25))
	roundTrip(t, Float64, math.Inf(-1))
	roundTrip(t, Float64, 0.1)
	roundTrip(t, String, "")
	roundTrip(t, String, "héllo, world")
	roundTrip(t, Raw, json.RawMessage(`{"a":[1,2]}`))
	roundTrip(t, Void, Unit{})
}

func TestFloatNaN(t *testing.T) {
	data, err := Encode(Float64, math.NaN())
	require.NoError(t, err)
	got, err := Decode(Float64, data)
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}

type point struct {
	X, Y int
	Tag  string
}

func TestJSONRoundTrip(t *testing.T) {
	roundTrip(t, JSON[point](), point{X: 1, Y: -2, Tag: "p"})
	roundTrip(t, JSON[[]string](), []string{"a", "b"})
}

func TestTupleRoundTrip(t *testing.T) {
	roundTrip(t, NoArgs, Args0{})
	roundTrip(t, Tuple1(String), Args1[string]{"x"})
	roundTrip(t, Tuple2(Int32, Int32), Args2[int32, int32]{2, 3})
	roundTrip(t, Tuple3(Float64, Int32, Bool), Args3[float64, int32, bool]{1.5, 10, true})
	roundTrip(t, Tuple4(String, Int64, Raw, Void), Args4[string, int64, json.RawMessage, Unit]{
		"a", 9, json.RawMessage(`null`), Unit{},
	})
}

func TestTupleIsConcatenation(t *testing.T) {
	a, err := Encode(Int32, 2)
	require.NoError(t, err)
	b, err := Encode(String, "three")
	require.NoError(t, err)
	tuple, err := Encode(Tuple2(Int32, String), Args2[int32, string]{2, "three"})
	require.NoError(t, err)
	require.Equal(t, append(a, b...), tuple)
}

func TestNoArgsIsEmpty(t *testing.T) {
	data, err := Encode(NoArgs, Args0{})
	require.NoError(t, err)
	require.Empty(t, data)
}

func requireDecodeError(t *testing.T, err error, index int, expected, observed string) {
	t.Helper()
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, index, de.Index)
	require.Equal(t, expected, de.Expected)
	require.Equal(t, observed, de.Observed)
}

func TestDecodeTypeMismatch(t *testing.T) {
	data, err := Encode(String, "five")
	require.NoError(t, err)
	_, err = Decode(Int32, data)
	requireDecodeError(t, err, -1, "int32", "string")
}

func TestDecodeTupleMismatch(t *testing.T) {
	data, err := Encode(Tuple2(Int32, String), Args2[int32, string]{1, "x"})
	require.NoError(t, err)

	_, err = Decode(Tuple2(Int32, Int32), data)
	requireDecodeError(t, err, 1, "int32", "string")
	require.EqualError(t, err, "decode: argument 1: expected int32, observed string")
}

func TestDecodeTooFewArguments(t *testing.T) {
	data, err := Encode(Tuple1(Int32), Args1[int32]{1})
	require.NoError(t, err)

	_, err = Decode(Tuple2(Int32, Int32), data)
	requireDecodeError(t, err, 1, "int32", "end of input")
}

func TestDecodeTooManyArguments(t *testing.T) {
	data, err := Encode(Tuple2(Int32, Int32), Args2[int32, int32]{1, 2})
	require.NoError(t, err)

	_, err = Decode(Tuple1(Int32), data)
	requireDecodeError(t, err, -1, "end of (int32)", "trailing int32")
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(String, "truncate me")
	require.NoError(t, err)
	_, err = Decode(String, data[:len(data)-3])
	requireDecodeError(t, err, -1, "string", "truncated value")

	_, err = Decode(Int32, nil)
	requireDecodeError(t, err, -1, "int32", "end of input")
}

func TestDecodeInt32OutOfRange(t *testing.T) {
	data, err := Encode(Int64, int64(math.MaxInt32)+1)
	require.NoError(t, err)
	// int64 carries a different tag, so re-tag the value as int32
	data[0] = int32TagByte(t)
	_, err = Decode(Int32, data)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "int32", de.Expected)
}

func int32TagByte(t *testing.T) byte {
	data, err := Encode(Int32, 0)
	require.NoError(t, err)
	return data[0]
}

func TestDecodeBoolRejectsLargeVarint(t *testing.T) {
	data, err := Encode(Bool, true)
	require.NoError(t, err)
	data[1] = 2
	_, err = Decode(Bool, data)
	requireDecodeError(t, err, -1, "bool", "varint 2")
}

func TestResultOf(t *testing.T) {
	typ := ResultOf(Int32)

	data, err := Encode[Result[int32]](typ, Ok[int32](4))
	require.NoError(t, err)
	plain, err := Encode(Int32, 4)
	require.NoError(t, err)
	require.Equal(t, plain, data)

	got, err := Decode[Result[int32]](typ, data)
	require.NoError(t, err)
	require.True(t, got.IsOk())
	require.Equal(t, int32(4), got.Value())

	_, err = Encode[Result[int32]](typ, Err[int32]("boom"))
	require.Error(t, err)

	msg, failed := typ.Failure(Err[int32]("boom"))
	require.True(t, failed)
	require.Equal(t, "boom", msg)

	r := typ.FromFailure("bad")
	require.False(t, r.IsOk())
	require.Equal(t, "bad", r.Message())
}

func TestTextRoundTrip(t *testing.T) {
	for _, data := range [][]byte{nil, {0}, {0xff, 0xfe, 0x00, 0x01}, []byte("plain")} {
		got, err := DecodeText(EncodeText(data))
		require.NoError(t, err)
		require.Equal(t, len(data), len(got))
		if len(data) > 0 {
			require.Equal(t, data, got)
		}
	}

	_, err := DecodeText("not base64!")
	requireDecodeError(t, err, -1, "base64 text", "illegal base64 data at input byte 3")
}
