// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"encoding/base64"
)

// Encode returns the binary encoding of v.
func Encode[T any](t Type[T], v T) ([]byte, error) {
	return t.Append(nil, v)
}

// Decode decodes exactly one value of type t from data. Leftover bytes are
// a shape mismatch, not something to skip.
func Decode[T any](t Type[T], data []byte) (T, error) {
	v, n, err := t.Consume(data)
	if err != nil {
		var zero T
		return zero, err
	}
	if n != len(data) {
		var zero T
		return zero, newDecodeError("end of "+t.Name(), "trailing "+describe(data[n:]))
	}
	return v, nil
}

// EncodeText maps binary payloads onto text so they can ride inside the
// JSON envelope.
func EncodeText(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeText reverses EncodeText.
func DecodeText(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, newDecodeError("base64 text", err.Error())
	}
	return data, nil
}
