// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the three envelope shapes.
type Kind uint8

const (
	KindRequest Kind = iota + 1
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Envelope is the transport neutral container for one request or
// response. Payload holds codec output for requests and successes,
// Message holds the failure text of error responses.
type Envelope struct {
	Kind    Kind
	Payload []byte
	Message string
}

// Wire shapes:
//
//	request  {"serialized": "<base64>"}
//	success  {"value": "<base64>"}
//	error    {"errorMessage": "<text>"}
type (
	requestWire struct {
		Serialized *string `json:"serialized"`
	}
	successWire struct {
		Value *string `json:"value"`
	}
	errorWire struct {
		ErrorMessage *string `json:"errorMessage"`
	}
)

// NewRequest wraps encoded arguments.
func NewRequest(payload []byte) Envelope {
	return Envelope{Kind: KindRequest, Payload: payload}
}

// NewSuccess wraps an encoded return value.
func NewSuccess(payload []byte) Envelope {
	return Envelope{Kind: KindSuccess, Payload: payload}
}

// NewFailure builds an error response.
func NewFailure(message string) Envelope {
	return Envelope{Kind: KindError, Message: message}
}

// Marshal renders the envelope in its text wire format.
func (e Envelope) Marshal() ([]byte, error) {
	switch e.Kind {
	case KindRequest:
		s := EncodeText(e.Payload)
		return json.Marshal(requestWire{Serialized: &s})
	case KindSuccess:
		s := EncodeText(e.Payload)
		return json.Marshal(successWire{Value: &s})
	case KindError:
		m := e.Message
		return json.Marshal(errorWire{ErrorMessage: &m})
	default:
		return nil, errors.Errorf("marshal envelope: unknown %s", e.Kind)
	}
}

// UnmarshalRequest parses a request envelope.
func UnmarshalRequest(data []byte) (Envelope, error) {
	var w requestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, newDecodeError("request envelope", err.Error())
	}
	if w.Serialized == nil {
		return Envelope{}, newDecodeError("request envelope", `object without "serialized"`)
	}
	payload, err := DecodeText(*w.Serialized)
	if err != nil {
		return Envelope{}, err
	}
	return NewRequest(payload), nil
}

// UnmarshalResponse parses a response envelope. failed is the transport's
// out of band signal that the body is an error response.
func UnmarshalResponse(data []byte, failed bool) (Envelope, error) {
	if failed {
		var w errorWire
		if err := json.Unmarshal(data, &w); err != nil {
			return Envelope{}, newDecodeError("error envelope", err.Error())
		}
		if w.ErrorMessage == nil {
			return Envelope{}, newDecodeError("error envelope", `object without "errorMessage"`)
		}
		return NewFailure(*w.ErrorMessage), nil
	}

	var w successWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, newDecodeError("success envelope", err.Error())
	}
	if w.Value == nil {
		return Envelope{}, newDecodeError("success envelope", `object without "value"`)
	}
	payload, err := DecodeText(*w.Value)
	if err != nil {
		return Envelope{}, err
	}
	return NewSuccess(payload), nil
}
