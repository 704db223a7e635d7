// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/rpc/v2/json2"
	"github.com/stretchr/testify/require"
)

func jsonClient(t *testing.T) *Client {
	t.Helper()
	handler, err := JSONHandler(testRegistry(t))
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := DialClient(context.Background(), server.URL, WithTransport(TransportJSON))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestJSONTransport(t *testing.T) {
	testTransport(t, jsonClient(t))
}

func TestJSONConcurrentCalls(t *testing.T) {
	testBindingsConcurrently(t, jsonClient(t))
}

func TestJSONHandlerWire(t *testing.T) {
	handler, err := JSONHandler(testRegistry(t))
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	defer server.Close()

	body, err := json2.EncodeClientRequest("Invoker.Invoke", &InvokeArgs{
		Target:  "fail",
		Payload: mustRequest(t, Tuple1(String), Args1[string]{"boom"}),
	})
	require.NoError(t, err)

	resp, err := http.Post(server.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer CleanlyCloseBody(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply InvokeReply
	require.NoError(t, json2.DecodeClientResponse(resp.Body, &reply))
	require.True(t, reply.FunctionError)
	require.Equal(t, "boom", failureMessage(t, Reply{Body: reply.Payload, Failed: true}))
}

func TestJSONListen(t *testing.T) {
	server, err := Listen("127.0.0.1:0", testRegistry(t), WithServerTransport(TransportJSON))
	require.NoError(t, err)
	serve(t, server)

	// A bare address is completed with DefaultJSONPath.
	client, err := DialClient(context.Background(), server.Addr(), WithTransport(TransportJSON))
	require.NoError(t, err)
	defer client.Close()

	sum, err := Bind2(client, "add", Int32, Int32, Int32).Call(context.Background(), 20, 22)
	require.NoError(t, err)
	require.Equal(t, int32(42), sum)
}

func TestJSONBadStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client, err := DialClient(context.Background(), server.URL, WithTransport(TransportJSON))
	require.NoError(t, err)
	defer client.Close()

	_, err = Bind2(client, "add", Int32, Int32, Int32).Call(context.Background(), 1, 2)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Contains(t, err.Error(), "received status code: 404")
}

func TestCleanlyCloseBody(t *testing.T) {
	require.NoError(t, CleanlyCloseBody(nil))
}
