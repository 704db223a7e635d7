// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func grpcClient(t *testing.T) *Client {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	serve(t, NewGRPCServer(listener, testRegistry(t)))

	client, err := DialClient(context.Background(), "passthrough:///bufnet",
		WithTransport(TransportGRPC),
		WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCTransport(t *testing.T) {
	testTransport(t, grpcClient(t))
}

func TestGRPCConcurrentCalls(t *testing.T) {
	testBindingsConcurrently(t, grpcClient(t))
}

func TestGRPCUnknownTargetStatus(t *testing.T) {
	c := grpcClient(t)
	_, err := c.CallRaw(context.Background(), "subtract", addRequest(t, 1, 2))
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCFunctionErrorTrailer(t *testing.T) {
	c := grpcClient(t)
	reply, err := c.CallRaw(context.Background(), "fail", mustRequest(t, Tuple1(String), Args1[string]{"boom"}))
	require.NoError(t, err)
	require.True(t, reply.Failed)
	require.Equal(t, "boom", failureMessage(t, reply))
}

func TestGRPCListen(t *testing.T) {
	server, err := Listen("127.0.0.1:0", testRegistry(t), WithServerTransport(TransportGRPC))
	require.NoError(t, err)
	serve(t, server)

	client, err := DialClient(context.Background(), server.Addr(), WithTransport(TransportGRPC))
	require.NoError(t, err)
	defer client.Close()

	sum, err := Bind2(client, "add", Int32, Int32, Int32).Call(context.Background(), 20, 22)
	require.NoError(t, err)
	require.Equal(t, int32(42), sum)
}

func TestRawCodec(t *testing.T) {
	var c rawCodec
	data, err := c.Marshal([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)

	b := []byte("y")
	data, err = c.Marshal(&b)
	require.NoError(t, err)
	require.Equal(t, []byte("y"), data)

	_, err = c.Marshal("z")
	require.Error(t, err)

	var out []byte
	require.NoError(t, c.Unmarshal([]byte("abc"), &out))
	require.Equal(t, []byte("abc"), out)
	require.Error(t, c.Unmarshal([]byte("abc"), out))
}
