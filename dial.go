// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Dial opens a transport to addr using the default transport (ZAP).
// Use WithTransport for transport selection.
func Dial(ctx context.Context, addr string, opts ...DialOption) (Transport, error) {
	o := newDialOptions(opts)
	entry, ok := lookupTransport(o.transport)
	if !ok || entry.dial == nil {
		return nil, errors.Wrapf(ErrUnknownTransport, "dial %q", o.transport)
	}
	return entry.dial(ctx, addr, o)
}

// Listen creates a server for reg using the default transport (ZAP).
func Listen(addr string, reg *Registry, opts ...ServerOption) (Server, error) {
	o := newServerOptions(opts)
	entry, ok := lookupTransport(o.transport)
	if !ok || entry.listen == nil {
		return nil, errors.Wrapf(ErrUnknownTransport, "listen %q", o.transport)
	}
	return entry.listen(addr, reg, o)
}

// dialZAP creates a ZAP transport
func dialZAP(ctx context.Context, addr string, o *dialOptions) (Transport, error) {
	dial := (&net.Dialer{}).DialContext
	if o.dialer != nil {
		dial = func(ctx context.Context, _, addr string) (net.Conn, error) {
			return o.dialer(ctx, addr)
		}
	}
	conn, err := zapDial(ctx, addr, dial)
	if err != nil {
		return nil, err
	}
	o.logger.Info("zap transport connected", zap.String("addr", addr))
	return &zapTransport{
		conn: conn,
		pool: newWorkers(o.maxConcurrency, o.logger),
	}, nil
}

// listenZAP creates a ZAP server
func listenZAP(addr string, reg *Registry, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &zapServer{
		server: NewZAPServer(listener, ZAPHandlerFunc(reg.Dispatch), o.logger),
	}, nil
}

// zapTransport implements Transport using a ZAP connection
type zapTransport struct {
	conn *ZAPConn
	pool *workers
}

func (t *zapTransport) Invoke(ctx context.Context, target string, request []byte) (Reply, error) {
	return t.pool.do(ctx, func(ctx context.Context) (Reply, error) {
		return t.conn.Call(ctx, target, request)
	})
}

func (t *zapTransport) InvokeAsync(ctx context.Context, target string, request []byte, done func(Reply, error)) {
	t.pool.goDo(ctx, func(ctx context.Context) (Reply, error) {
		return t.conn.Call(ctx, target, request)
	}, done)
}

func (t *zapTransport) Close() error {
	return t.conn.Close()
}

// zapServer implements Server using ZAP transport
type zapServer struct {
	server *ZAPServer
}

func (s *zapServer) Serve(ctx context.Context) error {
	return s.server.Serve(ctx)
}

func (s *zapServer) Close() error {
	return s.server.Close()
}

func (s *zapServer) Addr() string {
	return s.server.Addr().String()
}
