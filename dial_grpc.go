// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	// grpcService prefixes every method; the method name is the target.
	grpcService = "/invoke.Invoker/"

	// functionErrorKey is the trailer marking a handler failure, the gRPC
	// counterpart of Lambda's X-Amz-Function-Error header.
	functionErrorKey = "x-invoke-function-error"
)

func init() {
	registerTransport(TransportGRPC, dialGRPC, listenGRPC)
}

// rawCodec passes envelope bytes through unchanged
type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	default:
		return nil, fmt.Errorf("raw codec: cannot marshal %T", v)
	}
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("raw codec: cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (rawCodec) Name() string { return "invoke-raw" }

func dialGRPC(ctx context.Context, addr string, o *dialOptions) (Transport, error) {
	dopts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	}
	if o.dialer != nil {
		dopts = append(dopts, grpc.WithContextDialer(o.dialer))
	}
	conn, err := grpc.NewClient(addr, dopts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	o.logger.Info("grpc transport created", zap.String("addr", addr))
	return &grpcTransport{
		conn: conn,
		pool: newWorkers(o.maxConcurrency, o.logger),
	}, nil
}

type grpcTransport struct {
	conn *grpc.ClientConn
	pool *workers
}

func (t *grpcTransport) call(ctx context.Context, target string, request []byte) (Reply, error) {
	var resp []byte
	var trailer metadata.MD
	if err := t.conn.Invoke(ctx, grpcService+target, request, &resp, grpc.Trailer(&trailer)); err != nil {
		return Reply{}, err
	}
	return Reply{Body: resp, Failed: len(trailer.Get(functionErrorKey)) > 0}, nil
}

func (t *grpcTransport) Invoke(ctx context.Context, target string, request []byte) (Reply, error) {
	return t.pool.do(ctx, func(ctx context.Context) (Reply, error) {
		return t.call(ctx, target, request)
	})
}

func (t *grpcTransport) InvokeAsync(ctx context.Context, target string, request []byte, done func(Reply, error)) {
	t.pool.goDo(ctx, func(ctx context.Context) (Reply, error) {
		return t.call(ctx, target, request)
	}, done)
}

func (t *grpcTransport) Close() error {
	return t.conn.Close()
}

func listenGRPC(addr string, reg *Registry, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newGRPCServer(listener, reg, o), nil
}

// NewGRPCServer serves reg on an existing listener.
func NewGRPCServer(listener net.Listener, reg *Registry, opts ...ServerOption) Server {
	return newGRPCServer(listener, reg, newServerOptions(opts))
}

func newGRPCServer(listener net.Listener, reg *Registry, o *serverOptions) *grpcServer {
	s := &grpcServer{
		listener: listener,
		reg:      reg,
		log:      o.logger,
	}
	s.server = grpc.NewServer(
		grpc.ForceServerCodec(rawCodec{}),
		grpc.UnknownServiceHandler(s.handle),
	)
	return s
}

type grpcServer struct {
	listener net.Listener
	server   *grpc.Server
	reg      *Registry
	log      *zap.Logger
}

// handle serves every method of the invoke service as a unary call whose
// method name is the target.
func (s *grpcServer) handle(_ interface{}, stream grpc.ServerStream) error {
	method, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "no method in stream")
	}
	target, ok := strings.CutPrefix(method, grpcService)
	if !ok {
		return status.Errorf(codes.Unimplemented, "unknown service method %s", method)
	}

	var request []byte
	if err := stream.RecvMsg(&request); err != nil {
		return err
	}

	reply, err := s.reg.Dispatch(stream.Context(), target, request)
	if err != nil {
		if errors.Is(err, ErrUnknownTarget) {
			return status.Error(codes.NotFound, err.Error())
		}
		return status.Error(codes.Internal, err.Error())
	}
	if reply.Failed {
		stream.SetTrailer(metadata.Pairs(functionErrorKey, "Unhandled"))
	}
	return stream.SendMsg(reply.Body)
}

func (s *grpcServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.server.Stop)
	defer stop()
	s.log.Info("grpc server listening", zap.String("addr", s.Addr()))
	return s.server.Serve(s.listener)
}

func (s *grpcServer) Close() error {
	s.server.Stop()
	return nil
}

func (s *grpcServer) Addr() string {
	return s.listener.Addr().String()
}
