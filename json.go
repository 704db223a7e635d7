// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

const (
	// DefaultJSONPath is where the JSON-RPC server is mounted.
	DefaultJSONPath = "/invoke"

	jsonInvokeMethod = "Invoker.Invoke"
)

func init() {
	registerTransport(TransportJSON, dialJSON, listenJSON)
}

// InvokeArgs is the JSON-RPC parameter of Invoker.Invoke. Payload is the
// request envelope.
type InvokeArgs struct {
	Target  string `json:"target"`
	Payload []byte `json:"payload"`
}

// InvokeReply is the JSON-RPC result of Invoker.Invoke.
type InvokeReply struct {
	Payload       []byte `json:"payload"`
	FunctionError bool   `json:"functionError,omitempty"`
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

func dialJSON(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	uri := addr
	if !strings.Contains(addr, "://") {
		uri = "http://" + addr + DefaultJSONPath
	}
	o.logger.Info("json transport created", zap.String("uri", uri))
	return &jsonTransport{
		uri:    uri,
		client: &http.Client{Timeout: o.timeout},
		pool:   newWorkers(o.maxConcurrency, o.logger),
	}, nil
}

type jsonTransport struct {
	uri    string
	client *http.Client
	pool   *workers
}

func (t *jsonTransport) call(ctx context.Context, target string, request []byte) (Reply, error) {
	body, err := json2.EncodeClientRequest(jsonInvokeMethod, &InvokeArgs{Target: target, Payload: request})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to encode client params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uri, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to issue request: %w", err)
	}
	defer CleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("received status code: %d", resp.StatusCode)
	}

	buffer := bytebufferpool.Get()
	defer bytebufferpool.Put(buffer)
	if _, err := buffer.ReadFrom(resp.Body); err != nil {
		return Reply{}, fmt.Errorf("failed to read response: %w", err)
	}

	var reply InvokeReply
	if err := json2.DecodeClientResponse(bytes.NewReader(buffer.B), &reply); err != nil {
		return Reply{}, fmt.Errorf("failed to decode client response: %w", err)
	}
	return Reply{Body: reply.Payload, Failed: reply.FunctionError}, nil
}

func (t *jsonTransport) Invoke(ctx context.Context, target string, request []byte) (Reply, error) {
	return t.pool.do(ctx, func(ctx context.Context) (Reply, error) {
		return t.call(ctx, target, request)
	})
}

func (t *jsonTransport) InvokeAsync(ctx context.Context, target string, request []byte, done func(Reply, error)) {
	t.pool.goDo(ctx, func(ctx context.Context) (Reply, error) {
		return t.call(ctx, target, request)
	}, done)
}

func (t *jsonTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// invoker is the JSON-RPC service exposing a Registry.
type invoker struct {
	reg *Registry
}

func (s *invoker) Invoke(r *http.Request, args *InvokeArgs, reply *InvokeReply) error {
	out, err := s.reg.Dispatch(r.Context(), args.Target, args.Payload)
	if err != nil {
		return err
	}
	reply.Payload = out.Body
	reply.FunctionError = out.Failed
	return nil
}

// JSONHandler returns an http.Handler serving reg as the Invoker JSON-RPC
// service.
func JSONHandler(reg *Registry) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	if err := server.RegisterService(&invoker{reg: reg}, "Invoker"); err != nil {
		return nil, errors.Wrap(err, "register invoker service")
	}
	return server, nil
}

func listenJSON(addr string, reg *Registry, o *serverOptions) (Server, error) {
	handler, err := JSONHandler(reg)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(o.path, handler)
	return &jsonServer{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: o.logger,
	}, nil
}

type jsonServer struct {
	listener net.Listener
	server   *http.Server
	log      *zap.Logger
}

func (s *jsonServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.server.Close() })
	defer stop()
	s.log.Info("json server listening", zap.String("addr", s.Addr()))
	if err := s.server.Serve(s.listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *jsonServer) Close() error {
	return s.server.Close()
}

func (s *jsonServer) Addr() string {
	return s.listener.Addr().String()
}
