// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"go.uber.org/zap"
)

// Reply is the raw response of one invocation. Failed is the transport's
// out of band marker that Body is an error envelope.
type Reply struct {
	Body   []byte
	Failed bool
}

// Transport performs invocations against named remote targets. A returned
// error means the backend could not be reached or could not complete the
// invocation; failures of the remote function itself come back as a Reply
// with Failed set.
type Transport interface {
	io.Closer

	// Invoke blocks until the backend answers.
	Invoke(ctx context.Context, target string, request []byte) (Reply, error)

	// InvokeAsync returns immediately. done is called exactly once, on a
	// goroutine owned by the transport.
	InvokeAsync(ctx context.Context, target string, request []byte, done func(Reply, error))
}

// Server serves a Registry over some transport.
type Server interface {
	// Serve starts serving requests (blocks until context cancelled)
	Serve(ctx context.Context) error

	// Close stops the server
	Close() error

	// Addr returns the server's listen address
	Addr() string
}

// Client is the shared context every Binding is created from. It owns the
// transport, logger and metrics; its lifetime is the caller's.
type Client struct {
	transport Transport
	log       *zap.Logger
	metrics   *Metrics
}

// NewClient wraps an existing transport. Only WithLogger and WithMetrics
// apply here.
func NewClient(t Transport, opts ...DialOption) *Client {
	o := newDialOptions(opts)
	return &Client{
		transport: t,
		log:       o.logger,
		metrics:   o.metrics,
	}
}

// DialClient dials a transport and wraps it in a Client.
func DialClient(ctx context.Context, addr string, opts ...DialOption) (*Client, error) {
	t, err := Dial(ctx, addr, opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(t, opts...), nil
}

// Transport returns the underlying transport.
func (c *Client) Transport() Transport { return c.transport }

// Close closes the transport.
func (c *Client) Close() error { return c.transport.Close() }

// DefaultMaxConcurrency bounds in-flight invocations per transport. It
// matches the default account concurrency of AWS Lambda.
const DefaultMaxConcurrency = 1000

// DialOption configures clients and transports
type DialOption func(*dialOptions)

type dialOptions struct {
	transport      string
	logger         *zap.Logger
	metrics        *Metrics
	maxConcurrency int64
	timeout        time.Duration
	region         string
	endpoint       string
	lambdaAPI      lambdaiface.LambdaAPI
	dialer         func(context.Context, string) (net.Conn, error)
}

func newDialOptions(opts []DialOption) *dialOptions {
	o := &dialOptions{
		transport:      DefaultTransport,
		logger:         zap.NewNop(),
		maxConcurrency: DefaultMaxConcurrency,
		timeout:        30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithLogger sets the logger used by the client and its transport.
func WithLogger(l *zap.Logger) DialOption {
	return func(o *dialOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records client side invocation metrics.
func WithMetrics(m *Metrics) DialOption {
	return func(o *dialOptions) { o.metrics = m }
}

// WithMaxConcurrency bounds the transport's in-flight invocations.
// Requests above the ceiling queue inside the transport.
func WithMaxConcurrency(n int64) DialOption {
	return func(o *dialOptions) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithTimeout sets the per request timeout of HTTP based transports.
func WithTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.timeout = d }
}

// WithRegion sets the AWS region of the lambda transport.
func WithRegion(region string) DialOption {
	return func(o *dialOptions) { o.region = region }
}

// WithEndpoint overrides the AWS endpoint of the lambda transport.
func WithEndpoint(endpoint string) DialOption {
	return func(o *dialOptions) { o.endpoint = endpoint }
}

// WithLambdaAPI supplies a ready lambda client, bypassing session setup.
func WithLambdaAPI(api lambdaiface.LambdaAPI) DialOption {
	return func(o *dialOptions) { o.lambdaAPI = api }
}

// WithContextDialer replaces the network dialer of the ZAP and gRPC
// transports.
func WithContextDialer(d func(ctx context.Context, addr string) (net.Conn, error)) DialOption {
	return func(o *dialOptions) { o.dialer = d }
}

// ServerOption configures registries and servers
type ServerOption func(*serverOptions)

type serverOptions struct {
	transport string
	logger    *zap.Logger
	metrics   *Metrics
	path      string
}

func newServerOptions(opts []ServerOption) *serverOptions {
	o := &serverOptions{
		transport: DefaultTransport,
		logger:    zap.NewNop(),
		path:      DefaultJSONPath,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithServerTransport explicitly sets the transport type for the server
func WithServerTransport(t string) ServerOption {
	return func(o *serverOptions) { o.transport = t }
}

// WithServerLogger sets the logger of a registry or server.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithServerMetrics records dispatch metrics.
func WithServerMetrics(m *Metrics) ServerOption {
	return func(o *serverOptions) { o.metrics = m }
}

// WithPath sets the HTTP path of the JSON-RPC server.
func WithPath(path string) ServerOption {
	return func(o *serverOptions) { o.path = path }
}
