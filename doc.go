// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package invoke calls named remote functions as if they were typed local
// functions.
//
// Arguments are encoded positionally by a Type codec, wrapped in a text
// safe envelope and handed to a Transport. The remote side decodes them,
// runs the handler and answers with either a value or an error message.
// The caller gets back a value, a *RemoteError, a *TransportError or a
// *DecodeError.
//
// # Transport Selection
//
// ZAP is the default transport. All transports are compiled in and are
// selected by name:
//
//	invoke.Dial(ctx, "localhost:9000")                                     // ZAP
//	invoke.Dial(ctx, "localhost:9000", invoke.WithTransport("grpc"))       // gRPC
//	invoke.Dial(ctx, "localhost:9000", invoke.WithTransport("json"))       // JSON-RPC over HTTP
//	invoke.Dial(ctx, "", invoke.WithTransport("lambda"), invoke.WithRegion("us-east-1"))
//
// # Usage
//
// Client usage:
//
//	client, err := invoke.DialClient(ctx, "localhost:9000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	add := invoke.Bind2(client, "add", invoke.Int32, invoke.Int32, invoke.Int32)
//	sum, err := add.Call(ctx, 2, 3)
//
//	// Many calls at once, results in argument order
//	results := invoke.RunBatch(ctx, add.Binding(), args, invoke.WithBatchConcurrency(64))
//
// Server usage:
//
//	reg := invoke.NewRegistry()
//	reg.MustRegister("add", invoke.Handle2(invoke.Int32, invoke.Int32, invoke.Int32,
//	    func(ctx context.Context, a, b int32) (int32, error) {
//	        return a + b, nil
//	    }))
//
//	server, err := invoke.Listen(":9000", reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.Serve(ctx)
//
// On AWS Lambda the same handler is started with
// lambda.StartHandler(invoke.LambdaHandler(h)).
//
// # Architecture
//
//   - types.go, tuple.go, codec.go: positional value codec
//   - envelope.go: request, success and error envelopes
//   - binding.go, funcs.go, batch.go: typed caller surface
//   - handler.go, registry.go: typed handler surface
//   - transport.go, dial.go: transport registry with Dial and Listen
//   - zap.go, dial_grpc.go, json.go, lambda.go, local.go: transports
//
// Application code should only depend on Binding and Handler, making
// transport selection a deployment decision rather than a code change.
package invoke
