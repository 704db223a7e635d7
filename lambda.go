// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"fmt"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"go.uber.org/zap"
)

func init() {
	// Lambda functions are hosted by the Lambda runtime; see LambdaHandler.
	registerTransport(TransportLambda, dialLambda, nil)
}

// dialLambda creates a transport invoking Lambda functions by name. addr
// is unused; the target is the function name, ARN or alias qualified name.
func dialLambda(_ context.Context, _ string, o *dialOptions) (Transport, error) {
	api := o.lambdaAPI
	if api == nil {
		cfg := aws.NewConfig().WithMaxRetries(0)
		if o.region != "" {
			cfg = cfg.WithRegion(o.region)
		}
		if o.endpoint != "" {
			cfg = cfg.WithEndpoint(o.endpoint)
		}
		sess, err := session.NewSessionWithOptions(session.Options{
			Config:            *cfg,
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			return nil, fmt.Errorf("lambda session: %w", err)
		}
		api = lambda.New(sess)
		o.logger.Info("lambda transport created",
			zap.String("region", aws.StringValue(sess.Config.Region)),
		)
	}
	return &lambdaTransport{
		api:  api,
		pool: newWorkers(o.maxConcurrency, o.logger),
	}, nil
}

type lambdaTransport struct {
	api  lambdaiface.LambdaAPI
	pool *workers
}

func (t *lambdaTransport) call(ctx context.Context, target string, request []byte) (Reply, error) {
	out, err := t.api.InvokeWithContext(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(target),
		InvocationType: aws.String(lambda.InvocationTypeRequestResponse),
		Payload:        request,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Body:   out.Payload,
		Failed: aws.StringValue(out.FunctionError) != "",
	}, nil
}

func (t *lambdaTransport) Invoke(ctx context.Context, target string, request []byte) (Reply, error) {
	return t.pool.do(ctx, func(ctx context.Context) (Reply, error) {
		return t.call(ctx, target, request)
	})
}

func (t *lambdaTransport) InvokeAsync(ctx context.Context, target string, request []byte, done func(Reply, error)) {
	t.pool.goDo(ctx, func(ctx context.Context) (Reply, error) {
		return t.call(ctx, target, request)
	}, done)
}

func (t *lambdaTransport) Close() error { return nil }

// LambdaHandler adapts h to the Lambda Go runtime. A failed reply is
// returned as a RemoteError, which the runtime reports with the same
// {"errorMessage": ...} shape and the X-Amz-Function-Error marker.
func LambdaHandler(h Handler) awslambda.Handler {
	return lambdaHandler{h}
}

type lambdaHandler struct {
	h Handler
}

func (l lambdaHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	reply := l.h.Respond(ctx, payload)
	if !reply.Failed {
		return reply.Body, nil
	}
	env, err := UnmarshalResponse(reply.Body, true)
	if err != nil {
		return nil, err
	}
	return nil, &RemoteError{Message: env.Message}
}
