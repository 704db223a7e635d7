// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// invoked serves the example functions over a network transport or as an
// AWS Lambda function.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/luxfi/invoke"
	"github.com/luxfi/invoke/internal/config"
	"github.com/luxfi/invoke/internal/functions"
)

func main() {
	app := cli.NewApp()
	app.Name = "invoked"
	app.Usage = "serve remote functions"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "config file path",
		},
		cli.StringFlag{
			Name:  "env-file",
			Usage: "dotenv file loaded before the environment is read",
			Value: ".env",
		},
		cli.StringFlag{
			Name:  "log, l",
			Usage: "log level: debug,info,warn,error",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "serve the functions on a network transport",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "transport, t",
					Usage: "transport: " + strings.Join(invoke.AvailableTransports(), ","),
				},
				cli.StringFlag{
					Name:  "listen",
					Usage: "listen address, defaults to the configured address",
				},
				cli.StringFlag{
					Name:  "metrics-addr",
					Usage: "serve prometheus metrics on this address",
				},
			},
			Action: serveAction,
		},
		{
			Name:   "lambda",
			Usage:  "run under the AWS Lambda runtime; the function is chosen by _HANDLER",
			Action: lambdaAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.GlobalString("config"), c.GlobalString("env-file"))
	if err != nil {
		return cfg, nil, err
	}
	if c.GlobalIsSet("log") {
		cfg.LogLevel = c.GlobalString("log")
	}
	if c.IsSet("transport") {
		cfg.Transport = c.String("transport")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	log, err := cfg.Logger()
	return cfg, log, err
}

func serveAction(c *cli.Context) error {
	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	addr := cfg.Address
	if c.IsSet("listen") {
		addr = c.String("listen")
	}

	promReg := prometheus.NewRegistry()
	metrics, err := invoke.NewMetrics(promReg)
	if err != nil {
		return err
	}

	reg := invoke.NewRegistry(invoke.WithServerLogger(log), invoke.WithServerMetrics(metrics))
	if err := functions.Register(reg); err != nil {
		return err
	}

	server, err := invoke.Listen(addr, reg,
		invoke.WithServerTransport(cfg.Transport),
		invoke.WithServerLogger(log),
	)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})

	if metricsAddr := c.String("metrics-addr"); metricsAddr != "" {
		go serveMetrics(ctx, log, metricsAddr, promReg)
	}

	go func() {
		defer close(stop)
		log.Info("serving",
			zap.String("transport", cfg.Transport),
			zap.String("addr", server.Addr()),
			zap.Strings("targets", reg.Targets()),
		)
		if err := server.Serve(ctx); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	return exitSignal(log, cancel, stop)
}

func serveMetrics(ctx context.Context, log *zap.Logger, addr string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	stop := context.AfterFunc(ctx, func() { _ = srv.Close() })
	defer stop()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server stopped", zap.Error(err))
	}
}

// lambdaAction serves the function named by the Lambda _HANDLER variable.
func lambdaAction(c *cli.Context) error {
	_, log, err := setup(c)
	if err != nil {
		return err
	}

	name := os.Getenv("_HANDLER")
	h, ok := functions.Handlers()[name]
	if !ok {
		return errors.Wrapf(invoke.ErrUnknownTarget, "_HANDLER %q", name)
	}
	log.Info("starting lambda runtime", zap.String("target", name))
	lambda.StartHandler(invoke.LambdaHandler(h))
	return nil
}

func exitSignal(log *zap.Logger, cancel context.CancelFunc, stop chan struct{}) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	for {
		select {
		case <-stop:
			cancel()
			return nil
		case sig := <-sigs:
			switch sig {
			case syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT:
				cancel()
				select {
				case <-stop:
					log.Info("shutdown")
				case <-time.After(5 * time.Second):
					log.Warn("timeout forced shutdown")
				}
				return nil
			case syscall.SIGHUP:
				log.Info("catch syscall.SIGHUP")
			}
		}
	}
}
