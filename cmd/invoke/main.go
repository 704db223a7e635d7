// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// invoke calls the example functions served by invoked.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/luxfi/invoke"
	"github.com/luxfi/invoke/internal/config"
	"github.com/luxfi/invoke/internal/functions"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "invoke"
	app.Usage = "call remote functions"

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
			Name:  "transport, t",
			Usage: "transport: " + strings.Join(invoke.AvailableTransports(), ","),
		},
		cli.StringFlag{
			Name:  "address, a",
			Usage: "server address",
		},
		cli.StringFlag{
			Name:  "log, l",
			Usage: "log level: debug,info,warn,error",
		},
		cli.StringFlag{
			Name:  "metrics-file",
			Usage: "write client metrics in prometheus text format to this file on exit",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:      "add",
			Usage:     "add two integers remotely",
			ArgsUsage: "A B",
			Action:    addAction,
		},
		{
			Name:  "exp-mean",
			Usage: "run exponential mean experiments and print their histogram",
			Flags: []cli.Flag{
				cli.Float64Flag{
					Name:  "lambda",
					Usage: "rate of the exponential distribution",
					Value: 1,
				},
				cli.IntFlag{
					Name:  "samples, s",
					Usage: "number of samples in each experiment",
					Value: 1,
				},
				cli.IntFlag{
					Name:  "experiments, e",
					Usage: "number of experiments to perform",
					Value: 10000,
				},
				cli.Int64Flag{
					Name:  "batch-concurrency",
					Usage: "experiments in flight at once, 0 for all",
				},
				cli.BoolFlag{
					Name:  "local",
					Usage: "run the experiments in process instead of remotely",
				},
			},
			Action: expMeanAction,
		},
	}
	return app
}

// loadConfig applies the global flags on top of the loaded config.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"), c.GlobalString("env-file"))
	if err != nil {
		return cfg, err
	}
	if c.GlobalIsSet("transport") {
		cfg.Transport = c.GlobalString("transport")
	}
	if c.GlobalIsSet("address") {
		cfg.Address = c.GlobalString("address")
	}
	if c.GlobalIsSet("log") {
		cfg.LogLevel = c.GlobalString("log")
	}
	return cfg, cfg.Validate()
}

// newClient builds the client for a command. The returned done func closes
// it and writes the collected metrics when --metrics-file is set.
func newClient(ctx context.Context, c *cli.Context, local bool) (*invoke.Client, config.Config, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cfg, nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, cfg, nil, err
	}

	promReg := prometheus.NewRegistry()
	metrics, err := invoke.NewMetrics(promReg)
	if err != nil {
		return nil, cfg, nil, err
	}

	var client *invoke.Client
	if local {
		reg := invoke.NewRegistry(invoke.WithServerLogger(log))
		if err := functions.Register(reg); err != nil {
			return nil, cfg, nil, err
		}
		t := invoke.NewLocalTransport(reg, invoke.WithLogger(log), invoke.WithMaxConcurrency(cfg.MaxConcurrency))
		client = invoke.NewClient(t, invoke.WithLogger(log), invoke.WithMetrics(metrics))
	} else {
		opts := append(cfg.DialOptions(), invoke.WithLogger(log), invoke.WithMetrics(metrics))
		client, err = invoke.DialClient(ctx, cfg.Address, opts...)
		if err != nil {
			return nil, cfg, nil, errors.Wrapf(err, "dial %s", cfg.Address)
		}
		log.Debug("client ready", zap.String("transport", cfg.Transport), zap.String("address", cfg.Address))
	}

	metricsFile := c.GlobalString("metrics-file")
	done := func() {
		if err := client.Close(); err != nil {
			log.Warn("closing client", zap.Error(err))
		}
		if metricsFile == "" {
			return
		}
		if err := prometheus.WriteToTextfile(metricsFile, promReg); err != nil {
			log.Error("writing metrics", zap.String("file", metricsFile), zap.Error(err))
		}
	}
	return client, cfg, done, nil
}

func addAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("add takes exactly two integers", 2)
	}
	a, err := strconv.ParseInt(c.Args().Get(0), 10, 32)
	if err != nil {
		return errors.Wrap(err, "A")
	}
	b, err := strconv.ParseInt(c.Args().Get(1), 10, 32)
	if err != nil {
		return errors.Wrap(err, "B")
	}

	ctx := context.Background()
	client, _, done, err := newClient(ctx, c, false)
	if err != nil {
		return err
	}
	defer done()

	sum, err := functions.BindAdd(client).Call(ctx, int32(a), int32(b))
	if err != nil {
		return err
	}
	fmt.Println(sum)
	return nil
}

func expMeanAction(c *cli.Context) error {
	experiments := c.Int("experiments")
	if experiments <= 0 {
		return cli.NewExitError("experiments must be positive", 2)
	}

	ctx := context.Background()
	client, cfg, done, err := newClient(ctx, c, c.Bool("local"))
	if err != nil {
		return err
	}
	defer done()

	batch := cfg.BatchConcurrency
	if c.IsSet("batch-concurrency") {
		batch = c.Int64("batch-concurrency")
	}

	args := make([]functions.ExpParams, experiments)
	for i := range args {
		args[i] = functions.ExpParams{First: c.Float64("lambda"), Second: int32(c.Int("samples"))}
	}
	means, err := invoke.Transform(ctx, functions.BindExpMean(client).Binding(), args, invoke.WithBatchConcurrency(batch))
	if err != nil {
		return err
	}
	printHistogram(os.Stdout, means)
	return nil
}

// printHistogram buckets values into half unit bins, one star per
// experiments/50 hits.
func printHistogram(w io.Writer, values []float64) {
	hist := make(map[int]int)
	for _, v := range values {
		hist[int(2*v)]++
	}
	bins := make([]int, 0, len(hist))
	for bin := range hist {
		bins = append(bins, bin)
	}
	sort.Ints(bins)

	scale := 1 + len(values)/50
	for _, bin := range bins {
		fmt.Fprintf(w, "%.1f-%.1f %s\n", float64(bin)/2, float64(bin+1)/2, strings.Repeat("*", hist[bin]/scale))
	}
}
