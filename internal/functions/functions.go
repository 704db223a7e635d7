// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package functions holds the functions served by invoked and called by
// the invoke command.
package functions

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/luxfi/invoke"
)

const (
	AddTarget     = "add"
	ExpMeanTarget = "exp_mean"
)

func Add(_ context.Context, a, b int32) (int32, error) {
	return a + b, nil
}

// ExpMean averages samples draws of an exponential distribution with rate
// lambda. The mean of many such experiments approaches a normal
// distribution around 1/lambda.
func ExpMean(_ context.Context, lambda float64, samples int32) (float64, error) {
	if lambda <= 0 {
		return 0, errors.Errorf("lambda must be positive, got %g", lambda)
	}
	if samples <= 0 {
		return 0, errors.Errorf("samples must be positive, got %d", samples)
	}
	var total float64
	for i := int32(0); i < samples; i++ {
		total += rand.ExpFloat64() / lambda
	}
	return total / float64(samples), nil
}

// Handlers returns every function keyed by target name.
func Handlers() map[string]invoke.Handler {
	return map[string]invoke.Handler{
		AddTarget:     invoke.Handle2(invoke.Int32, invoke.Int32, invoke.Int32, Add),
		ExpMeanTarget: invoke.Handle2(invoke.Float64, invoke.Int32, invoke.Float64, ExpMean),
	}
}

// Register adds every function to reg.
func Register(reg *invoke.Registry) error {
	for target, h := range Handlers() {
		if err := reg.Register(target, h); err != nil {
			return err
		}
	}
	return nil
}

// BindAdd returns the caller side of Add.
func BindAdd(c *invoke.Client) invoke.Func2[int32, int32, int32] {
	return invoke.Bind2(c, AddTarget, invoke.Int32, invoke.Int32, invoke.Int32)
}

// ExpParams are the arguments of one ExpMean experiment.
type ExpParams = invoke.Args2[float64, int32]

// BindExpMean returns the caller side of ExpMean.
func BindExpMean(c *invoke.Client) invoke.Func2[float64, int32, float64] {
	return invoke.Bind2(c, ExpMeanTarget, invoke.Float64, invoke.Int32, invoke.Float64)
}
