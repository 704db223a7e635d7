// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package functions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/invoke"
)

func newClient(t *testing.T) *invoke.Client {
	reg := invoke.NewRegistry()
	require.NoError(t, Register(reg))
	c := invoke.NewClient(invoke.NewLocalTransport(reg))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAdd(t *testing.T) {
	add := BindAdd(newClient(t))
	sum, err := add.Call(context.Background(), 2, 3)
	require.NoError(t, err)
	require.Equal(t, int32(5), sum)
}

func TestExpMeanBatch(t *testing.T) {
	expMean := BindExpMean(newClient(t))

	args := make([]ExpParams, 200)
	for i := range args {
		args[i] = ExpParams{First: 2, Second: 50}
	}
	means, err := invoke.Transform(context.Background(), expMean.Binding(), args, invoke.WithBatchConcurrency(16))
	require.NoError(t, err)
	require.Len(t, means, len(args))

	var total float64
	for _, m := range means {
		require.Positive(t, m)
		total += m
	}
	require.InDelta(t, 0.5, total/float64(len(means)), 0.1)
}

func TestExpMeanRejectsBadInput(t *testing.T) {
	expMean := BindExpMean(newClient(t))

	_, err := expMean.Call(context.Background(), 0, 10)
	require.True(t, invoke.IsRemote(err))
	require.EqualError(t, err, "lambda must be positive, got 0")

	_, err = expMean.Call(context.Background(), 1, 0)
	require.EqualError(t, err, "samples must be positive, got 0")
}

func TestRegisterTwice(t *testing.T) {
	reg := invoke.NewRegistry()
	require.NoError(t, Register(reg))
	require.Error(t, Register(reg))
	require.Equal(t, []string{AddTarget, ExpMeanTarget}, reg.Targets())
}
