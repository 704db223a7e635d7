// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpMeanWritesClientMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoke.prom")

	err := newApp().Run([]string{
		"invoke", "--env-file", "", "--log", "error", "--metrics-file", path,
		"exp-mean", "--local", "--experiments", "20", "--samples", "4",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `invoke_client_calls_total{outcome="ok",target="exp_mean"} 20`)
}

func TestPrintHistogram(t *testing.T) {
	var buf bytes.Buffer
	printHistogram(&buf, []float64{0.1, 0.2, 0.7, 1.6})
	require.Equal(t, "0.0-0.5 **\n0.5-1.0 *\n1.5-2.0 *\n", buf.String())
}
