// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	reg := testRegistry(t, WithServerMetrics(m))
	c := NewClient(NewLocalTransport(reg), WithMetrics(m))
	ctx := context.Background()

	_, err = Bind2(c, "add", Int32, Int32, Int32).Call(ctx, 1, 2)
	require.NoError(t, err)
	_, err = Bind1(c, "fail", String, String).Call(ctx, "boom")
	require.Error(t, err)
	_, err = Bind2(c, "missing", Int32, Int32, Int32).Call(ctx, 1, 2)
	require.Error(t, err)
	_, err = Bind2(c, "add", Int32, Int32, String).Call(ctx, 1, 2)
	require.Error(t, err)

	require.InDelta(t, 1, testutil.ToFloat64(m.calls.WithLabelValues("add", outcomeOK)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.calls.WithLabelValues("add", outcomeDecodeError)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.calls.WithLabelValues("fail", outcomeRemoteError)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.calls.WithLabelValues("missing", outcomeTransportError)), 0)
	require.InDelta(t, 0, testutil.ToFloat64(m.inflight), 0)

	require.InDelta(t, 2, testutil.ToFloat64(m.dispatch.WithLabelValues("add", outcomeOK)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.dispatch.WithLabelValues("fail", outcomeRemoteError)), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.dispatch.WithLabelValues("missing", outcomeUnknown)), 0)
}

func TestMetricsDoubleRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	_, err := NewMetrics(r)
	require.NoError(t, err)
	_, err = NewMetrics(r)
	require.Error(t, err)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.callStarted()
		m.callSettled("add", outcomeOK, 0)
		m.observeDispatch("add", outcomeOK)
	})
}
