// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK             = "ok"
	outcomeRemoteError    = "remote_error"
	outcomeTransportError = "transport_error"
	outcomeDecodeError    = "decode_error"
	outcomeUnknown        = "unknown_target"
)

// Metrics holds the prometheus collectors of clients and registries. A nil
// *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge
	dispatch *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoke",
			Subsystem: "client",
			Name:      "calls_total",
			Help:      "Settled invocations by target and outcome.",
		}, []string{"target", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invoke",
			Subsystem: "client",
			Name:      "call_duration_seconds",
			Help:      "Time from issuing an invocation to its settlement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "invoke",
			Subsystem: "client",
			Name:      "inflight_calls",
			Help:      "Invocations issued but not yet settled.",
		}),
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoke",
			Subsystem: "server",
			Name:      "dispatch_total",
			Help:      "Requests dispatched to handlers by target and outcome.",
		}, []string{"target", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.latency, m.inflight, m.dispatch} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register invoke metrics")
		}
	}
	return m, nil
}

func (m *Metrics) callStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) callSettled(target, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.calls.WithLabelValues(target, outcome).Inc()
	m.latency.WithLabelValues(target).Observe(elapsed.Seconds())
}

func (m *Metrics) observeDispatch(target, outcome string) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(target, outcome).Inc()
}
