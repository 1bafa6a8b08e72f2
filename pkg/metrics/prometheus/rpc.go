// Package prometheus implements the metrics interfaces with
// prometheus/client_golang collectors.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/sunrpc/pkg/metrics"
)

// rpcMetrics is the Prometheus implementation of metrics.RPCMetrics.
type rpcMetrics struct {
	callsIssued        *prometheus.CounterVec
	retransmits        *prometheus.CounterVec
	retransmitFailures prometheus.Counter
	completions        *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	droppedDatagrams   *prometheus.CounterVec
	pendingCalls       prometheus.Gauge
}

// NewRPCMetrics creates Prometheus-backed RPC client metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRPCMetrics() metrics.RPCMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newRPCMetrics(metrics.GetRegistry())
}

func newRPCMetrics(reg prometheus.Registerer) *rpcMetrics {
	return &rpcMetrics{
		callsIssued: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunrpc_calls_issued_total",
				Help: "Total number of RPC calls transmitted for the first time",
			},
			[]string{"program", "procedure"},
		),
		retransmits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunrpc_retransmits_total",
				Help: "Total number of RPC call retransmissions",
			},
			[]string{"program", "procedure"},
		),
		retransmitFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "sunrpc_retransmit_failures_total",
				Help: "Total number of retransmissions refused by the transport",
			},
		),
		completions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunrpc_completions_total",
				Help: "Total number of completed RPC calls by outcome",
			},
			[]string{"program", "procedure", "outcome"},
		),
		completionDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sunrpc_call_duration_milliseconds",
				Help: "Time from issue to completion of RPC calls in milliseconds",
				Buckets: []float64{
					0.5,   // 500us - loopback
					1,     // 1ms
					5,     // 5ms - LAN
					25,    // 25ms
					100,   // 100ms - WAN
					600,   // 600ms - one retransmission at defaults
					1200,  // 1.2s
					5000,  // 5s
					36600, // 36.6s - timeout at defaults
				},
			},
			[]string{"program", "outcome"},
		),
		droppedDatagrams: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sunrpc_dropped_datagrams_total",
				Help: "Total number of inbound datagrams dropped by reason",
			},
			[]string{"reason"}, // "malformed", "unknown_xid"
		),
		pendingCalls: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "sunrpc_pending_calls",
				Help: "Number of RPC calls awaiting a reply",
			},
		),
	}
}

func (m *rpcMetrics) RecordCallIssued(program, procedure uint32) {
	m.callsIssued.WithLabelValues(u32(program), u32(procedure)).Inc()
}

func (m *rpcMetrics) RecordRetransmit(program, procedure uint32) {
	m.retransmits.WithLabelValues(u32(program), u32(procedure)).Inc()
}

func (m *rpcMetrics) RecordRetransmitFailure() {
	m.retransmitFailures.Inc()
}

func (m *rpcMetrics) RecordCompletion(program, procedure uint32, outcome string, duration time.Duration) {
	m.completions.WithLabelValues(u32(program), u32(procedure), outcome).Inc()
	m.completionDuration.WithLabelValues(u32(program), outcome).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *rpcMetrics) RecordDroppedDatagram(reason string) {
	m.droppedDatagrams.WithLabelValues(reason).Inc()
}

func (m *rpcMetrics) SetPendingCalls(count int) {
	m.pendingCalls.Set(float64(count))
}

func u32(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
