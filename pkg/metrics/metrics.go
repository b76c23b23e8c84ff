// Package metrics exposes the watcher's Prometheus collectors.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Feed label values.
const (
	FeedConnections  = "connections"
	FeedTransactions = "transactions"
)

type Metrics struct {
	reg *prometheus.Registry

	connectionCount prometheus.Gauge
	frames          *prometheus.CounterVec
	txEvents        prometheus.Counter
	decodeErrors    *prometheus.CounterVec
	dispatch        *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, alongside the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		connectionCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "brcwatch_connection_count",
			Help: "Last connection count published by the broadcaster.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brcwatch_frames_received_total",
			Help: "Frames received per feed.",
		}, []string{"feed"}),
		txEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brcwatch_transaction_events_total",
			Help: "Transaction events (frame triples) received.",
		}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brcwatch_decode_errors_total",
			Help: "Frames that could not be decoded per feed.",
		}, []string{"feed"}),
		dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brcwatch_dispatch_seconds",
			Help:    "Time spent handing a decoded value to the sinks.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"feed"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.connectionCount,
		m.frames,
		m.txEvents,
		m.decodeErrors,
		m.dispatch,
	)
	return m
}

// Registry is the gatherer to serve on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.reg
}

func (m *Metrics) SetConnectionCount(n uint64) {
	if m == nil {
		return
	}
	m.connectionCount.Set(float64(n))
}

func (m *Metrics) FrameReceived(feed string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(feed).Inc()
}

func (m *Metrics) TransactionEvent() {
	if m == nil {
		return
	}
	m.txEvents.Inc()
}

func (m *Metrics) DecodeError(feed string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(feed).Inc()
}

// Observe records a dispatch duration for feed. It satisfies
// latency.Observer.
func (m *Metrics) Observe(feed string, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(feed).Observe(d.Seconds())
}
