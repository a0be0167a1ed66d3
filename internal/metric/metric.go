// Package metric exposes the Prometheus collectors for the selection pipeline
// and the upstream fetch client.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sunmap"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SelectionsTotal *prometheus.CounterVec
	RendersTotal    *prometheus.CounterVec
	FetchesTotal    *prometheus.CounterVec
	FetchDuration   *prometheus.HistogramVec
	JoinDuration    prometheus.Histogram
	ActiveSessions  prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry
// together with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SelectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "selections_total",
				Help:      "Selections seen by the pipeline (result=accepted|ignored|superseded)",
			},
			[]string{"result"},
		),

		RendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "renders_total",
				Help:      "Render outputs delivered to a sink (outcome=content|fallback)",
			},
			[]string{"outcome"},
		),

		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "requests_total",
				Help:      "Upstream requests by endpoint and status class",
			},
			[]string{"endpoint", "class"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Upstream request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		JoinDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "join_duration_seconds",
				Help:      "Time from selection until both fetches settled",
				Buckets:   prometheus.DefBuckets,
			},
		),

		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "active_sessions",
				Help:      "Open websocket selection sessions",
			},
		),
	}

	m.registry.MustRegister(
		m.SelectionsTotal,
		m.RendersTotal,
		m.FetchesTotal,
		m.FetchDuration,
		m.JoinDuration,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler serving the registry in exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Selection counts a selection outcome.
func (m *Metrics) Selection(result string) {
	if m == nil {
		return
	}
	m.SelectionsTotal.WithLabelValues(result).Inc()
}

// Render counts a delivered render output.
func (m *Metrics) Render(outcome string) {
	if m == nil {
		return
	}
	m.RendersTotal.WithLabelValues(outcome).Inc()
}

// Fetch records one settled upstream request.
func (m *Metrics) Fetch(endpoint, class string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(endpoint, class).Inc()
	m.FetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Join records how long a join took.
func (m *Metrics) Join(d time.Duration) {
	if m == nil {
		return
	}
	m.JoinDuration.Observe(d.Seconds())
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}
