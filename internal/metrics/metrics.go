// Package metrics exposes prometheus instruments for document ingestion and
// timeline resolution.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doctimeline"

// Metrics holds the prometheus instruments of one server.
type Metrics struct {
	jobsTotal        *prometheus.CounterVec
	resolveDuration  *prometheus.HistogramVec
	diagnosticsTotal prometheus.Counter
	chunks           prometheus.Gauge
	documents        prometheus.Gauge
}

// New creates unregistered instruments.
func New() *Metrics {
	return &Metrics{
		jobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "jobs_total",
				Help:      "Ingest jobs by terminal status.",
			},
			[]string{"status"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "resolve_duration_seconds",
				Help:      "Time to resolve and render a timeline in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
			},
			[]string{"result"}, // "success" or "error"
		),
		diagnosticsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "dropped_dependencies_total",
				Help:      "Dependency edges dropped because their target was unknown.",
			},
		),
		chunks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "chunks",
				Help:      "Chunks currently declared in the session.",
			},
		),
		documents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "timeline",
				Name:      "documents",
				Help:      "Documents currently applied to the session.",
			},
		),
	}
}

// MustRegister registers the metrics with the given Prometheus registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.jobsTotal, m.resolveDuration, m.diagnosticsTotal, m.chunks, m.documents)
}

// ObserveJob counts a job that reached a terminal status.
func (m *Metrics) ObserveJob(status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(status).Inc()
}

// ObserveResolve records a resolve duration and the diagnostics it produced.
func (m *Metrics) ObserveResolve(durationSeconds float64, diagnostics int, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.resolveDuration.WithLabelValues(result).Observe(durationSeconds)
	m.diagnosticsTotal.Add(float64(diagnostics))
}

// SetSize records the current session size.
func (m *Metrics) SetSize(documents, chunks int) {
	if m == nil {
		return
	}
	m.documents.Set(float64(documents))
	m.chunks.Set(float64(chunks))
}

// Handler serves the registry in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
