// Package metrics exposes the Prometheus collectors of the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quizdoc"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	DocumentsParsed    *prometheus.CounterVec
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	Exports            *prometheus.CounterVec
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		DocumentsParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_parsed_total",
				Help:      "Total number of parsed documents",
			},
			[]string{"format"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of quiz generations by outcome",
			},
			[]string{"status"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of quiz generations, model call included",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of quiz exports",
			},
			[]string{"format"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(
		m.DocumentsParsed,
		m.Generations,
		m.GenerationDuration,
		m.Exports,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

func (m *Metrics) DocumentParsed(format string) {
	if m == nil {
		return
	}
	m.DocumentsParsed.WithLabelValues(format).Inc()
}

// GenerationFinished records one generation outcome: "success", "llm_error" or "malformed".
func (m *Metrics) GenerationFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(status).Inc()
	m.GenerationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Exported(format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(format).Inc()
}

func (m *Metrics) RequestObserved(method, endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
