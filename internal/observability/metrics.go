// Package observability exposes Prometheus metrics for the server.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's Prometheus collectors around one registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SummaryPlansTotal   *prometheus.CounterVec
	SummaryRowsReturned prometheus.Histogram
}

// Plan outcome label values.
const (
	PlanOutcomeOK             = "ok"
	PlanOutcomeConfigError    = "config_error"
	PlanOutcomeExecutionError = "execution_error"
)

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tableadmin_http_requests_total",
				Help: "Total HTTP requests by method, route, and status code.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tableadmin_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SummaryPlansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tableadmin_summary_plans_total",
				Help: "Summary planning attempts by outcome.",
			},
			[]string{"outcome"},
		),
		SummaryRowsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tableadmin_summary_rows_returned",
				Help:    "Rows returned per executed summary query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SummaryPlansTotal,
		m.SummaryRowsReturned,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
