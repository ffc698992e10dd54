// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	AuthEvents      *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a private registry with Go/process collectors and the API
// metrics registered on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beauth_auth_events_total",
				Help: "Total number of auth operations by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beauth_http_request_duration_seconds",
				Help:    "HTTP request latency by route, method and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		registry: registry,
	}

	registry.MustRegister(m.AuthEvents)
	registry.MustRegister(m.RequestDuration)

	return m
}

// RecordAuth counts one auth operation. A nil receiver is a no-op.
func (m *Metrics) RecordAuth(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
