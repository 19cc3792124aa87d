// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus collectors for the API server.

Collected series:

  - portal_http_requests_total{method,status}
  - portal_http_request_duration_seconds{method}
  - portal_auth_decisions_total{guard,outcome}
  - portal_sessions_expired_total

Collectors are registered on an explicit registry so tests can create isolated instances.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

// Metrics holds the registered collectors.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authDecisions   *prometheus.CounterVec
	sessionsExpired prometheus.Counter
}

// New creates a registry with process/Go collectors and the Portal series.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method and status",
		}, []string{"method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		authDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Authorization guard outcomes",
		}, []string{"guard", "outcome"}),

		sessionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions destroyed by the inactivity guard",
		}),
	}
}

// RecordDecision counts one guard outcome ("allowed", "unauthenticated", "forbidden", ...).
func (m *Metrics) RecordDecision(guard, outcome string) {
	m.authDecisions.WithLabelValues(guard, outcome).Inc()
}

// RecordSessionExpired counts one inactivity expiry.
func (m *Metrics) RecordSessionExpired() {
	m.sessionsExpired.Inc()
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
