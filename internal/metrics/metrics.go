// Package metrics exposes Prometheus instrumentation for Gatekeep.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the auth surface.
type Metrics struct {
	registry *prometheus.Registry

	// RegisterAttempts counts registration attempts by outcome
	// (created, taken, invalid, error).
	RegisterAttempts *prometheus.CounterVec

	// LoginAttempts counts login attempts by outcome
	// (success, denied, invalid, error).
	LoginAttempts *prometheus.CounterVec

	// RequestDuration observes HTTP request latency by route and status.
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RegisterAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeep",
			Name:      "register_attempts_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatekeep",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatekeep",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	registry.MustRegister(m.RegisterAttempts, m.LoginAttempts, m.RequestDuration)
	return m
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
