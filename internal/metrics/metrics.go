// Tracklight - Consent-Gated Product Analytics for SaaS Applications
// Copyright 2026 Tracklight Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tracklight/tracklight

// Package metrics provides Prometheus instrumentation for Tracklight.
//
// Instrumented areas:
//   - Provider adapter calls (identify/track/page/reset outcomes)
//   - Adapter initialization duration and failures
//   - Server-side vendor ingestion (HTTP outcomes, circuit breaker state)
//   - Relay API endpoint latency and throughput
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider Adapter Metrics
	AdapterCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklight_adapter_calls_total",
			Help: "Total number of provider adapter calls",
		},
		[]string{"provider", "method", "outcome"}, // outcome: "success", "failure"
	)

	AdapterInitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracklight_adapter_init_duration_seconds",
			Help:    "Duration of provider adapter initialization in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	AdapterInitFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklight_adapter_init_failures_total",
			Help: "Total number of provider adapter initialization failures",
		},
		[]string{"provider", "reason"}, // reason: "timeout", "error"
	)

	ConsentBlockedCalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracklight_consent_blocked_calls_total",
			Help: "Total number of tracking calls short-circuited by missing consent",
		},
	)

	// Server-Side Ingestion Metrics
	IngestionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklight_ingestion_requests_total",
			Help: "Total number of server-side vendor ingestion requests",
		},
		[]string{"provider", "outcome"}, // outcome: "success", "failure", "skipped"
	)

	IngestionRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracklight_ingestion_request_duration_seconds",
			Help:    "Duration of server-side vendor ingestion HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracklight_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Relay API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracklight_api_requests_total",
			Help: "Total number of relay API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracklight_api_request_duration_seconds",
			Help:    "Relay API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAdapterCall records the outcome of a provider adapter call.
func RecordAdapterCall(provider, method string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	AdapterCallsTotal.WithLabelValues(provider, method, outcome).Inc()
}

// RecordAdapterInit records adapter initialization duration and outcome.
// reason labels the failure ("timeout" or "error"); empty means success.
func RecordAdapterInit(provider string, duration time.Duration, reason string) {
	AdapterInitDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if reason != "" {
		AdapterInitFailures.WithLabelValues(provider, reason).Inc()
	}
}

// RecordIngestion records a server-side vendor ingestion attempt.
func RecordIngestion(provider string, duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	IngestionRequestsTotal.WithLabelValues(provider, outcome).Inc()
	IngestionRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordIngestionSkipped records an ingestion request answered locally
// (console provider or analytics disabled) without a network call.
func RecordIngestionSkipped(provider string) {
	IngestionRequestsTotal.WithLabelValues(provider, "skipped").Inc()
}

// RecordAPIRequest records a relay API request outcome.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
