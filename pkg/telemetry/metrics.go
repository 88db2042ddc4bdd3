// SPDX-License-Identifier: Apache-2.0
// Package telemetry provides observability for the Anemos advisory pipeline.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jllopis/anemos/pkg/errors"
)

// ErrorMetrics tracks error rates, types, and recovery patterns for production monitoring.
type ErrorMetrics struct {
	// errorCounter tracks total errors by code and component
	errorCounter metric.Int64Counter

	// recoveryCounter tracks successful recoveries
	recoveryCounter metric.Int64Counter

	// healthStatusGauge tracks component health (0=unhealthy, 1=degraded, 2=healthy)
	healthStatusGauge metric.Int64Gauge

	// circuitBreakerStateGauge tracks circuit breaker state per component
	circuitBreakerStateGauge metric.Int64Gauge

	mu sync.RWMutex
}

// NewErrorMetrics creates a new error metrics tracker with OTEL meters.
func NewErrorMetrics(ctx context.Context) (*ErrorMetrics, error) {
	meter := otel.Meter("anemos/errors")

	errorCounter, err := meter.Int64Counter(
		"anemos.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	recoveryCounter, err := meter.Int64Counter(
		"anemos.errors.recovered",
		metric.WithDescription("Successful error recoveries by code"),
	)
	if err != nil {
		return nil, err
	}

	healthStatusGauge, err := meter.Int64Gauge(
		"anemos.health.status",
		metric.WithDescription("Component health status (0=unhealthy, 1=degraded, 2=healthy)"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerStateGauge, err := meter.Int64Gauge(
		"anemos.circuitbreaker.state",
		metric.WithDescription("Circuit breaker state per component (0=open, 1=half-open, 2=closed)"),
	)
	if err != nil {
		return nil, err
	}

	return &ErrorMetrics{
		errorCounter:             errorCounter,
		recoveryCounter:          recoveryCounter,
		healthStatusGauge:        healthStatusGauge,
		circuitBreakerStateGauge: circuitBreakerStateGauge,
	}, nil
}

// RecordErrorMetric increments the error counter for the given error code and component.
// This is called by error handling code to track error rates.
func (em *ErrorMetrics) RecordErrorMetric(ctx context.Context, err error, component string) {
	if em == nil || err == nil {
		return
	}

	em.mu.RLock()
	defer em.mu.RUnlock()

	if ae, ok := err.(*errors.AnemosError); ok {
		em.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", string(ae.Code)),
				attribute.String("component", component),
				attribute.String("recoverable", ae.RecoverableString()),
			),
		)
	} else {
		// Generic error
		em.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", "UNKNOWN"),
				attribute.String("component", component),
				attribute.String("recoverable", "unknown"),
			),
		)
	}
}

// RecordRecovery increments the recovery counter for the given error code.
// This is called when an error is successfully handled (retry succeeded, fallback used, etc).
func (em *ErrorMetrics) RecordRecovery(ctx context.Context, errorCode errors.ErrorCode) {
	if em == nil {
		return
	}

	em.mu.RLock()
	defer em.mu.RUnlock()

	em.recoveryCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", string(errorCode)),
		),
	)
}

// RecordHealthStatus records the health status of a component (0=unhealthy, 1=degraded, 2=healthy).
func (em *ErrorMetrics) RecordHealthStatus(ctx context.Context, component string, status int64) {
	if em == nil {
		return
	}

	em.mu.RLock()
	defer em.mu.RUnlock()

	em.healthStatusGauge.Record(ctx, status,
		metric.WithAttributes(
			attribute.String("component", component),
		),
	)
}

// RecordCircuitBreakerState records the circuit breaker state (0=open, 1=half-open, 2=closed).
func (em *ErrorMetrics) RecordCircuitBreakerState(ctx context.Context, component string, state int64) {
	if em == nil {
		return
	}

	em.mu.RLock()
	defer em.mu.RUnlock()

	em.circuitBreakerStateGauge.Record(ctx, state,
		metric.WithAttributes(
			attribute.String("component", component),
		),
	)
}

// RequestMetrics tracks query volume, latency, and responder fan-out health.
type RequestMetrics struct {
	// requestCounter tracks completed requests by query type and status
	requestCounter metric.Int64Counter

	// requestDuration tracks end-to-end request latency in milliseconds
	requestDuration metric.Float64Histogram

	// activeRequests tracks requests currently in flight
	activeRequests metric.Int64UpDownCounter

	// responderCounter tracks individual responder calls by role and outcome
	responderCounter metric.Int64Counter

	// responderDuration tracks per-responder latency in milliseconds
	responderDuration metric.Float64Histogram
}

// NewRequestMetrics creates a request metrics tracker with OTEL meters.
func NewRequestMetrics(ctx context.Context) (*RequestMetrics, error) {
	meter := otel.Meter("anemos/requests")

	requestCounter, err := meter.Int64Counter(
		"anemos.requests.total",
		metric.WithDescription("Completed requests by query type, urgency, and status"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"anemos.requests.duration_ms",
		metric.WithDescription("End-to-end request latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"anemos.requests.active",
		metric.WithDescription("Requests currently being coordinated"),
	)
	if err != nil {
		return nil, err
	}

	responderCounter, err := meter.Int64Counter(
		"anemos.responder.calls.total",
		metric.WithDescription("Responder invocations by role and outcome"),
	)
	if err != nil {
		return nil, err
	}

	responderDuration, err := meter.Float64Histogram(
		"anemos.responder.duration_ms",
		metric.WithDescription("Per-responder latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	return &RequestMetrics{
		requestCounter:    requestCounter,
		requestDuration:   requestDuration,
		activeRequests:    activeRequests,
		responderCounter:  responderCounter,
		responderDuration: responderDuration,
	}, nil
}

// RecordRequest records a completed request with its classification and outcome.
func (rm *RequestMetrics) RecordRequest(ctx context.Context, queryType, urgency, status string, durationMs float64) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("query.type", queryType),
		attribute.String("query.urgency", urgency),
		attribute.String("status", status),
	)
	rm.requestCounter.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, durationMs, attrs)
}

// AddActive adjusts the in-flight request gauge. Pass +1 on start, -1 on finish.
func (rm *RequestMetrics) AddActive(ctx context.Context, delta int64) {
	if rm == nil {
		return
	}
	rm.activeRequests.Add(ctx, delta)
}

// RecordResponderCall records one responder invocation and its outcome.
func (rm *RequestMetrics) RecordResponderCall(ctx context.Context, role string, success bool, durationMs float64) {
	if rm == nil {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("responder.role", role),
		attribute.String("outcome", outcome),
	)
	rm.responderCounter.Add(ctx, 1, attrs)
	rm.responderDuration.Record(ctx, durationMs, attrs)
}
