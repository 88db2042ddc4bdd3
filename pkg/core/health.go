// SPDX-License-Identifier: Apache-2.0
// Package core holds the shared vocabulary of the advisory pipeline: roles,
// results, request bookkeeping, envelopes and health reporting.
package core

import (
	"context"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	// HealthHealthy indicates the component is fully operational.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the component is operational but with reduced capacity.
	HealthDegraded HealthStatus = "degraded"

	// HealthUnhealthy indicates the component is not operational.
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthResult represents the result of a health check.
type HealthResult struct {
	Status    HealthStatus
	Component string
	Message   string
	LastCheck time.Time
	Error     error
}

// HealthChecker checks the health of a component.
type HealthChecker interface {
	// Check returns the current health status of the component.
	// The context can be used to implement timeouts.
	Check(ctx context.Context) HealthResult
}

// FunctionHealthChecker wraps a function as a health checker.
type FunctionHealthChecker struct {
	fn func(ctx context.Context) HealthResult
}

// NewFunctionHealthChecker creates a health checker from a function.
func NewFunctionHealthChecker(fn func(ctx context.Context) HealthResult) *FunctionHealthChecker {
	return &FunctionHealthChecker{fn: fn}
}

// Check calls the underlying function.
func (f *FunctionHealthChecker) Check(ctx context.Context) HealthResult {
	result := f.fn(ctx)
	if result.LastCheck.IsZero() {
		result.LastCheck = time.Now()
	}
	return result
}

// RoleHealth is the health entry reported for one responder.
type RoleHealth struct {
	Status       HealthStatus `json:"status"`
	Initialized  bool         `json:"initialized"`
	Capabilities int          `json:"capabilities"`
	Error        string       `json:"error,omitempty"`
}

// SystemHealth summarizes orchestrator-level counters.
type SystemHealth struct {
	ActiveRequests int  `json:"active_requests"`
	Initialized    bool `json:"initialized"`
}

// HealthReport is the full health snapshot returned to callers. Checks
// carries results from externally registered probes, keyed by probe name.
type HealthReport struct {
	Status    HealthStatus            `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Agents    map[Role]RoleHealth     `json:"agents"`
	System    SystemHealth            `json:"system"`
	Checks    map[string]HealthStatus `json:"checks,omitempty"`
}
