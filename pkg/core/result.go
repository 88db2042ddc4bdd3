// SPDX-License-Identifier: Apache-2.0
package core

import "time"

// FailureKind classifies why a responder invocation failed.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureUnavailable FailureKind = "unavailable"
	FailureInternal    FailureKind = "internal"
)

// Failure describes a single responder's failed invocation.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Detail is one structured element of a responder payload.
type Detail map[string]any

// SeverityAssessment scores forecast conditions.
type SeverityAssessment struct {
	Level   string   `json:"level"`
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
}

// Payload is the structured output of a successful responder invocation.
// Summary, Details, Recommendations, Sources and EmergencyActions are the
// fields the aggregator merges; the rest are role-specific sections that
// ride along unmodified.
type Payload struct {
	Summary          string              `json:"summary,omitempty"`
	Details          any                 `json:"details,omitempty"`
	Recommendations  []string            `json:"recommendations,omitempty"`
	Sources          []string            `json:"sources,omitempty"`
	EmergencyActions []string            `json:"emergency_actions,omitempty"`
	Severity         *SeverityAssessment `json:"severity,omitempty"`
	Analysis         Detail              `json:"analysis,omitempty"`
	Location         *Coordinates        `json:"location,omitempty"`
	Projections      []string            `json:"projections,omitempty"`
	Insights         []string            `json:"insights,omitempty"`
	Timeline         map[string][]string `json:"timeline,omitempty"`
	PriorityActions  []string            `json:"priority_actions,omitempty"`
	Capabilities     []string            `json:"capabilities,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
}

// Result is the per-role outcome of one coordinated invocation. Exactly one
// of Payload or Failure is set.
type Result struct {
	Role    Role      `json:"role"`
	Payload *Payload  `json:"payload,omitempty"`
	Failure *Failure  `json:"failure,omitempty"`
	At      time.Time `json:"at"`
}

// SuccessResult wraps a payload as a successful result.
func SuccessResult(role Role, p *Payload) Result {
	return Result{Role: role, Payload: p, At: time.Now().UTC()}
}

// FailureResult records a failed invocation for a role.
func FailureResult(role Role, kind FailureKind, message string) Result {
	return Result{Role: role, Failure: &Failure{Kind: kind, Message: message}, At: time.Now().UTC()}
}

// Succeeded reports whether the invocation produced a payload.
func (r Result) Succeeded() bool { return r.Failure == nil && r.Payload != nil }
