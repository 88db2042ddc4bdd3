// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package responder

import (
	"context"
	"testing"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
)

// newInsightsResponder injects a deterministic factor source so priority
// outcomes are stable.
func newInsightsResponder(t *testing.T, src factorSource) *Insights {
	t.Helper()
	i := NewInsights(nil)
	if src != nil {
		i.factors = src
	}
	if err := i.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return i
}

func TestInsightsEmergencyCritical(t *testing.T) {
	i := newInsightsResponder(t, func(lo, hi int) int { return hi })

	p, err := i.Handle(context.Background(), "emergency evacuation assessment", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	want := "CRITICAL: Immediate emergency response required within immediate. " +
		"Primary concerns: weather_severity, historical_precedent, population_density, infrastructure_vulnerability, response_capacity."
	if p.Summary != want {
		t.Errorf("expected critical summary, got %q", p.Summary)
	}
	details, ok := p.Details.(core.Detail)
	if !ok {
		t.Fatalf("expected detail map, got %T", p.Details)
	}
	if details["priority_level"] != "critical" || details["time_sensitivity"] != "immediate" {
		t.Errorf("expected critical priority, got %v", details)
	}
	factors, ok := details["correlation_factors"].(emergencyFactors)
	if !ok {
		t.Fatalf("expected correlation factors, got %T", details["correlation_factors"])
	}
	if factors.WeatherSeverity != 9 || factors.ResponseCapacity != 7 {
		t.Errorf("expected upper-bound factors, got %+v", factors)
	}
	if p.Recommendations[0] != "Activate emergency operations center immediately" {
		t.Errorf("expected critical recommendations, got %v", p.Recommendations)
	}
	if p.EmergencyActions[0] != "Execute emergency protocols NOW" {
		t.Errorf("expected immediate actions, got %v", p.EmergencyActions)
	}
}

func TestInsightsEmergencyLowPriority(t *testing.T) {
	i := newInsightsResponder(t, func(lo, hi int) int { return lo })

	p, err := i.Handle(context.Background(), "emergency readiness review", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	// Lower-bound factors score 25: low priority on a 24-48 hour window.
	want := "Monitoring situation. Preparedness recommended within 24-48 hours. Factors to watch: ."
	if p.Summary != want {
		t.Errorf("expected monitoring summary, got %q", p.Summary)
	}
	details := p.Details.(core.Detail)
	if details["priority_level"] != "low" {
		t.Errorf("expected low priority, got %v", details["priority_level"])
	}
	if p.EmergencyActions[0] != "Alert emergency management teams" {
		t.Errorf("expected staged actions for an hours window, got %v", p.EmergencyActions)
	}
	if p.Recommendations[0] != "Monitor conditions closely" {
		t.Errorf("expected monitoring recommendations, got %v", p.Recommendations)
	}
}

func TestInsightsContextOverride(t *testing.T) {
	i := newInsightsResponder(t, func(lo, hi int) int { return hi })

	rc := core.RequestContext{}.WithExtra("analysis_type", "emergency_correlation")
	p, err := i.Handle(context.Background(), "summarize conditions", rc)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	details, ok := p.Details.(core.Detail)
	if !ok {
		t.Fatalf("expected detail map, got %T", p.Details)
	}
	if _, ok := details["correlation_factors"]; !ok {
		t.Errorf("expected the override to force emergency correlation, got %v", details)
	}
}

func TestInsightsRiskAssessment(t *testing.T) {
	i := newInsightsResponder(t, nil)

	p, err := i.Handle(context.Background(), "what is the risk of flooding", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "Risk assessment complete: medium risk level identified" {
		t.Errorf("expected risk summary, got %q", p.Summary)
	}
	details := p.Details.(core.Detail)
	if details["risk_score"] != 66 {
		t.Errorf("expected score 66, got %v", details["risk_score"])
	}
	if details["confidence_level"] != 0.85 {
		t.Errorf("expected confidence 0.85, got %v", details["confidence_level"])
	}
	if len(p.Recommendations) != 4 {
		t.Errorf("expected flood and infrastructure strategies, got %v", p.Recommendations)
	}
	if p.Timeline["immediate"][0] != "Monitor weather conditions" {
		t.Errorf("expected risk timeline, got %v", p.Timeline)
	}
}

func TestInsightsTrendAnalysis(t *testing.T) {
	i := newInsightsResponder(t, nil)

	p, err := i.Handle(context.Background(), "historical weather patterns", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "Trend analysis reveals 3 significant patterns" {
		t.Errorf("expected trend summary, got %q", p.Summary)
	}
	if len(p.Projections) != 2 || len(p.Insights) != 2 {
		t.Errorf("expected projections and insights, got %v / %v", p.Projections, p.Insights)
	}
	details := p.Details.(core.Detail)
	if details["data_span"] != "10 years" {
		t.Errorf("expected 10 year span, got %v", details["data_span"])
	}
}

func TestInsightsVulnerabilityAnalysis(t *testing.T) {
	i := newInsightsResponder(t, nil)

	p, err := i.Handle(context.Background(), "protect elderly residents", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "Vulnerability analysis identifies 3 high-risk population groups" {
		t.Errorf("expected vulnerability summary, got %q", p.Summary)
	}
	details := p.Details.(core.Detail)
	if details["vulnerability_score"] != 7.2 {
		t.Errorf("expected score 7.2, got %v", details["vulnerability_score"])
	}
	if len(p.PriorityActions) != 3 {
		t.Errorf("expected 3 priority actions, got %v", p.PriorityActions)
	}
}

func TestInsightsGeneral(t *testing.T) {
	i := newInsightsResponder(t, nil)

	p, err := i.Handle(context.Background(), "good morning", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "General weather insights available" {
		t.Errorf("expected general summary, got %q", p.Summary)
	}
	details := p.Details.(core.Detail)
	types, ok := details["analysis_types"].([]string)
	if !ok || len(types) != 4 {
		t.Errorf("expected 4 analysis types, got %v", details["analysis_types"])
	}
}

func TestInsightsLifecycle(t *testing.T) {
	i := NewInsights(nil)
	if i.Initialized() {
		t.Error("expected uninitialized before Init")
	}
	if _, err := i.Handle(context.Background(), "anything", core.RequestContext{}); err == nil {
		t.Fatal("expected Handle to fail before Init")
	} else if errors.CodeOf(err) != errors.CodeNotInitialized {
		t.Errorf("expected NOT_INITIALIZED, got %v", errors.CodeOf(err))
	}

	if err := i.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !i.Initialized() {
		t.Error("expected initialized after Init")
	}

	desc := i.Describe()
	if desc.Name != "insights-agent" {
		t.Errorf("expected insights-agent, got %s", desc.Name)
	}
	if len(desc.Capabilities) != 5 || len(desc.Tools) != 3 {
		t.Errorf("unexpected descriptor: %+v", desc)
	}

	if err := i.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if i.Initialized() {
		t.Error("expected uninitialized after Shutdown")
	}
}

func TestClassifyInsightsQuery(t *testing.T) {
	tests := []struct {
		query string
		want  insightsKind
	}{
		{"emergency response needed", insightsEmergency},
		{"plan the evacuation", insightsEmergency},
		{"what is the chance of rain", insightsRisk},
		{"historical trends for the region", insightsTrend},
		{"vulnerable populations nearby", insightsVulnerability},
		{"good morning", insightsGeneral},
	}
	for _, tt := range tests {
		if got := classifyInsightsQuery(tt.query, core.RequestContext{}); got != tt.want {
			t.Errorf("classifyInsightsQuery(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}
