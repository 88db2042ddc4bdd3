// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package responder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/jllopis/anemos/pkg/core"
)

// insightsKind selects the analysis an insights query maps to.
type insightsKind string

const (
	insightsGeneral       insightsKind = "general_insights"
	insightsEmergency     insightsKind = "emergency_correlation"
	insightsRisk          insightsKind = "risk_assessment"
	insightsTrend         insightsKind = "trend_analysis"
	insightsVulnerability insightsKind = "vulnerability_analysis"
)

// factorSource produces a situational factor score in [lo, hi]. The default
// draws from math/rand; tests inject a deterministic source.
type factorSource func(lo, hi int) int

// emergencyFactors scores the situational axes an emergency correlation
// weighs. Scales run 1-10.
type emergencyFactors struct {
	WeatherSeverity             int `json:"weather_severity"`
	HistoricalPrecedent         int `json:"historical_precedent"`
	PopulationDensity           int `json:"population_density"`
	InfrastructureVulnerability int `json:"infrastructure_vulnerability"`
	ResponseCapacity            int `json:"response_capacity"`
}

// elevated lists factor names scoring at or above the threshold, in
// assessment order.
func (ef emergencyFactors) elevated(threshold int) []string {
	var names []string
	for _, f := range []struct {
		name  string
		value int
	}{
		{"weather_severity", ef.WeatherSeverity},
		{"historical_precedent", ef.HistoricalPrecedent},
		{"population_density", ef.PopulationDensity},
		{"infrastructure_vulnerability", ef.InfrastructureVulnerability},
		{"response_capacity", ef.ResponseCapacity},
	} {
		if f.value >= threshold {
			names = append(names, f.name)
		}
	}
	return names
}

// priorityAssessment is the weighted outcome of an emergency correlation.
type priorityAssessment struct {
	Level     string
	Score     int
	Timeframe string
}

// Insights correlates responder outputs into actionable intelligence:
// emergency prioritization, risk scoring, trend and vulnerability analysis.
type Insights struct {
	base
	factors factorSource
}

// NewInsights builds the insights responder.
func NewInsights(logger *slog.Logger) *Insights {
	i := &Insights{
		factors: func(lo, hi int) int { return lo + rand.Intn(hi-lo+1) },
	}
	i.identify(core.RoleInsights, "insights-agent",
		"Correlates data and generates natural-language summaries for actionable weather intelligence",
		[]string{
			"data_correlation",
			"risk_assessment",
			"trend_analysis",
			"emergency_prioritization",
			"natural_language_synthesis",
		},
		[]core.ToolDescriptor{
			{Name: "correlate_historical_forecast", Description: "Correlate historical data with current forecasts for risk assessment"},
			{Name: "assess_population_risk", Description: "Assess risk to vulnerable populations based on weather conditions"},
			{Name: "generate_emergency_summary", Description: "Generate actionable emergency response summary"},
		}, logger)
	return i
}

// Init readies the responder. Insights needs no external services.
func (i *Insights) Init(ctx context.Context) error {
	i.logger.Info("responder.init.start")
	i.markReady()
	return nil
}

// Handle picks the analysis for the query and runs it. An analysis_type in
// the request context overrides keyword classification; the orchestrator
// uses that for the emergency correlation pass.
func (i *Insights) Handle(ctx context.Context, query string, rc core.RequestContext) (*core.Payload, error) {
	if err := i.guard(); err != nil {
		return nil, err
	}
	switch classifyInsightsQuery(query, rc) {
	case insightsEmergency:
		return i.emergencyCorrelation(), nil
	case insightsRisk:
		return i.riskAssessment(), nil
	case insightsTrend:
		return i.trendAnalysis(), nil
	case insightsVulnerability:
		return i.vulnerabilityAnalysis(), nil
	default:
		return i.generalInsights(), nil
	}
}

// classifyInsightsQuery picks the analysis kind. The request context wins
// over query keywords.
func classifyInsightsQuery(query string, rc core.RequestContext) insightsKind {
	if v, ok := rc.Value("analysis_type"); ok {
		if s, ok := v.(string); ok && s != "" {
			return insightsKind(s)
		}
	}
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "emergency", "evacuation", "immediate"):
		return insightsEmergency
	case containsAny(q, "risk", "probability", "chance"):
		return insightsRisk
	case containsAny(q, "trend", "pattern", "historical"):
		return insightsTrend
	case containsAny(q, "population", "elderly", "vulnerable"):
		return insightsVulnerability
	default:
		return insightsGeneral
	}
}

// emergencyCorrelation scores situational factors and derives a response
// priority with recommendations and immediate actions.
func (i *Insights) emergencyCorrelation() *core.Payload {
	factors := emergencyFactors{
		WeatherSeverity:             i.factors(4, 9),
		HistoricalPrecedent:         i.factors(3, 8),
		PopulationDensity:           i.factors(5, 9),
		InfrastructureVulnerability: i.factors(4, 8),
		ResponseCapacity:            i.factors(3, 7),
	}
	pa := assessEmergencyPriority(factors)
	return &core.Payload{
		Summary: emergencySummary(factors, pa),
		Details: core.Detail{
			"correlation_factors": factors,
			"priority_level":      pa.Level,
			"time_sensitivity":    pa.Timeframe,
			"affected_areas":      []string{"Urban core", "Suburban areas", "Rural communities"},
		},
		Recommendations:  emergencyRecommendations(pa),
		EmergencyActions: immediateActions(pa),
		Sources:          []string{"Multi-agent correlation analysis"},
		Timestamp:        time.Now().UTC(),
	}
}

// riskAssessment scores fixed primary and secondary risk factors.
func (i *Insights) riskAssessment() *core.Payload {
	primary := []string{
		"Severe weather conditions forecasted",
		"Historical precedent for flooding in area",
		"High population density in affected zone",
	}
	secondary := []string{
		"Limited evacuation route capacity",
		"Aging infrastructure",
		"Tourist season population increase",
	}
	score, level := riskScore(primary, secondary)
	return &core.Payload{
		Summary: fmt.Sprintf("Risk assessment complete: %s risk level identified", level),
		Details: core.Detail{
			"risk_score":        score,
			"risk_level":        level,
			"primary_factors":   primary,
			"secondary_factors": secondary,
			"confidence_level":  0.85,
		},
		Recommendations: mitigationStrategies(primary, secondary),
		Timeline: map[string][]string{
			"immediate":   {"Monitor weather conditions"},
			"6-12 hours":  {"Prepare emergency resources"},
			"12-24 hours": {"Issue public advisories"},
			"24+ hours":   {"Implement response plans"},
		},
		Sources:   []string{"Risk assessment correlation"},
		Timestamp: time.Now().UTC(),
	}
}

// trendAnalysis reports significant historical patterns and projections.
func (i *Insights) trendAnalysis() *core.Payload {
	patterns := []string{
		"Increasing frequency of extreme heat events",
		"Earlier onset of severe weather seasons",
		"Higher intensity precipitation events",
	}
	return &core.Payload{
		Summary: fmt.Sprintf("Trend analysis reveals %d significant patterns", len(patterns)),
		Details: core.Detail{
			"identified_trends":      patterns,
			"statistical_confidence": 0.8,
			"data_span":              "10 years",
			"anomalies":              []string{"Unusual temperature spike in 2023"},
		},
		Projections: []string{
			"15% increase in heat wave days expected over next 5 years",
			"Storm seasons may begin 2 weeks earlier on average",
		},
		Insights: []string{
			"Climate adaptation strategies should focus on heat resilience",
			"Emergency preparedness timelines may need adjustment",
		},
		Sources:   []string{"Historical trend analysis"},
		Timestamp: time.Now().UTC(),
	}
}

// vulnerabilityAnalysis reports population groups at elevated risk.
func (i *Insights) vulnerabilityAnalysis() *core.Payload {
	highRiskGroups := []string{"Adults 65+", "Children under 5", "Outdoor workers"}
	return &core.Payload{
		Summary: fmt.Sprintf("Vulnerability analysis identifies %d high-risk population groups", len(highRiskGroups)),
		Details: core.Detail{
			"vulnerability_score":    7.2,
			"high_risk_groups":       highRiskGroups,
			"geographic_factors":     []string{"Low-lying coastal areas", "Urban heat islands"},
			"infrastructure_factors": []string{"Aging power grid", "Limited transportation routes"},
			"social_factors":         []string{"Elderly populations", "Low-income communities"},
		},
		Recommendations: []string{
			"Establish cooling centers in affected neighborhoods",
			"Implement check-in programs for vulnerable residents",
			"Ensure accessible evacuation transportation",
		},
		PriorityActions: []string{
			"Identify and contact high-risk individuals",
			"Prepare accessible emergency shelters",
			"Coordinate with community organizations",
		},
		Sources:   []string{"Vulnerability assessment"},
		Timestamp: time.Now().UTC(),
	}
}

// generalInsights describes the analyses this responder offers.
func (i *Insights) generalInsights() *core.Payload {
	return &core.Payload{
		Summary: "General weather insights available",
		Details: core.Detail{
			"capabilities": append([]string(nil), i.caps...),
			"analysis_types": []string{
				string(insightsEmergency),
				string(insightsRisk),
				string(insightsTrend),
				string(insightsVulnerability),
			},
		},
		Sources:   []string{"Insights Agent"},
		Timestamp: time.Now().UTC(),
	}
}

// assessEmergencyPriority weights the correlation factors into a response
// priority.
func assessEmergencyPriority(f emergencyFactors) priorityAssessment {
	score := 0
	switch {
	case f.WeatherSeverity >= 8:
		score += 40
	case f.WeatherSeverity >= 6:
		score += 25
	case f.WeatherSeverity >= 4:
		score += 15
	}
	if f.HistoricalPrecedent >= 7 {
		score += 20
	}
	if f.PopulationDensity >= 7 {
		score += 15
	}
	if f.InfrastructureVulnerability >= 6 {
		score += 15
	}
	if f.ResponseCapacity <= 4 {
		score += 10
	}
	switch {
	case score >= 80:
		return priorityAssessment{Level: "critical", Score: score, Timeframe: "immediate"}
	case score >= 60:
		return priorityAssessment{Level: "high", Score: score, Timeframe: "2-6 hours"}
	case score >= 40:
		return priorityAssessment{Level: "medium", Score: score, Timeframe: "6-12 hours"}
	default:
		return priorityAssessment{Level: "low", Score: score, Timeframe: "24-48 hours"}
	}
}

// emergencySummary phrases the correlation outcome for the priority level.
func emergencySummary(f emergencyFactors, pa priorityAssessment) string {
	concerns := strings.Join(f.elevated(6), ", ")
	switch pa.Level {
	case "critical":
		return fmt.Sprintf("CRITICAL: Immediate emergency response required within %s. Primary concerns: %s.", pa.Timeframe, concerns)
	case "high":
		return fmt.Sprintf("HIGH PRIORITY: Emergency preparations needed within %s. Key factors: %s.", pa.Timeframe, concerns)
	default:
		return fmt.Sprintf("Monitoring situation. Preparedness recommended within %s. Factors to watch: %s.", pa.Timeframe, concerns)
	}
}

// emergencyRecommendations picks recommendations for a priority level.
func emergencyRecommendations(pa priorityAssessment) []string {
	switch pa.Level {
	case "critical":
		return []string{
			"Activate emergency operations center immediately",
			"Issue evacuation orders for high-risk areas",
			"Deploy emergency response teams",
		}
	case "high":
		return []string{
			"Place emergency services on standby",
			"Issue public safety advisories",
			"Prepare evacuation routes and shelters",
		}
	default:
		return []string{
			"Monitor conditions closely",
			"Review emergency response plans",
			"Inform public of potential risks",
		}
	}
}

// immediateActions picks actions for a response timeframe.
func immediateActions(pa priorityAssessment) []string {
	switch {
	case pa.Timeframe == "immediate":
		return []string{
			"Execute emergency protocols NOW",
			"Notify all emergency personnel",
			"Begin public notifications",
		}
	case strings.Contains(pa.Timeframe, "hours"):
		return []string{
			"Alert emergency management teams",
			"Prepare public communication systems",
			"Stage emergency resources",
		}
	default:
		return nil
	}
}

// riskScore weights primary factors at 0.7 and secondary at 0.3.
func riskScore(primary, secondary []string) (int, string) {
	total := float64(len(primary)*25)*0.7 + float64(len(secondary)*15)*0.3
	score := int(total + 0.5)
	level := "low"
	switch {
	case total >= 70:
		level = "high"
	case total >= 40:
		level = "medium"
	}
	return score, level
}

// mitigationStrategies derives strategies from the factor lists.
func mitigationStrategies(primary, secondary []string) []string {
	var strategies []string
	for _, f := range primary {
		if strings.Contains(strings.ToLower(f), "flood") {
			strategies = append(strategies,
				"Deploy water rescue teams to high-risk areas",
				"Open elevated emergency shelters")
			break
		}
	}
	for _, f := range secondary {
		if strings.Contains(strings.ToLower(f), "infrastructure") {
			strategies = append(strategies,
				"Inspect critical infrastructure systems",
				"Prepare backup power systems")
			break
		}
	}
	return strategies
}
