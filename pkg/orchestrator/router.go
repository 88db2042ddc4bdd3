// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"strings"

	"github.com/jllopis/anemos/pkg/core"
)

// Keyword tables driving classification. Matching is case-insensitive
// substring membership.
var (
	dataKeywords      = []string{"historical", "records", "statistics", "data", "trends"}
	forecastKeywords  = []string{"forecast", "prediction", "upcoming", "future", "expected"}
	emergencyKeywords = []string{"hurricane", "tornado", "flood", "evacuation", "emergency", "disaster"}
	locationKeywords  = []string{"city", "county", "state", "zip", "coordinates", "area"}
)

// Router classifies queries and plans which responders serve them.
type Router struct{}

// Analyze classifies a query. The checks run in a fixed sequence and later
// matches overwrite the type set by earlier ones, so a query carrying both
// emergency and forecast keywords classifies as forecast while keeping the
// high urgency the emergency match raised.
func (Router) Analyze(query string) core.Analysis {
	analysis := core.Analysis{Type: core.QueryGeneral, Urgency: core.UrgencyMedium}
	q := strings.ToLower(query)

	if matchesAny(q, emergencyKeywords) {
		analysis.Type = core.QueryEmergency
		analysis.Urgency = core.UrgencyHigh
	}
	if matchesAny(q, forecastKeywords) {
		analysis.Type = core.QueryForecast
		analysis.TimeSensitive = true
	}
	if matchesAny(q, dataKeywords) {
		analysis.Type = core.QueryDataAnalysis
	}
	if matchesAny(q, locationKeywords) {
		analysis.LocationBased = true
	}
	return analysis
}

// RolesFor plans the responder set for an analysis. The plan is never empty
// and never holds duplicates.
func (Router) RolesFor(a core.Analysis) []core.Role {
	switch a.Type {
	case core.QueryEmergency:
		return core.EmergencyRoles()
	case core.QueryForecast:
		roles := []core.Role{core.RoleForecast}
		if a.LocationBased {
			roles = append(roles, core.RoleData)
		}
		return roles
	case core.QueryDataAnalysis:
		return []core.Role{core.RoleData, core.RoleInsights}
	default:
		return []core.Role{core.RoleForecast}
	}
}

func matchesAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
