package orchestrator

import (
	"strings"
	"time"

	"github.com/jllopis/anemos/pkg/core"
)

// fallbackActions is served when a high-urgency merge gathered no emergency
// actions from any responder, including the case where every responder
// failed.
var fallbackActions = []string{
	"Monitor weather conditions closely",
	"Review emergency preparedness plans",
	"Stay informed through official channels",
}

// Aggregator merges per-role results into a single response.
type Aggregator struct{}

// Merge folds results in sequence order. Failed results contribute nothing
// to the merged fields. Urgency always comes from the analysis, and high
// urgency raises the alert flag with immediate actions even when no
// responder succeeded.
func (Aggregator) Merge(analysis core.Analysis, results []core.Result) core.AggregatedResponse {
	resp := core.AggregatedResponse{
		Details:         []any{},
		Recommendations: []string{},
		Sources:         []string{},
		Urgency:         analysis.Urgency,
		Timestamp:       time.Now().UTC(),
	}

	var summaries []string
	for _, r := range results {
		if !r.Succeeded() {
			continue
		}
		p := r.Payload
		if p.Summary != "" {
			summaries = append(summaries, p.Summary)
		}
		resp.Details = appendDetails(resp.Details, p.Details)
		resp.Recommendations = append(resp.Recommendations, p.Recommendations...)
		resp.Sources = append(resp.Sources, p.Sources...)
	}
	resp.Summary = strings.Join(summaries, " ")

	if analysis.Urgency == core.UrgencyHigh {
		resp.Alert = true
		resp.ImmediateActions = collectEmergencyActions(results)
	}
	return resp
}

// appendDetails flattens a payload's details into the merged list: slices
// contribute element-wise, anything else becomes a single element.
func appendDetails(merged []any, details any) []any {
	switch d := details.(type) {
	case nil:
		return merged
	case []core.Detail:
		for _, el := range d {
			merged = append(merged, el)
		}
		return merged
	case []any:
		return append(merged, d...)
	case []string:
		for _, el := range d {
			merged = append(merged, el)
		}
		return merged
	default:
		return append(merged, d)
	}
}

func collectEmergencyActions(results []core.Result) []string {
	var actions []string
	for _, r := range results {
		if r.Succeeded() {
			actions = append(actions, r.Payload.EmergencyActions...)
		}
	}
	if len(actions) == 0 {
		return append([]string(nil), fallbackActions...)
	}
	return actions
}
