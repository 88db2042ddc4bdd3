package core

import "time"

// AggregatedResponse is the merged output of one coordinated request.
type AggregatedResponse struct {
	Summary          string    `json:"summary"`
	Details          []any     `json:"details"`
	Recommendations  []string  `json:"recommendations"`
	Sources          []string  `json:"sources"`
	Urgency          Urgency   `json:"urgency"`
	Alert            bool      `json:"alert,omitempty"`
	ImmediateActions []string  `json:"immediate_actions,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// EmergencyResponse wraps the priority path's output: the raw per-role
// results plus one correlation pass over them.
type EmergencyResponse struct {
	Type           string    `json:"type"`
	Analysis       Result    `json:"analysis"`
	AgentResponses []Result  `json:"agent_responses"`
	Priority       string    `json:"priority"`
	Timestamp      time.Time `json:"timestamp"`
}
