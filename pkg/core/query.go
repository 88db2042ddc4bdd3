package core

// QueryType is the classified intent of a user query.
type QueryType string

const (
	QueryGeneral      QueryType = "general"
	QueryEmergency    QueryType = "emergency"
	QueryForecast     QueryType = "forecast"
	QueryDataAnalysis QueryType = "data_analysis"
)

// Urgency grades how quickly a query needs an answer.
type Urgency string

const (
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Analysis is the router's classification of a query.
type Analysis struct {
	Type          QueryType `json:"type"`
	Urgency       Urgency   `json:"urgency"`
	LocationBased bool      `json:"location_based"`
	TimeSensitive bool      `json:"time_sensitive"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RequestContext carries caller-supplied context into the pipeline. The
// pipeline reads RequestID, Priority and Location; Extra is opaque
// pass-through.
type RequestContext struct {
	RequestID string
	Priority  string
	Location  *Coordinates
	Extra     map[string]any
}

// Value looks up an opaque context key.
func (rc RequestContext) Value(key string) (any, bool) {
	v, ok := rc.Extra[key]
	return v, ok
}

// WithExtra returns a copy with one extra key set.
func (rc RequestContext) WithExtra(key string, value any) RequestContext {
	extra := make(map[string]any, len(rc.Extra)+1)
	for k, v := range rc.Extra {
		extra[k] = v
	}
	extra[key] = value
	rc.Extra = extra
	return rc
}
