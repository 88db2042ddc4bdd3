package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestStatus describes the lifecycle state of a tracked request.
// The only legal transitions are processing to completed or error.
type RequestStatus string

const (
	RequestProcessing RequestStatus = "processing"
	RequestCompleted  RequestStatus = "completed"
	RequestError      RequestStatus = "error"
)

// RequestRecord is the bookkeeping entry for one query.
type RequestRecord struct {
	ID        string        `json:"request_id"`
	Query     string        `json:"query"`
	Status    RequestStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Response  any           `json:"response,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// NewRequestID generates a unique request identifier.
func NewRequestID() string {
	millis := time.Now().UTC().UnixMilli()
	return fmt.Sprintf("req_%d_%s", millis, uuid.NewString()[:8])
}

// NewRequestRecord opens a record in the processing state.
func NewRequestRecord(id, query string) RequestRecord {
	return RequestRecord{
		ID:        id,
		Query:     query,
		Status:    RequestProcessing,
		StartedAt: time.Now().UTC(),
	}
}

// Complete transitions the record to completed.
func (r *RequestRecord) Complete(response any, d time.Duration) {
	r.Status = RequestCompleted
	r.Response = response
	r.Duration = d
}

// Fail transitions the record to error.
func (r *RequestRecord) Fail(message string, d time.Duration) {
	r.Status = RequestError
	r.Error = message
	r.Duration = d
}

// RequestSummary is the display form of a record returned by history
// queries. Duration is in milliseconds, matching the envelope convention.
type RequestSummary struct {
	RequestID string        `json:"request_id"`
	Query     string        `json:"query"`
	Status    RequestStatus `json:"status"`
	Duration  float64       `json:"duration"`
	Timestamp string        `json:"timestamp"`
}

const summaryQueryLimit = 100

// Summarize truncates the query for display and flattens timing fields.
func (r RequestRecord) Summarize() RequestSummary {
	q := r.Query
	if len(q) > summaryQueryLimit {
		q = q[:summaryQueryLimit] + "..."
	}
	return RequestSummary{
		RequestID: r.ID,
		Query:     q,
		Status:    r.Status,
		Duration:  float64(r.Duration) / float64(time.Millisecond),
		Timestamp: r.StartedAt.Format(time.RFC3339Nano),
	}
}
