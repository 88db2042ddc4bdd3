package core

import "time"

// SystemLabel tags every envelope with the producing system.
const SystemLabel = "Anemos Weather Advisor"

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorDetail carries a pipeline failure to the caller.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Envelope is the outer wrapper returned for every orchestrated request.
type Envelope struct {
	RequestID   string       `json:"request_id"`
	Status      string       `json:"status"`
	Data        any          `json:"data,omitempty"`
	Error       *ErrorDetail `json:"error,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	AgentSystem string       `json:"agent_system"`
}

// SuccessEnvelope wraps response data for the caller.
func SuccessEnvelope(requestID string, data any) Envelope {
	return Envelope{
		RequestID:   requestID,
		Status:      StatusSuccess,
		Data:        data,
		Timestamp:   time.Now().UTC(),
		AgentSystem: SystemLabel,
	}
}

// ErrorEnvelope wraps a pipeline failure for the caller.
func ErrorEnvelope(requestID, message, errType string) Envelope {
	return Envelope{
		RequestID:   requestID,
		Status:      StatusError,
		Error:       &ErrorDetail{Message: message, Type: errType},
		Timestamp:   time.Now().UTC(),
		AgentSystem: SystemLabel,
	}
}
