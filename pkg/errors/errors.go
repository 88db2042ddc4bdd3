// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Anemos.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode classifies Anemos errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeResponderFailure indicates a responder invocation failed.
	CodeResponderFailure ErrorCode = "RESPONDER_FAILURE"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCanceled indicates the caller abandoned the operation.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeUnavailable indicates an upstream dependency was unreachable.
	CodeUnavailable ErrorCode = "UNAVAILABLE"

	// CodeNotInitialized indicates the orchestrator is not serving yet.
	CodeNotInitialized ErrorCode = "NOT_INITIALIZED"
)

// AnemosError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type AnemosError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *AnemosError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *AnemosError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *AnemosError) MarshalJSON() ([]byte, error) {
	type Alias AnemosError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new AnemosError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *AnemosError {
	return &AnemosError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *AnemosError) WithContext(key string, value interface{}) *AnemosError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *AnemosError) WithAttribute(key, value string) *AnemosError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *AnemosError) WithRecoverable(recoverable bool) *AnemosError {
	e.Recoverable = recoverable
	return e
}

// AsAnemosError attempts to convert an error to an AnemosError.
// Returns the error as AnemosError if it is one, or wraps it otherwise.
func AsAnemosError(err error) *AnemosError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AnemosError); ok {
		return ae
	}
	// Wrap unknown error as internal
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf extracts the error code, defaulting to CodeInternal for untyped
// errors and returning "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ae, ok := err.(*AnemosError); ok {
		return ae.Code
	}
	return CodeInternal
}

// TypeName renders the error's classification for response envelopes: the
// code for typed errors, the Go type name otherwise.
func TypeName(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := err.(*AnemosError); ok {
		return string(ae.Code)
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *AnemosError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404 // NOT_FOUND
	case CodeInvalidInput:
		return 400 // INVALID_ARGUMENT
	case CodeTimeout:
		return 408 // DEADLINE_EXCEEDED
	case CodeUnavailable, CodeNotInitialized:
		return 503 // UNAVAILABLE
	default:
		return 500 // INTERNAL
	}
}
