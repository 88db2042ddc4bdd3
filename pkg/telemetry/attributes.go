// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration with rich attributes
// for weather advisory observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Anemos telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Request attributes
	AttrRequestID     = "anemos.request.id"
	AttrRequestQuery  = "anemos.request.query"
	AttrRequestStatus = "anemos.request.status"

	// Classification attributes
	AttrQueryType          = "anemos.query.type"
	AttrQueryUrgency       = "anemos.query.urgency"
	AttrQueryLocationBased = "anemos.query.location_based"
	AttrQueryTimeSensitive = "anemos.query.time_sensitive"
	AttrQueryEmergency     = "anemos.query.emergency"

	// Responder attributes
	AttrResponderRole        = "anemos.responder.role"
	AttrResponderDurationMs  = "anemos.responder.duration_ms"
	AttrResponderSuccess     = "anemos.responder.success"
	AttrResponderFailureKind = "anemos.responder.failure_kind"

	// Dispatch attributes
	AttrDispatchCount = "anemos.dispatch.count"
	AttrDispatchRoles = "anemos.dispatch.roles"

	// Weather service attributes
	AttrNWSEndpoint  = "anemos.nws.endpoint"
	AttrNWSStation   = "anemos.nws.station"
	AttrNWSZone      = "anemos.nws.zone"
	AttrNWSSimulated = "anemos.nws.simulated"

	// Warehouse attributes
	AttrWarehouseQuery = "anemos.warehouse.query"
	AttrWarehouseRows  = "anemos.warehouse.rows"

	// Ledger attributes
	AttrLedgerBackend = "anemos.ledger.backend"
	AttrLedgerSize    = "anemos.ledger.size"
	AttrLedgerPruned  = "anemos.ledger.pruned"
)

// RequestAttributes returns common attributes for request spans.
// The query text is truncated to keep span payloads bounded.
func RequestAttributes(requestID, query string, maxLen int) []attribute.KeyValue {
	if maxLen <= 0 {
		maxLen = 200
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrRequestID, requestID),
	}
	if query != "" {
		if len(query) > maxLen {
			query = query[:maxLen] + "..."
		}
		attrs = append(attrs, attribute.String(AttrRequestQuery, query))
	}
	return attrs
}

// ClassificationAttributes returns attributes describing how a query was routed.
func ClassificationAttributes(queryType, urgency string, locationBased, timeSensitive bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrQueryType, queryType),
		attribute.String(AttrQueryUrgency, urgency),
	}
	if locationBased {
		attrs = append(attrs, attribute.Bool(AttrQueryLocationBased, locationBased))
	}
	if timeSensitive {
		attrs = append(attrs, attribute.Bool(AttrQueryTimeSensitive, timeSensitive))
	}
	return attrs
}

// ResponderAttributes returns attributes for a responder invocation span.
func ResponderAttributes(role string, durationMs float64, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrResponderRole, role),
		attribute.Float64(AttrResponderDurationMs, durationMs),
		attribute.Bool(AttrResponderSuccess, success),
	}
}

// ResponderFailureAttributes returns attributes for a failed responder call.
func ResponderFailureAttributes(role, failureKind string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrResponderRole, role),
		attribute.Bool(AttrResponderSuccess, false),
	}
	if failureKind != "" {
		attrs = append(attrs, attribute.String(AttrResponderFailureKind, failureKind))
	}
	return attrs
}

// DispatchAttributes returns attributes describing the fan-out for a request.
func DispatchAttributes(count int, roles []string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrDispatchCount, count),
	}
	if len(roles) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrDispatchRoles, roles))
	}
	return attrs
}

// NWSAttributes returns attributes for weather service calls.
func NWSAttributes(endpoint, station, zone string, simulated bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrNWSEndpoint, endpoint),
	}
	if station != "" {
		attrs = append(attrs, attribute.String(AttrNWSStation, station))
	}
	if zone != "" {
		attrs = append(attrs, attribute.String(AttrNWSZone, zone))
	}
	if simulated {
		attrs = append(attrs, attribute.Bool(AttrNWSSimulated, simulated))
	}
	return attrs
}

// WarehouseAttributes returns attributes for historical data queries.
func WarehouseAttributes(queryKind string, rows int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrWarehouseQuery, queryKind),
	}
	if rows >= 0 {
		attrs = append(attrs, attribute.Int(AttrWarehouseRows, rows))
	}
	return attrs
}

// LedgerAttributes returns attributes for request ledger operations.
func LedgerAttributes(backend string, size int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrLedgerBackend, backend),
		attribute.Int(AttrLedgerSize, size),
	}
}
