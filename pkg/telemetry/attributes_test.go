// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestRequestAttributes(t *testing.T) {
	attrs := RequestAttributes("req_123", "What is the forecast for Dallas?", 0)

	expected := map[string]any{
		AttrRequestID:    "req_123",
		AttrRequestQuery: "What is the forecast for Dallas?",
	}

	assertAttributes(t, attrs, expected)
}

func TestRequestAttributes_Truncation(t *testing.T) {
	longQuery := strings.Repeat("a", 300)
	attrs := RequestAttributes("req_123", longQuery, 200)

	for _, attr := range attrs {
		if string(attr.Key) == AttrRequestQuery {
			val := attr.Value.AsString()
			if len(val) > 204 { // 200 + "..."
				t.Errorf("query not truncated: len=%d", len(val))
			}
		}
	}
}

func TestClassificationAttributes(t *testing.T) {
	attrs := ClassificationAttributes("emergency", "high", true, true)

	expected := map[string]any{
		AttrQueryType:          "emergency",
		AttrQueryUrgency:       "high",
		AttrQueryLocationBased: true,
		AttrQueryTimeSensitive: true,
	}

	assertAttributes(t, attrs, expected)
}

func TestClassificationAttributes_OmitsFalseFlags(t *testing.T) {
	attrs := ClassificationAttributes("general", "medium", false, false)

	for _, attr := range attrs {
		if string(attr.Key) == AttrQueryLocationBased || string(attr.Key) == AttrQueryTimeSensitive {
			t.Errorf("expected false flag %s to be omitted", attr.Key)
		}
	}
}

func TestResponderAttributes(t *testing.T) {
	attrs := ResponderAttributes("forecast", 150.5, true)

	expected := map[string]any{
		AttrResponderRole:       "forecast",
		AttrResponderDurationMs: 150.5,
		AttrResponderSuccess:    true,
	}

	assertAttributes(t, attrs, expected)
}

func TestResponderFailureAttributes(t *testing.T) {
	attrs := ResponderFailureAttributes("data", "timeout")

	expected := map[string]any{
		AttrResponderRole:        "data",
		AttrResponderSuccess:     false,
		AttrResponderFailureKind: "timeout",
	}

	assertAttributes(t, attrs, expected)
}

func TestDispatchAttributes(t *testing.T) {
	attrs := DispatchAttributes(3, []string{"forecast", "data", "insights"})

	expected := map[string]any{
		AttrDispatchCount: 3,
	}

	assertAttributes(t, attrs, expected)

	// Check roles slice
	for _, attr := range attrs {
		if string(attr.Key) == AttrDispatchRoles {
			roles := attr.Value.AsStringSlice()
			if len(roles) != 3 {
				t.Errorf("expected 3 roles, got %d", len(roles))
			}
		}
	}
}

func TestNWSAttributes(t *testing.T) {
	attrs := NWSAttributes("/points/32.7767,-96.797", "KDAL", "TXZ119", false)

	expected := map[string]any{
		AttrNWSEndpoint: "/points/32.7767,-96.797",
		AttrNWSStation:  "KDAL",
		AttrNWSZone:     "TXZ119",
	}

	assertAttributes(t, attrs, expected)
}

func TestWarehouseAttributes(t *testing.T) {
	attrs := WarehouseAttributes("flood_analysis", 42)

	expected := map[string]any{
		AttrWarehouseQuery: "flood_analysis",
		AttrWarehouseRows:  42,
	}

	assertAttributes(t, attrs, expected)
}

func TestLedgerAttributes(t *testing.T) {
	attrs := LedgerAttributes("memory", 100)

	expected := map[string]any{
		AttrLedgerBackend: "memory",
		AttrLedgerSize:    100,
	}

	assertAttributes(t, attrs, expected)
}

// assertAttributes checks that expected key-value pairs exist in attrs
func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()

	found := make(map[string]attribute.KeyValue)
	for _, attr := range attrs {
		found[string(attr.Key)] = attr
	}

	for key, expectedVal := range expected {
		attr, ok := found[key]
		if !ok {
			t.Errorf("missing attribute %s", key)
			continue
		}

		var actualVal any
		switch attr.Value.Type() {
		case attribute.STRING:
			actualVal = attr.Value.AsString()
		case attribute.INT64:
			actualVal = int(attr.Value.AsInt64())
		case attribute.FLOAT64:
			actualVal = attr.Value.AsFloat64()
		case attribute.BOOL:
			actualVal = attr.Value.AsBool()
		}

		if actualVal != expectedVal {
			t.Errorf("attribute %s: got %v, want %v", key, actualVal, expectedVal)
		}
	}
}
