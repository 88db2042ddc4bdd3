// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package responder

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/warehouse"
)

// newTestWarehouse seeds an in-memory archive with dates relative to the
// current year so the ten-season and five-year windows always land the
// same way.
func newTestWarehouse(t *testing.T) *warehouse.Store {
	t.Helper()
	store, err := warehouse.Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	year := time.Now().Year()
	data := &warehouse.Dataset{
		FloodEvents: []warehouse.FloodEvent{
			{State: "TX", Year: year - 1, Month: 8, MaxPrecipitationMM: 94.6, EventCount: 3, AffectedPopulation: 12000},
			{State: "TX", Year: year - 3, Month: 6, MaxPrecipitationMM: 42.2, EventCount: 1, AffectedPopulation: 3500},
			{State: "LA", Year: year - 2, Month: 9, MaxPrecipitationMM: 120.0, EventCount: 5, AffectedPopulation: 30000},
		},
		HurricaneTracks: []warehouse.HurricaneTrack{
			{Name: "ALPHA", Season: year - 1, ISOTime: fmt.Sprintf("%d-09-12 18:00:00", year-1), Lat: 28.9, Lon: -95.3, WindKts: 120, Pressure: 940, Category: 4, DistToLand: 15},
			{Name: "BRAVO", Season: year - 2, ISOTime: fmt.Sprintf("%d-08-22 06:00:00", year-2), Lat: 27.5, Lon: -93.1, WindKts: 100, Pressure: 958, Category: 3, DistToLand: 40},
			{Name: "ANCIENT", Season: year - 15, ISOTime: fmt.Sprintf("%d-09-01 12:00:00", year-15), Lat: 26.0, Lon: -90.0, WindKts: 135, Pressure: 935, Category: 5, DistToLand: 5},
		},
		DailyExtremes: []warehouse.HeatDay{
			{State: "TX", Date: fmt.Sprintf("%d-07-15", year-1), TemperatureMax: 112, TemperatureMin: 89, HeatIndex: 118},
			{State: "TX", Date: fmt.Sprintf("%d-07-20", year-2), TemperatureMax: 104, TemperatureMin: 83, HeatIndex: 109},
		},
	}
	if err := store.SeedIfEmpty(context.Background(), data); err != nil {
		t.Fatalf("SeedIfEmpty failed: %v", err)
	}
	return store
}

func newDataResponder(t *testing.T) *Data {
	t.Helper()
	d := NewData(newTestWarehouse(t), nil)
	if err := d.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return d
}

func TestDataFloodAnalysis(t *testing.T) {
	d := newDataResponder(t)

	p, err := d.Handle(context.Background(), "flood history for TX river basins", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "Found 2 historical flood events in the specified area" {
		t.Errorf("expected flood summary, got %q", p.Summary)
	}
	details, ok := p.Details.([]core.Detail)
	if !ok {
		t.Fatalf("expected detail slice, got %T", p.Details)
	}
	if details[0]["precipitation"] != 94.6 {
		t.Errorf("expected wettest month first, got %v", details[0])
	}
	year := time.Now().Year()
	if details[0]["date"] != fmt.Sprintf("%d-08", year-1) {
		t.Errorf("expected year-month date, got %v", details[0]["date"])
	}
	if p.Analysis["risk_level"] != "high" || p.Analysis["probability"] != 0.7 {
		t.Errorf("expected high risk analysis, got %v", p.Analysis)
	}
	if p.Analysis["historical_events"] != 2 {
		t.Errorf("expected 2 events in analysis, got %v", p.Analysis["historical_events"])
	}
}

func TestDataStormHistory(t *testing.T) {
	d := newDataResponder(t)

	p, err := d.Handle(context.Background(), "major hurricane landfalls near the coast", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "Found 2 major hurricanes (Category 3+) within 100 miles of land in the last 10 years" {
		t.Errorf("expected storm summary, got %q", p.Summary)
	}
	details, ok := p.Details.([]core.Detail)
	if !ok {
		t.Fatalf("expected detail slice, got %T", p.Details)
	}
	if details[0]["name"] != "ALPHA" {
		t.Errorf("expected strongest storm first, got %v", details[0])
	}
	if details[0]["category"] != 4 {
		t.Errorf("expected category 4, got %v", details[0]["category"])
	}
	if p.EmergencyActions[0] != "Immediate evacuation recommended for coastal areas" {
		t.Errorf("expected evacuation action for a category 4, got %v", p.EmergencyActions)
	}
	if len(p.EmergencyActions) != 5 {
		t.Errorf("expected 5 actions, got %v", p.EmergencyActions)
	}
}

func TestDataTemperatureAnalysis(t *testing.T) {
	d := newDataResponder(t)

	p, err := d.Handle(context.Background(), "extreme heat days in TX", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "Found 2 extreme heat days (>100°F) in the last 5 years" {
		t.Errorf("expected heat summary, got %q", p.Summary)
	}
	details, ok := p.Details.([]core.Detail)
	if !ok {
		t.Fatalf("expected detail slice, got %T", p.Details)
	}
	if details[0]["max_temp"] != 112.0 {
		t.Errorf("expected hottest day first, got %v", details[0])
	}
	if p.Recommendations[0] != "Establish cooling centers for vulnerable populations" {
		t.Errorf("expected emergency recommendations above 110F, got %v", p.Recommendations)
	}
	if len(p.Recommendations) != 5 {
		t.Errorf("expected 5 recommendations, got %v", p.Recommendations)
	}
}

func TestDataGeneral(t *testing.T) {
	d := newDataResponder(t)

	p, err := d.Handle(context.Background(), "what can you tell me", core.RequestContext{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if p.Summary != "General weather data available" {
		t.Errorf("expected general summary, got %q", p.Summary)
	}
	if len(p.Capabilities) != 5 {
		t.Errorf("expected 5 capabilities, got %v", p.Capabilities)
	}
	details, ok := p.Details.([]string)
	if !ok || len(details) != 3 {
		t.Errorf("expected 3 dataset descriptions, got %v", p.Details)
	}
}

func TestDataFallsBackWhenStoreClosed(t *testing.T) {
	store, err := warehouse.Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	d := NewData(store, nil)
	if err := d.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()

	p, err := d.Handle(context.Background(), "flood records", core.RequestContext{})
	if err != nil {
		t.Fatalf("expected degraded payload, got error: %v", err)
	}
	if !strings.Contains(p.Summary, "(simulated data)") {
		t.Errorf("expected simulated summary, got %q", p.Summary)
	}
	if p.Analysis["risk_level"] != "high" {
		t.Errorf("expected simulated analysis, got %v", p.Analysis)
	}
}

func TestDataInitRequiresStore(t *testing.T) {
	d := NewData(nil, nil)
	if err := d.Init(context.Background()); err == nil {
		t.Fatal("expected Init to fail without a store")
	}
	if d.Initialized() {
		t.Error("expected responder to stay uninitialized")
	}
}

func TestDataHandleBeforeInit(t *testing.T) {
	d := NewData(newTestWarehouse(t), nil)
	_, err := d.Handle(context.Background(), "flood records", core.RequestContext{})
	if err == nil {
		t.Fatal("expected error before Init")
	}
	if errors.CodeOf(err) != errors.CodeNotInitialized {
		t.Errorf("expected NOT_INITIALIZED, got %v", errors.CodeOf(err))
	}
}

func TestClassifyDataQuery(t *testing.T) {
	tests := []struct {
		query string
		want  dataQueryKind
	}{
		{"flood risk for the river basin", dataFlood},
		{"rainfall totals last month", dataFlood},
		{"hurricane season history", dataStorm},
		{"tornado outbreak records", dataStorm},
		{"extreme heat statistics", dataTemperature},
		{"temperature extremes", dataTemperature},
		{"what datasets are available", dataGeneral},
	}
	for _, tt := range tests {
		if got := classifyDataQuery(tt.query); got != tt.want {
			t.Errorf("classifyDataQuery(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestExtractState(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"flooding in TX", "TX"},
		{"heat wave across AZ counties", "AZ"},
		{"flood risk assessment", "TX"},
		{"lowercase tx is ignored", "TX"},
	}
	for _, tt := range tests {
		if got := extractState(tt.query); got != tt.want {
			t.Errorf("extractState(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
