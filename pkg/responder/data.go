// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package responder

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/telemetry"
	"github.com/jllopis/anemos/pkg/warehouse"
)

// dataQueryKind selects the analysis a data query maps to.
type dataQueryKind int

const (
	dataGeneral dataQueryKind = iota
	dataFlood
	dataStorm
	dataTemperature
)

var statePattern = regexp.MustCompile(`\b([A-Z]{2})\b`)

// Data answers historical queries against the NOAA archive warehouse:
// flood events, major hurricane tracks and temperature extremes. When the
// archive is unreachable it degrades to simulated payloads.
type Data struct {
	base
	store *warehouse.Store
}

// NewData builds the data responder around an archive store.
func NewData(store *warehouse.Store, logger *slog.Logger) *Data {
	d := &Data{store: store}
	d.identify(core.RoleData, "data-agent",
		"Queries NOAA archive datasets for historical weather data and analytics",
		[]string{
			"historical_data_analysis",
			"storm_track_queries",
			"flood_record_analysis",
			"temperature_extremes",
			"precipitation_patterns",
		},
		[]core.ToolDescriptor{
			{Name: "query_historical_storms", Description: "Query historical storm data from NOAA datasets"},
			{Name: "analyze_flood_risk", Description: "Analyze historical flood data for specific river basins"},
			{Name: "get_temperature_extremes", Description: "Get historical temperature extremes for heat wave analysis"},
		}, logger)
	return d
}

// Init verifies the archive store is reachable.
func (d *Data) Init(ctx context.Context) error {
	d.logger.Info("responder.init.start")
	if d.store == nil {
		return errors.New(errors.CodeInvalidInput, "data responder requires an archive store", nil)
	}
	if err := d.store.Ping(ctx); err != nil {
		return errors.New(errors.CodeUnavailable, "archive store unreachable", err)
	}
	d.markReady()
	return nil
}

// Handle classifies the query and dispatches to the matching analysis.
func (d *Data) Handle(ctx context.Context, query string, rc core.RequestContext) (*core.Payload, error) {
	if err := d.guard(); err != nil {
		return nil, err
	}
	switch classifyDataQuery(query) {
	case dataFlood:
		return d.floodAnalysis(ctx, extractState(query))
	case dataStorm:
		return d.stormHistory(ctx)
	case dataTemperature:
		return d.temperatureAnalysis(ctx, extractState(query))
	default:
		return d.generalData(), nil
	}
}

// classifyDataQuery picks the analysis for a query. Flood queries win over
// storm history, storm history over temperature analysis.
func classifyDataQuery(query string) dataQueryKind {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "flood", "rainfall", "river"):
		return dataFlood
	case containsAny(q, "hurricane", "storm", "tornado"):
		return dataStorm
	case containsAny(q, "heat", "temperature", "cooling"):
		return dataTemperature
	default:
		return dataGeneral
	}
}

// extractState pulls a two-letter state code from the query, defaulting to
// the primary service area.
func extractState(query string) string {
	if m := statePattern.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return "TX"
}

// floodAnalysis reads monthly flood records for a state and grades risk.
func (d *Data) floodAnalysis(ctx context.Context, state string) (*core.Payload, error) {
	ctx, span := d.tracer.Start(ctx, "Data.FloodAnalysis")
	defer span.End()
	return withFallback(ctx, d.logger, "flood_analysis", func() (*core.Payload, error) {
		events, err := d.store.FloodEvents(ctx, state)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(telemetry.WarehouseAttributes("flood_analysis", len(events))...)
		details := make([]core.Detail, 0, len(events))
		for _, e := range events {
			details = append(details, core.Detail{
				"date":                fmt.Sprintf("%d-%02d", e.Year, e.Month),
				"precipitation":       e.MaxPrecipitationMM,
				"events":              e.EventCount,
				"population_affected": e.AffectedPopulation,
			})
		}
		return &core.Payload{
			Summary:   fmt.Sprintf("Found %d historical flood events in the specified area", len(events)),
			Details:   details,
			Analysis:  floodRiskAnalysis(events),
			Sources:   []string{"NOAA Historic Severe Storms Dataset"},
			Timestamp: time.Now().UTC(),
		}, nil
	}, simulatedFlood)
}

// stormHistory reads major hurricane fixes near land from the last decade.
func (d *Data) stormHistory(ctx context.Context) (*core.Payload, error) {
	ctx, span := d.tracer.Start(ctx, "Data.StormHistory")
	defer span.End()
	return withFallback(ctx, d.logger, "storm_history", func() (*core.Payload, error) {
		tracks, err := d.store.MajorHurricanes(ctx)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(telemetry.WarehouseAttributes("storm_history", len(tracks))...)
		details := make([]core.Detail, 0, len(tracks))
		for _, t := range tracks {
			details = append(details, core.Detail{
				"name":             t.Name,
				"date":             t.ISOTime,
				"location":         []float64{t.Lat, t.Lon},
				"wind_speed":       t.WindKts,
				"pressure":         t.Pressure,
				"category":         t.Category,
				"distance_to_land": t.DistToLand,
			})
		}
		return &core.Payload{
			Summary:          fmt.Sprintf("Found %d major hurricanes (Category 3+) within 100 miles of land in the last 10 years", len(tracks)),
			Details:          details,
			EmergencyActions: stormActions(tracks),
			Sources:          []string{"NOAA Hurricane Database"},
			Timestamp:        time.Now().UTC(),
		}, nil
	}, simulatedStorms)
}

// temperatureAnalysis reads extreme heat days for a state.
func (d *Data) temperatureAnalysis(ctx context.Context, state string) (*core.Payload, error) {
	ctx, span := d.tracer.Start(ctx, "Data.TemperatureAnalysis")
	defer span.End()
	return withFallback(ctx, d.logger, "temperature_analysis", func() (*core.Payload, error) {
		days, err := d.store.ExtremeHeatDays(ctx, state)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(telemetry.WarehouseAttributes("temperature_analysis", len(days))...)
		details := make([]core.Detail, 0, len(days))
		for _, day := range days {
			details = append(details, core.Detail{
				"date":       day.Date,
				"max_temp":   day.TemperatureMax,
				"min_temp":   day.TemperatureMin,
				"heat_index": day.HeatIndex,
				"state":      day.State,
			})
		}
		return &core.Payload{
			Summary:         fmt.Sprintf("Found %d extreme heat days (>100°F) in the last 5 years", len(days)),
			Details:         details,
			Recommendations: heatRecommendations(days),
			Sources:         []string{"NOAA Global Summary of the Day"},
			Timestamp:       time.Now().UTC(),
		}, nil
	}, simulatedHeat)
}

// generalData describes what the archive can answer.
func (d *Data) generalData() *core.Payload {
	return &core.Payload{
		Summary:      "General weather data available",
		Details:      []string{"Access to NOAA historical datasets", "Storm tracking data", "Temperature records"},
		Capabilities: append([]string(nil), d.caps...),
		Sources:      []string{"NOAA Archive Datasets"},
		Timestamp:    time.Now().UTC(),
	}
}

// floodRiskAnalysis grades flood risk from historical precipitation.
func floodRiskAnalysis(events []warehouse.FloodEvent) core.Detail {
	if len(events) == 0 {
		return core.Detail{"risk_level": "low", "probability": 0}
	}
	var sum, max float64
	for _, e := range events {
		sum += e.MaxPrecipitationMM
		if e.MaxPrecipitationMM > max {
			max = e.MaxPrecipitationMM
		}
	}
	avg := sum / float64(len(events))
	level, probability := "low", 0.2
	switch {
	case avg > 50:
		level, probability = "high", 0.7
	case avg > 25:
		level, probability = "medium", 0.4
	}
	return core.Detail{
		"risk_level":        level,
		"probability":       probability,
		"avg_precipitation": avg,
		"max_precipitation": max,
		"historical_events": len(events),
	}
}

// stormActions derives emergency actions from recent major hurricanes.
func stormActions(tracks []warehouse.HurricaneTrack) []string {
	var actions []string
	for _, t := range tracks {
		if t.Category >= 4 {
			actions = append(actions,
				"Immediate evacuation recommended for coastal areas",
				"Secure or relocate outdoor equipment and vehicles")
			break
		}
	}
	return append(actions,
		"Monitor official weather channels for updates",
		"Ensure emergency supplies are readily available",
		"Review evacuation routes and shelter locations")
}

// heatRecommendations derives safety guidance from extreme heat history.
func heatRecommendations(days []warehouse.HeatDay) []string {
	var recs []string
	for _, day := range days {
		if day.TemperatureMax > 110 {
			recs = append(recs,
				"Establish cooling centers for vulnerable populations",
				"Issue heat emergency alerts")
			break
		}
	}
	return append(recs,
		"Increase hydration reminders",
		"Limit outdoor activities during peak hours",
		"Check on elderly and vulnerable community members")
}

func simulatedFlood() *core.Payload {
	return &core.Payload{
		Summary: "Found 15 historical flood events in the specified area (simulated data)",
		Details: []core.Detail{
			{"date": "2023-08", "precipitation": 89.2, "events": 3, "population_affected": 12000},
			{"date": "2022-06", "precipitation": 67.8, "events": 2, "population_affected": 8500},
			{"date": "2021-09", "precipitation": 78.5, "events": 4, "population_affected": 15600},
		},
		Analysis: core.Detail{
			"risk_level":        "high",
			"probability":       0.75,
			"avg_precipitation": 78.5,
			"max_precipitation": 89.2,
			"historical_events": 15,
		},
		Sources:   []string{"NOAA Historic Severe Storms Dataset (Simulated)"},
		Timestamp: time.Now().UTC(),
	}
}

func simulatedStorms() *core.Payload {
	return &core.Payload{
		Summary: "Found 8 major hurricanes (Category 3+) within 100 miles of land in the last 10 years (simulated data)",
		Details: []core.Detail{
			{
				"name":       "Hurricane Delta",
				"date":       "2023-09-15",
				"location":   []float64{29.2, -94.8},
				"wind_speed": 145,
				"category":   4,
			},
			{
				"name":       "Hurricane Gamma",
				"date":       "2022-08-22",
				"location":   []float64{28.5, -95.2},
				"wind_speed": 125,
				"category":   3,
			},
		},
		EmergencyActions: []string{
			"Monitor official weather channels for updates",
			"Ensure emergency supplies are readily available",
			"Review evacuation routes and shelter locations",
		},
		Sources:   []string{"NOAA Hurricane Database (Simulated)"},
		Timestamp: time.Now().UTC(),
	}
}

func simulatedHeat() *core.Payload {
	return &core.Payload{
		Summary: "Found 25 extreme heat days (>100°F) in the last 5 years (simulated data)",
		Details: []core.Detail{
			{"date": "2023-07-15", "max_temp": 112, "min_temp": 89, "heat_index": 118, "state": "TX"},
			{"date": "2023-07-14", "max_temp": 108, "min_temp": 87, "heat_index": 115, "state": "TX"},
		},
		Recommendations: []string{
			"Increase hydration reminders",
			"Limit outdoor activities during peak hours",
			"Check on elderly and vulnerable community members",
		},
		Sources:   []string{"NOAA Global Summary of the Day (Simulated)"},
		Timestamp: time.Now().UTC(),
	}
}
