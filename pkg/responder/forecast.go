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
	"github.com/jllopis/anemos/pkg/nws"
)

// forecastQueryKind selects the retrieval a forecast query maps to.
type forecastQueryKind int

const (
	forecastGeneral forecastQueryKind = iota
	forecastCurrent
	forecastAlerts
	forecastHurricane
)

var (
	zipPattern       = regexp.MustCompile(`\b\d{5}\b`)
	cityStatePattern = regexp.MustCompile(`([A-Za-z\s]+),\s*([A-Z]{2})`)
)

// ForecastOptions tunes the forecast responder.
type ForecastOptions struct {
	// DefaultCity names the service area used when a query carries no
	// resolvable location.
	DefaultCity string
	DefaultLat  float64
	DefaultLon  float64
}

// Forecast answers live weather queries against the National Weather
// Service: current conditions, period forecasts, active alerts and
// hurricane tracking guidance. When the live service is unreachable it
// degrades to simulated payloads instead of failing the query.
type Forecast struct {
	base
	client *nws.Client
	opts   ForecastOptions
}

// NewForecast builds the forecast responder around a weather client.
func NewForecast(client *nws.Client, opts ForecastOptions, logger *slog.Logger) *Forecast {
	if opts.DefaultCity == "" {
		opts.DefaultCity = "Dallas"
		opts.DefaultLat = 32.7767
		opts.DefaultLon = -96.7970
	}
	f := &Forecast{client: client, opts: opts}
	f.identify(core.RoleForecast, "forecast-agent",
		"Retrieves weather forecasts, current conditions and severe weather alerts",
		[]string{
			"current_conditions",
			"forecast_retrieval",
			"severe_weather_alerts",
			"hurricane_tracking",
			"temperature_forecasts",
		},
		[]core.ToolDescriptor{
			{Name: "get_weather_forecast", Description: "Get weather forecast for a specific location"},
			{Name: "get_current_conditions", Description: "Get current weather conditions for a location"},
			{Name: "get_severe_alerts", Description: "Get active severe weather alerts for an area"},
		}, logger)
	return f
}

// Init verifies the responder has a weather client.
func (f *Forecast) Init(ctx context.Context) error {
	f.logger.Info("responder.init.start")
	if f.client == nil {
		return errors.New(errors.CodeInvalidInput, "forecast responder requires a weather client", nil)
	}
	f.markReady()
	return nil
}

// Handle classifies the query and dispatches to the matching retrieval.
func (f *Forecast) Handle(ctx context.Context, query string, rc core.RequestContext) (*core.Payload, error) {
	if err := f.guard(); err != nil {
		return nil, err
	}
	loc := f.resolveLocation(query, rc)
	switch classifyForecastQuery(query) {
	case forecastCurrent:
		return f.currentConditions(ctx, loc)
	case forecastAlerts:
		return f.severeAlerts(ctx, loc)
	case forecastHurricane:
		return f.hurricaneTracking(), nil
	default:
		return f.forecast(ctx, loc)
	}
}

// classifyForecastQuery picks the retrieval for a query. Current conditions
// win over alerts, alerts over hurricane tracking; everything else gets a
// period forecast.
func classifyForecastQuery(query string) forecastQueryKind {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, "current", "now", "today"):
		return forecastCurrent
	case containsAny(q, "alert", "warning", "watch"):
		return forecastAlerts
	case containsAny(q, "hurricane", "tropical"):
		return forecastHurricane
	default:
		return forecastGeneral
	}
}

// resolveLocation picks coordinates for a query. Explicit coordinates in
// the request context win. Recognized ZIP or "City, ST" mentions are logged
// but resolve to the default service area until a geocoder is wired in.
func (f *Forecast) resolveLocation(query string, rc core.RequestContext) core.Coordinates {
	if rc.Location != nil {
		return *rc.Location
	}
	if m := zipPattern.FindString(query); m != "" {
		f.logger.Debug("responder.location.default", "zip", m, "area", f.opts.DefaultCity)
		return f.defaultCoordinates()
	}
	if m := cityStatePattern.FindStringSubmatch(query); m != nil {
		f.logger.Debug("responder.location.default",
			"city", strings.TrimSpace(m[1]), "state", m[2], "area", f.opts.DefaultCity)
		return f.defaultCoordinates()
	}
	return f.defaultCoordinates()
}

func (f *Forecast) defaultCoordinates() core.Coordinates {
	return core.Coordinates{Lat: f.opts.DefaultLat, Lon: f.opts.DefaultLon}
}

// currentConditions reads the latest station observation near the location.
func (f *Forecast) currentConditions(ctx context.Context, loc core.Coordinates) (*core.Payload, error) {
	return withFallback(ctx, f.logger, "current_conditions", func() (*core.Payload, error) {
		point, err := f.client.Point(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return nil, err
		}
		obs, err := f.client.LatestObservation(ctx, point)
		if err != nil {
			return nil, err
		}
		desc := obs.TextDescription
		if desc == "" {
			desc = "Clear"
		}
		return &core.Payload{
			Summary: fmt.Sprintf("Current conditions: %s", desc),
			Details: core.Detail{
				"temperature":    celsiusToFahrenheit(obs.TemperatureC),
				"humidity":       floatValue(obs.RelativeHumidity),
				"wind_speed":     mpsToMPH(obs.WindSpeedMS),
				"wind_direction": floatValue(obs.WindDirectionDeg),
				"pressure":       floatValue(obs.PressurePa),
				"visibility":     metersToMiles(obs.VisibilityM),
				"description":    desc,
			},
			Location:  &loc,
			Sources:   []string{"National Weather Service"},
			Timestamp: obs.Timestamp,
		}, nil
	}, func() *core.Payload {
		return simulatedCurrent(loc)
	})
}

// forecast reads the period forecast and grades its severity.
func (f *Forecast) forecast(ctx context.Context, loc core.Coordinates) (*core.Payload, error) {
	return withFallback(ctx, f.logger, "forecast", func() (*core.Payload, error) {
		point, err := f.client.Point(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return nil, err
		}
		periods, err := f.client.Forecast(ctx, point)
		if err != nil {
			return nil, err
		}
		severity := assessForecastSeverity(periods)
		p := &core.Payload{
			Summary:   fmt.Sprintf("%d-day forecast available", len(periods)),
			Details:   forecastDetails(periods),
			Severity:  severity,
			Location:  &loc,
			Sources:   []string{"National Weather Service"},
			Timestamp: time.Now().UTC(),
		}
		if severity.Level == "high" {
			p.EmergencyActions = forecastEmergencyActions(periods)
		}
		return p, nil
	}, func() *core.Payload {
		return simulatedForecast(loc)
	})
}

// severeAlerts lists active alerts for the location's forecast zone.
func (f *Forecast) severeAlerts(ctx context.Context, loc core.Coordinates) (*core.Payload, error) {
	return withFallback(ctx, f.logger, "severe_alerts", func() (*core.Payload, error) {
		point, err := f.client.Point(ctx, loc.Lat, loc.Lon)
		if err != nil {
			return nil, err
		}
		alerts, err := f.client.ActiveAlerts(ctx, point)
		if err != nil {
			return nil, err
		}
		details := make([]core.Detail, 0, len(alerts))
		for _, a := range alerts {
			details = append(details, core.Detail{
				"event":        a.Event,
				"severity":     a.Severity,
				"urgency":      a.Urgency,
				"description":  a.Description,
				"instructions": a.Instruction,
				"onset":        a.Onset,
				"expires":      a.Expires,
				"areas":        a.AreaDesc,
			})
		}
		return &core.Payload{
			Summary:          fmt.Sprintf("%d active weather alerts", len(alerts)),
			Details:          details,
			EmergencyActions: alertEmergencyActions(alerts),
			Location:         &loc,
			Sources:          []string{"National Weather Service"},
			Timestamp:        time.Now().UTC(),
		}, nil
	}, func() *core.Payload {
		return simulatedAlerts(loc)
	})
}

// hurricaneTracking answers hurricane queries with tracking guidance. The
// point forecast API carries no storm tracks, so this stays advisory.
func (f *Forecast) hurricaneTracking() *core.Payload {
	return &core.Payload{
		Summary: "Hurricane tracking data available",
		Details: core.Detail{
			"message":        "Hurricane tracking requires additional specialized endpoints",
			"recommendation": "Monitor Hurricane Database and storm-specific advisories",
		},
		EmergencyActions: []string{
			"Monitor National Hurricane Center advisories",
			"Review evacuation plans if in coastal areas",
			"Prepare emergency supplies",
		},
		Sources:   []string{"National Weather Service", "National Hurricane Center"},
		Timestamp: time.Now().UTC(),
	}
}

// forecastDetails shapes the first 14 periods for transport.
func forecastDetails(periods []nws.ForecastPeriod) []core.Detail {
	if len(periods) > 14 {
		periods = periods[:14]
	}
	details := make([]core.Detail, 0, len(periods))
	for _, p := range periods {
		details = append(details, core.Detail{
			"name":             p.Name,
			"temperature":      p.Temperature,
			"temperature_unit": p.TemperatureUnit,
			"wind_speed":       p.WindSpeed,
			"wind_direction":   p.WindDirection,
			"description":      p.DetailedForecast,
			"is_daytime":       p.IsDaytime,
		})
	}
	return details
}

// assessForecastSeverity scores the first week of periods for hazards.
func assessForecastSeverity(periods []nws.ForecastPeriod) *core.SeverityAssessment {
	if len(periods) > 7 {
		periods = periods[:7]
	}
	score := 0
	factors := []string{}
	for _, p := range periods {
		detailed := strings.ToLower(p.DetailedForecast)
		if containsAny(detailed, "severe", "dangerous") {
			score += 3
			factors = append(factors, "Severe weather conditions forecasted")
		}
		if containsAny(detailed, "storm", "thunderstorm") {
			score += 2
			factors = append(factors, "Storm activity expected")
		}
		if p.Temperature > 100 || p.Temperature < 20 {
			score += 2
			factors = append(factors, "Extreme temperature conditions")
		}
		if containsAny(detailed, "flood", "heavy rain") {
			score += 2
			factors = append(factors, "Flooding potential")
		}
	}
	level := "low"
	switch {
	case score >= 6:
		level = "high"
	case score >= 3:
		level = "medium"
	}
	return &core.SeverityAssessment{Level: level, Score: score, Factors: factors}
}

// forecastEmergencyActions derives protective actions from the near-term
// periods.
func forecastEmergencyActions(periods []nws.ForecastPeriod) []string {
	if len(periods) > 3 {
		periods = periods[:3]
	}
	var actions []string
	for _, p := range periods {
		detailed := strings.ToLower(p.DetailedForecast)
		if strings.Contains(detailed, "storm") {
			actions = append(actions, "Secure outdoor objects and equipment")
		}
		if strings.Contains(detailed, "flood") {
			actions = append(actions, "Avoid low-lying areas and underpasses")
		}
		if p.Temperature > 100 {
			actions = append(actions, "Implement heat safety protocols")
		} else if p.Temperature < 32 {
			actions = append(actions, "Protect pipes and outdoor plants from freezing")
		}
	}
	return dedup(actions)
}

// alertEmergencyActions turns alert severities and official guidance into
// protective actions.
func alertEmergencyActions(alerts []nws.Alert) []string {
	var actions []string
	for _, a := range alerts {
		if a.Severity == "Extreme" || a.Severity == "Severe" {
			actions = append(actions, "Take immediate protective action")
		}
		event := strings.ToLower(a.Event)
		switch {
		case strings.Contains(event, "tornado"):
			actions = append(actions, "Seek sturdy shelter immediately")
		case strings.Contains(event, "hurricane"):
			actions = append(actions, "Follow evacuation orders if issued")
		case strings.Contains(event, "flood"):
			actions = append(actions, "Move to higher ground")
		}
		if a.Instruction != "" {
			guidance := a.Instruction
			if len(guidance) > 100 {
				guidance = guidance[:100]
			}
			actions = append(actions, fmt.Sprintf("Official guidance: %s...", guidance))
		}
	}
	return dedup(actions)
}

func simulatedCurrent(loc core.Coordinates) *core.Payload {
	return &core.Payload{
		Summary: "Current conditions: Partly cloudy (simulated data)",
		Details: core.Detail{
			"temperature":    78,
			"humidity":       65,
			"wind_speed":     12,
			"wind_direction": 225,
			"pressure":       30.15,
			"visibility":     10,
			"description":    "Partly cloudy skies",
		},
		Location:  &loc,
		Sources:   []string{"National Weather Service (Simulated)"},
		Timestamp: time.Now().UTC(),
	}
}

func simulatedForecast(loc core.Coordinates) *core.Payload {
	return &core.Payload{
		Summary: "7-day forecast available (simulated data)",
		Details: []core.Detail{
			{
				"name":             "Today",
				"temperature":      85,
				"temperature_unit": "F",
				"wind_speed":       "10 mph",
				"wind_direction":   "SW",
				"description":      "Sunny with occasional clouds",
				"is_daytime":       true,
			},
			{
				"name":             "Tonight",
				"temperature":      68,
				"temperature_unit": "F",
				"wind_speed":       "5 mph",
				"wind_direction":   "S",
				"description":      "Clear skies",
				"is_daytime":       false,
			},
		},
		Severity:  &core.SeverityAssessment{Level: "low", Score: 1, Factors: []string{}},
		Location:  &loc,
		Sources:   []string{"National Weather Service (Simulated)"},
		Timestamp: time.Now().UTC(),
	}
}

func simulatedAlerts(loc core.Coordinates) *core.Payload {
	now := time.Now().UTC().Format(time.RFC3339)
	return &core.Payload{
		Summary: "1 active weather alert (simulated data)",
		Details: []core.Detail{
			{
				"event":        "Heat Advisory",
				"severity":     "Minor",
				"urgency":      "Expected",
				"description":  "Hot temperatures expected this afternoon",
				"instructions": "Stay hydrated and avoid prolonged outdoor exposure",
				"onset":        now,
				"expires":      now,
				"areas":        "Dallas County",
			},
		},
		EmergencyActions: []string{"Stay hydrated", "Limit outdoor activities"},
		Location:         &loc,
		Sources:          []string{"National Weather Service (Simulated)"},
		Timestamp:        time.Now().UTC(),
	}
}
