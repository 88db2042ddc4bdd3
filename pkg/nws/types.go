package nws

import (
	"strings"
	"time"
)

// Point resolves a coordinate to the gridpoint links that drive every
// other lookup.
type Point struct {
	ForecastURL            string
	ForecastZoneURL        string
	ObservationStationsURL string
}

// ZoneID extracts the forecast zone identifier from the zone link.
func (p *Point) ZoneID() string {
	if p == nil || p.ForecastZoneURL == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(p.ForecastZoneURL, "/"), "/")
	return parts[len(parts)-1]
}

// Observation is the latest station report for a point. Quantitative
// fields are nil when the station did not report them.
type Observation struct {
	Station          string
	Timestamp        time.Time
	TextDescription  string
	TemperatureC     *float64
	RelativeHumidity *float64
	WindSpeedMS      *float64
	WindDirectionDeg *float64
	PressurePa       *float64
	VisibilityM      *float64
}

// ForecastPeriod is one narrative period from the gridpoint forecast.
type ForecastPeriod struct {
	Name             string `json:"name"`
	Temperature      int    `json:"temperature"`
	TemperatureUnit  string `json:"temperatureUnit"`
	WindSpeed        string `json:"windSpeed"`
	WindDirection    string `json:"windDirection"`
	ShortForecast    string `json:"shortForecast"`
	DetailedForecast string `json:"detailedForecast"`
	IsDaytime        bool   `json:"isDaytime"`
}

// Alert is one active alert for a forecast zone. Onset and Expires carry
// the raw API timestamps; ExpiresAt is the parsed expiry when available.
type Alert struct {
	Event       string
	Severity    string
	Urgency     string
	Description string
	Instruction string
	Onset       string
	Expires     string
	AreaDesc    string
	ExpiresAt   time.Time
}

// measurement is a quantitative value from the API.
type measurement struct {
	Value *float64 `json:"value"`
}

type pointResponse struct {
	Properties struct {
		Forecast            string `json:"forecast"`
		ForecastZone        string `json:"forecastZone"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
		} `json:"properties"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		Timestamp          string      `json:"timestamp"`
		TextDescription    string      `json:"textDescription"`
		Temperature        measurement `json:"temperature"`
		RelativeHumidity   measurement `json:"relativeHumidity"`
		WindSpeed          measurement `json:"windSpeed"`
		WindDirection      measurement `json:"windDirection"`
		BarometricPressure measurement `json:"barometricPressure"`
		Visibility         measurement `json:"visibility"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

type alertsResponse struct {
	Features []struct {
		Properties struct {
			Event       string `json:"event"`
			Severity    string `json:"severity"`
			Urgency     string `json:"urgency"`
			Description string `json:"description"`
			Instruction string `json:"instruction"`
			Onset       string `json:"onset"`
			Expires     string `json:"expires"`
			AreaDesc    string `json:"areaDesc"`
		} `json:"properties"`
	} `json:"features"`
}
