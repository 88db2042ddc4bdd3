// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package nws

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	aerrors "github.com/jllopis/anemos/pkg/errors"
)

// weatherTestServer serves the minimal api.weather.gov surface the client
// walks: points, stations, observations, forecast, and alerts.
func weatherTestServer() *httptest.Server {
	var srv *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status": "OK"}`))
	})

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"properties": {"forecast": %q, "forecastZone": %q, "observationStations": %q}}`,
			srv.URL+"/gridpoints/FWD/89,105/forecast",
			srv.URL+"/zones/forecast/TXZ119",
			srv.URL+"/gridpoints/FWD/89,105/stations",
		)
	})

	mux.HandleFunc("/gridpoints/FWD/89,105/stations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"features": [
			{"properties": {"stationIdentifier": "KDAL"}},
			{"properties": {"stationIdentifier": "KDFW"}}
		]}`))
	})

	mux.HandleFunc("/stations/KDAL/observations/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties": {
			"timestamp": "2026-08-25T12:00:00+00:00",
			"textDescription": "Partly Cloudy",
			"temperature": {"value": 25.6},
			"relativeHumidity": {"value": 65},
			"windSpeed": {"value": 5.4},
			"windDirection": {"value": 225},
			"barometricPressure": {"value": 101590},
			"visibility": {"value": 16093}
		}}`))
	})

	mux.HandleFunc("/gridpoints/FWD/89,105/forecast", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties": {"periods": [
			{"name": "Today", "temperature": 85, "temperatureUnit": "F", "windSpeed": "10 mph", "windDirection": "SW", "shortForecast": "Sunny", "detailedForecast": "Sunny with occasional clouds.", "isDaytime": true},
			{"name": "Tonight", "temperature": 68, "temperatureUnit": "F", "windSpeed": "5 mph", "windDirection": "S", "shortForecast": "Clear", "detailedForecast": "Clear skies.", "isDaytime": false}
		]}}`))
	})

	mux.HandleFunc("/alerts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("zone") != "TXZ119" || r.URL.Query().Get("status") != "actual" {
			http.Error(w, "bad alert query", http.StatusBadRequest)
			return
		}
		active := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
		expired := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
		fmt.Fprintf(w, `{"features": [
			{"properties": {"event": "Heat Advisory", "severity": "Minor", "urgency": "Expected", "description": "Hot.", "instruction": "Stay hydrated.", "onset": %[1]q, "expires": %[1]q, "areaDesc": "Dallas County"}},
			{"properties": {"event": "Old Alert", "severity": "Minor", "urgency": "Past", "description": "Gone.", "instruction": "", "onset": %[2]q, "expires": %[2]q, "areaDesc": "Dallas County"}},
			{"properties": {"event": "Flood Watch", "severity": "Moderate", "urgency": "Expected", "description": "Rain.", "instruction": "Avoid low areas.", "onset": %[1]q, "expires": "", "areaDesc": "Dallas County"}}
		]}`, active, expired)
	})

	srv = httptest.NewServer(mux)
	return srv
}

func newTestClient(srvURL string) *Client {
	c := New(Config{BaseURL: srvURL, MaxRetries: 3}, nil, nil)
	c.retry = c.retry.WithInitialDelay(time.Millisecond).WithMaxDelay(5 * time.Millisecond)
	return c
}

func TestPoint(t *testing.T) {
	srv := weatherTestServer()
	defer srv.Close()
	c := newTestClient(srv.URL)

	p, err := c.Point(context.Background(), 32.7767, -96.7970)
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}
	if p.ForecastURL == "" || p.ObservationStationsURL == "" {
		t.Errorf("expected gridpoint links, got %+v", p)
	}
	if got := p.ZoneID(); got != "TXZ119" {
		t.Errorf("expected zone TXZ119, got %s", got)
	}
}

func TestLatestObservation(t *testing.T) {
	srv := weatherTestServer()
	defer srv.Close()
	c := newTestClient(srv.URL)

	ctx := context.Background()
	p, err := c.Point(ctx, 32.7767, -96.7970)
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}

	obs, err := c.LatestObservation(ctx, p)
	if err != nil {
		t.Fatalf("LatestObservation failed: %v", err)
	}
	if obs.Station != "KDAL" {
		t.Errorf("expected station KDAL, got %s", obs.Station)
	}
	if obs.TextDescription != "Partly Cloudy" {
		t.Errorf("expected Partly Cloudy, got %s", obs.TextDescription)
	}
	if obs.TemperatureC == nil || *obs.TemperatureC != 25.6 {
		t.Errorf("expected temperature 25.6, got %v", obs.TemperatureC)
	}
	if obs.Timestamp.Year() != 2026 {
		t.Errorf("expected parsed timestamp, got %v", obs.Timestamp)
	}
}

func TestForecast(t *testing.T) {
	srv := weatherTestServer()
	defer srv.Close()
	c := newTestClient(srv.URL)

	ctx := context.Background()
	p, err := c.Point(ctx, 32.7767, -96.7970)
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}

	periods, err := c.Forecast(ctx, p)
	if err != nil {
		t.Fatalf("Forecast failed: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(periods))
	}
	if periods[0].Name != "Today" || !periods[0].IsDaytime {
		t.Errorf("unexpected first period: %+v", periods[0])
	}
	if periods[1].Temperature != 68 {
		t.Errorf("expected night temperature 68, got %d", periods[1].Temperature)
	}
}

func TestActiveAlerts(t *testing.T) {
	srv := weatherTestServer()
	defer srv.Close()
	c := newTestClient(srv.URL)

	ctx := context.Background()
	p, err := c.Point(ctx, 32.7767, -96.7970)
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}

	alerts, err := c.ActiveAlerts(ctx, p)
	if err != nil {
		t.Fatalf("ActiveAlerts failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected expired alert filtered out, got %d alerts", len(alerts))
	}
	if alerts[0].Event != "Heat Advisory" {
		t.Errorf("expected Heat Advisory, got %s", alerts[0].Event)
	}
	// The alert without an expiry stays active.
	if alerts[1].Event != "Flood Watch" {
		t.Errorf("expected Flood Watch, got %s", alerts[1].Event)
	}
}

func TestForecastRequiresPoint(t *testing.T) {
	c := newTestClient("http://unused.invalid")

	if _, err := c.Forecast(context.Background(), nil); aerrors.CodeOf(err) != aerrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if _, err := c.ActiveAlerts(context.Background(), &Point{}); aerrors.CodeOf(err) != aerrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status": "OK"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestNoRetryOnNotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.Ping(context.Background())
	if aerrors.CodeOf(err) != aerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected single attempt, got %d", got)
	}
}

func TestBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MaxRetries: 1, BreakerMaxFailures: 2}, nil, nil)

	for i := 0; i < 2; i++ {
		if err := c.Ping(context.Background()); err == nil {
			t.Fatal("expected server error")
		}
	}

	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("expected circuit open error")
	}
	if !strings.Contains(err.Error(), "circuit open") {
		t.Errorf("expected circuit open error, got %v", err)
	}
	if got := c.BreakerState(); got != gobreaker.StateOpen {
		t.Errorf("expected open breaker, got %v", got)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected 2 upstream hits, got %d", got)
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status      int
		code        aerrors.ErrorCode
		recoverable bool
	}{
		{http.StatusTooManyRequests, aerrors.CodeUnavailable, true},
		{http.StatusBadGateway, aerrors.CodeUnavailable, true},
		{http.StatusNotFound, aerrors.CodeNotFound, false},
		{http.StatusTeapot, aerrors.CodeUnavailable, false},
	}

	for _, tt := range tests {
		err := statusError(tt.status)
		if err.Code != tt.code {
			t.Errorf("status %d: expected code %s, got %s", tt.status, tt.code, err.Code)
		}
		if err.Recoverable != tt.recoverable {
			t.Errorf("status %d: expected recoverable=%v, got %v", tt.status, tt.recoverable, err.Recoverable)
		}
	}
}

func TestZoneID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://api.weather.gov/zones/forecast/TXZ119", "TXZ119"},
		{"https://api.weather.gov/zones/forecast/TXZ119/", "TXZ119"},
		{"", ""},
	}

	for _, tt := range tests {
		p := &Point{ForecastZoneURL: tt.url}
		if got := p.ZoneID(); got != tt.want {
			t.Errorf("ZoneID(%q): expected %q, got %q", tt.url, tt.want, got)
		}
	}
}
