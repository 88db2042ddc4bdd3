// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

// Package nws is a typed client for the National Weather Service API.
// Every request runs through a shared circuit breaker and a retry loop
// with exponential backoff.
package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	aerrors "github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/resilience"
	"github.com/jllopis/anemos/pkg/telemetry"
)

const (
	defaultBaseURL   = "https://api.weather.gov"
	defaultUserAgent = "anemos/1.0 (weather advisor)"
)

// Config controls the HTTP client and its resilience envelope.
type Config struct {
	BaseURL   string
	UserAgent string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration

	// MaxRetries bounds the total number of attempts per request.
	MaxRetries int

	// BreakerMaxFailures is the consecutive failure count that opens the
	// circuit; BreakerReset is how long it stays open.
	BreakerMaxFailures uint32
	BreakerReset       time.Duration
}

// Client talks to the National Weather Service API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	retry     resilience.RetryConfig
	logger    *slog.Logger
	metrics   *telemetry.ErrorMetrics
	tracer    trace.Tracer
}

// New builds a Client. logger and metrics may be nil.
func New(cfg Config, logger *slog.Logger, metrics *telemetry.ErrorMetrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerReset <= 0 {
		cfg.BreakerReset = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("anemos/nws"),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nws",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerReset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("weather service circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			c.metrics.RecordCircuitBreakerState(context.Background(), name, breakerStateValue(to))
		},
	})

	c.retry = resilience.DefaultRetryConfig().
		WithMaxAttempts(cfg.MaxRetries).
		WithInitialDelay(500 * time.Millisecond).
		WithMaxDelay(5 * time.Second).
		WithIsRecoverable(retryable)

	return c
}

// Point resolves a coordinate to its gridpoint metadata.
func (c *Client) Point(ctx context.Context, lat, lon float64) (*Point, error) {
	var resp pointResponse
	if err := c.get(ctx, fmt.Sprintf("/points/%.4f,%.4f", lat, lon), &resp); err != nil {
		return nil, err
	}
	return &Point{
		ForecastURL:            resp.Properties.Forecast,
		ForecastZoneURL:        resp.Properties.ForecastZone,
		ObservationStationsURL: resp.Properties.ObservationStations,
	}, nil
}

// LatestObservation returns the newest report from the first station
// serving the point.
func (c *Client) LatestObservation(ctx context.Context, p *Point) (*Observation, error) {
	if p == nil || p.ObservationStationsURL == "" {
		return nil, aerrors.New(aerrors.CodeInvalidInput, "point has no observation stations link", nil)
	}

	var stations stationsResponse
	if err := c.get(ctx, p.ObservationStationsURL, &stations); err != nil {
		return nil, err
	}
	if len(stations.Features) == 0 {
		return nil, aerrors.New(aerrors.CodeNotFound, "no observation stations for point", nil)
	}
	station := stations.Features[0].Properties.StationIdentifier

	var obs observationResponse
	if err := c.get(ctx, fmt.Sprintf("/stations/%s/observations/latest", station), &obs); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339, obs.Properties.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	return &Observation{
		Station:          station,
		Timestamp:        ts,
		TextDescription:  obs.Properties.TextDescription,
		TemperatureC:     obs.Properties.Temperature.Value,
		RelativeHumidity: obs.Properties.RelativeHumidity.Value,
		WindSpeedMS:      obs.Properties.WindSpeed.Value,
		WindDirectionDeg: obs.Properties.WindDirection.Value,
		PressurePa:       obs.Properties.BarometricPressure.Value,
		VisibilityM:      obs.Properties.Visibility.Value,
	}, nil
}

// Forecast returns the narrative periods for the point's gridpoint.
func (c *Client) Forecast(ctx context.Context, p *Point) ([]ForecastPeriod, error) {
	if p == nil || p.ForecastURL == "" {
		return nil, aerrors.New(aerrors.CodeInvalidInput, "point has no forecast link", nil)
	}
	var resp forecastResponse
	if err := c.get(ctx, p.ForecastURL, &resp); err != nil {
		return nil, err
	}
	return resp.Properties.Periods, nil
}

// ActiveAlerts returns unexpired alerts for the point's forecast zone.
// Alerts without a parseable expiry stay included.
func (c *Client) ActiveAlerts(ctx context.Context, p *Point) ([]Alert, error) {
	zone := p.ZoneID()
	if zone == "" {
		return nil, aerrors.New(aerrors.CodeInvalidInput, "point has no forecast zone link", nil)
	}

	values := url.Values{}
	values.Set("zone", zone)
	values.Set("status", "actual")

	var resp alertsResponse
	if err := c.get(ctx, "/alerts?"+values.Encode(), &resp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	alerts := make([]Alert, 0, len(resp.Features))
	for _, f := range resp.Features {
		a := Alert{
			Event:       f.Properties.Event,
			Severity:    f.Properties.Severity,
			Urgency:     f.Properties.Urgency,
			Description: f.Properties.Description,
			Instruction: f.Properties.Instruction,
			Onset:       f.Properties.Onset,
			Expires:     f.Properties.Expires,
			AreaDesc:    f.Properties.AreaDesc,
		}
		if a.Expires != "" {
			if exp, perr := time.Parse(time.RFC3339, a.Expires); perr == nil {
				a.ExpiresAt = exp.UTC()
			}
		}
		if !a.ExpiresAt.IsZero() && !a.ExpiresAt.After(now) {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// Ping checks that the API root answers.
func (c *Client) Ping(ctx context.Context) error {
	var root struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/", &root)
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// get fetches rawURL (absolute links from the API pass through, paths are
// resolved against the base URL) and decodes the body into out.
func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	u := rawURL
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = c.baseURL + u
	}

	ctx, span := c.tracer.Start(ctx, "NWS.Get",
		trace.WithAttributes(telemetry.NWSAttributes(rawURL, "", "", false)...))
	defer span.End()

	result, err := c.retry.DoWithResult(ctx, func() (interface{}, error) {
		return c.breaker.Execute(func() (interface{}, error) {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if reqErr != nil {
				return nil, aerrors.New(aerrors.CodeInternal, "building weather service request", reqErr)
			}
			req.Header.Set("User-Agent", c.userAgent)
			req.Header.Set("Accept", "application/geo+json")

			resp, doErr := c.http.Do(req)
			if doErr != nil {
				return nil, aerrors.New(aerrors.CodeUnavailable, "weather service unreachable", doErr).
					WithRecoverable(true)
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return nil, statusError(resp.StatusCode)
			}

			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, aerrors.New(aerrors.CodeUnavailable, "reading weather service response", readErr).
					WithRecoverable(true)
			}
			return body, nil
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return aerrors.New(aerrors.CodeUnavailable, "weather service circuit open", err).
				WithAttribute("breaker", c.breaker.Name())
		}
		return err
	}

	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return aerrors.New(aerrors.CodeInternal, "decoding weather service response", err)
	}
	return nil
}

// statusError classifies a non-2xx response. Rate limits and server
// errors are recoverable; everything else fails fast.
func statusError(status int) *aerrors.AnemosError {
	switch {
	case status == http.StatusTooManyRequests:
		return aerrors.New(aerrors.CodeUnavailable, "weather service rate limited", nil).
			WithContext("status", status).
			WithRecoverable(true)
	case status >= 500:
		return aerrors.New(aerrors.CodeUnavailable, "weather service server error", nil).
			WithContext("status", status).
			WithRecoverable(true)
	case status == http.StatusNotFound:
		return aerrors.New(aerrors.CodeNotFound, "weather service resource not found", nil).
			WithContext("status", status)
	default:
		return aerrors.New(aerrors.CodeUnavailable, "unexpected weather service status", nil).
			WithContext("status", status)
	}
}

// retryable keeps the retry loop away from an open breaker; other errors
// follow their recoverable flag.
func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var ae *aerrors.AnemosError
	if errors.As(err, &ae) {
		return ae.Recoverable
	}
	return true
}

// breakerStateValue maps gobreaker states onto the telemetry gauge scale
// (0=open, 1=half-open, 2=closed).
func breakerStateValue(s gobreaker.State) int64 {
	switch s {
	case gobreaker.StateOpen:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
