package telemetry

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TestOTLPSmoke pushes one span and one counter increment at a live
// collector. Gated behind env vars so regular runs skip it.
func TestOTLPSmoke(t *testing.T) {
	if os.Getenv("ANEMOS_OTLP_SMOKE_TEST") != "1" {
		t.Skip("set ANEMOS_OTLP_SMOKE_TEST=1 to run")
	}

	cfg := Config{
		Exporter:     "otlp",
		OTLPEndpoint: os.Getenv("ANEMOS_TELEMETRY_OTLP_ENDPOINT"),
		OTLPInsecure: os.Getenv("ANEMOS_TELEMETRY_OTLP_INSECURE") == "true",
		OTLPUser:     os.Getenv("ANEMOS_TELEMETRY_OTLP_USER"),
		OTLPToken:    os.Getenv("ANEMOS_TELEMETRY_OTLP_TOKEN"),
	}
	if cfg.OTLPEndpoint == "" {
		t.Skip("set ANEMOS_TELEMETRY_OTLP_ENDPOINT for OTLP smoke test")
	}
	if raw := os.Getenv("ANEMOS_TELEMETRY_OTLP_TIMEOUT_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.OTLPTimeoutSeconds = parsed
		}
	}

	shutdown, err := InitWithConfig("anemos-smoke", "v0.0.0", cfg)
	if err != nil {
		t.Fatalf("failed to init telemetry: %v", err)
	}

	ctx, span := otel.Tracer("anemos/smoke").Start(context.Background(), "Smoke.Ping")
	span.SetAttributes(attribute.String("smoke.target", cfg.OTLPEndpoint))
	span.End()

	if counter, err := otel.Meter("anemos/smoke").Int64Counter("anemos.smoke.pings"); err == nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("smoke.target", cfg.OTLPEndpoint)))
	}

	// Give the batcher a moment before forcing the flush.
	time.Sleep(2 * time.Second)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		t.Fatalf("telemetry shutdown failed: %v", err)
	}
}
