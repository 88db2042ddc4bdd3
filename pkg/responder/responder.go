// Package responder implements the specialist responders behind the
// orchestrator: forecast, data and insights. Responders are stateless per
// call; everything a call needs travels in the query string and the
// request context.
package responder

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/resilience"
)

// Responder is one specialist in the advisory pipeline. Implementations
// must be safe for concurrent Handle calls.
type Responder interface {
	// Role identifies the responder within the pipeline.
	Role() core.Role
	// Init prepares the responder. Handle rejects calls until Init succeeds.
	Init(ctx context.Context) error
	// Handle answers one query. The returned payload is owned by the caller.
	Handle(ctx context.Context, query string, rc core.RequestContext) (*core.Payload, error)
	// Shutdown marks the responder stopped.
	Shutdown(ctx context.Context) error
	// Describe reports the responder's capabilities and tools.
	Describe() core.CapabilityDescriptor
	// Initialized reports whether Init completed successfully.
	Initialized() bool
}

// base carries the identity and lifecycle state shared by all responders.
type base struct {
	role        core.Role
	name        string
	description string
	caps        []string
	tools       []core.ToolDescriptor
	logger      *slog.Logger
	tracer      trace.Tracer
	initialized atomic.Bool
}

// identify fills in the responder identity. Constructors call it once.
func (b *base) identify(role core.Role, name, description string, caps []string, tools []core.ToolDescriptor, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	b.role = role
	b.name = name
	b.description = description
	b.caps = caps
	b.tools = tools
	b.logger = logger.With("responder", name)
	b.tracer = otel.Tracer("anemos/responder")
}

// Role returns the responder role.
func (b *base) Role() core.Role { return b.role }

// Initialized reports whether Init completed successfully.
func (b *base) Initialized() bool { return b.initialized.Load() }

// Describe reports the responder's capability descriptor.
func (b *base) Describe() core.CapabilityDescriptor {
	return core.CapabilityDescriptor{
		Name:         b.name,
		Description:  b.description,
		Capabilities: append([]string(nil), b.caps...),
		Tools:        append([]core.ToolDescriptor(nil), b.tools...),
	}
}

// Shutdown marks the responder stopped. Shared clients and stores are owned
// by the caller and stay open.
func (b *base) Shutdown(ctx context.Context) error {
	b.initialized.Store(false)
	b.logger.Info("responder.shutdown.complete")
	return nil
}

// markReady flips the responder into the initialized state.
func (b *base) markReady() {
	b.initialized.Store(true)
	b.logger.Info("responder.init.complete")
}

// guard rejects Handle calls before Init.
func (b *base) guard() error {
	if !b.initialized.Load() {
		return errors.New(errors.CodeNotInitialized, b.name+" not initialized", nil)
	}
	return nil
}

// withFallback runs the live retrieval and degrades to a simulated payload
// when it fails. Degradations are logged, never surfaced as errors.
func withFallback(ctx context.Context, logger *slog.Logger, op string, primary func() (*core.Payload, error), degraded func() *core.Payload) (*core.Payload, error) {
	v, err := resilience.WithFallback(ctx, func() (interface{}, error) {
		p, err := primary()
		if err != nil {
			return nil, err
		}
		return p, nil
	}, resilience.FallbackFunc(func(ctx context.Context, primaryErr error) (interface{}, error) {
		logger.Warn("responder.fallback.simulated", "op", op, "error", primaryErr)
		return degraded(), nil
	}))
	if err != nil {
		return nil, err
	}
	return v.(*core.Payload), nil
}

// containsAny reports whether any of the words occur in haystack.
func containsAny(haystack string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}

// dedup removes repeated entries, keeping first-occurrence order.
func dedup(items []string) []string {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// celsiusToFahrenheit converts an observation temperature for display.
func celsiusToFahrenheit(c *float64) any {
	if c == nil {
		return nil
	}
	return int(math.Round(*c*9/5 + 32))
}

// mpsToMPH converts wind speed from meters per second.
func mpsToMPH(ms *float64) any {
	if ms == nil {
		return nil
	}
	return int(math.Round(*ms * 2.237))
}

// metersToMiles converts visibility distance.
func metersToMiles(m *float64) any {
	if m == nil {
		return nil
	}
	return int(math.Round(*m * 0.000621371))
}

// floatValue unwraps an optional measurement for display.
func floatValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
