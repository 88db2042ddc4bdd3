package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/responder"
	"github.com/jllopis/anemos/pkg/telemetry"
)

// coordinator fans a query out to responders and gathers per-role results.
type coordinator struct {
	table   map[core.Role]responder.Responder
	timeout time.Duration
	logger  *slog.Logger
	metrics *telemetry.RequestMetrics
	tracer  trace.Tracer
}

// invokeAll runs the registered roles in parallel and returns one result per
// launched invocation, positioned by input order. Roles with no registered
// responder are logged and skipped, so the result count can be lower than
// the requested role count but positions among launched roles are preserved.
func (c *coordinator) invokeAll(ctx context.Context, roles []core.Role, query string, rc core.RequestContext) []core.Result {
	type slot struct {
		role core.Role
		resp responder.Responder
	}
	slots := make([]slot, 0, len(roles))
	for _, role := range roles {
		r, ok := c.table[role]
		if !ok {
			c.logger.Warn("orchestrator.responder.skip", "role", role, "reason", "not registered")
			continue
		}
		slots = append(slots, slot{role: role, resp: r})
	}

	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.role.String()
	}
	ctx, span := c.tracer.Start(ctx, "Orchestrator.Dispatch",
		trace.WithAttributes(telemetry.DispatchAttributes(len(slots), names)...))
	defer span.End()

	results := make([]core.Result, len(slots))
	var wg sync.WaitGroup
	for i, s := range slots {
		wg.Add(1)
		go func(i int, role core.Role, r responder.Responder) {
			defer wg.Done()
			results[i] = c.invoke(ctx, role, r, query, rc)
		}(i, s.role, s.resp)
	}
	wg.Wait()
	return results
}

// invoke runs one responder under the per-call timeout and converts every
// failure mode, panics included, into a failure result at the caller's
// position.
func (c *coordinator) invoke(ctx context.Context, role core.Role, r responder.Responder, query string, rc core.RequestContext) (res core.Result) {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	callCtx, span := c.tracer.Start(callCtx, "Responder.Handle")
	defer span.End()

	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("orchestrator.responder.panic", "role", role, "panic", p)
			res = core.FailureResult(role, core.FailureInternal, fmt.Sprintf("responder panic: %v", p))
		}
		ms := float64(time.Since(start)) / float64(time.Millisecond)
		if res.Succeeded() {
			span.SetAttributes(telemetry.ResponderAttributes(role.String(), ms, true)...)
		} else {
			kind := ""
			if res.Failure != nil {
				kind = string(res.Failure.Kind)
			}
			span.SetAttributes(telemetry.ResponderFailureAttributes(role.String(), kind)...)
			span.SetAttributes(attribute.Float64(telemetry.AttrResponderDurationMs, ms))
		}
		c.metrics.RecordResponderCall(ctx, role.String(), res.Succeeded(), ms)
	}()

	payload, err := r.Handle(callCtx, query, rc)
	if err != nil {
		return c.failure(ctx, callCtx, role, err)
	}
	return core.SuccessResult(role, payload)
}

// failure classifies an invocation error. Deadline expiry on the call
// context counts as a timeout, cancellation arriving through the parent as
// canceled; typed errors keep their own kind.
func (c *coordinator) failure(parent, call context.Context, role core.Role, err error) core.Result {
	var kind core.FailureKind
	switch {
	case call.Err() == context.DeadlineExceeded && parent.Err() == nil:
		kind = core.FailureTimeout
	case parent.Err() != nil:
		kind = core.FailureCanceled
	default:
		kind = failureKind(err)
	}
	c.logger.Error("orchestrator.responder.error", "role", role, "kind", kind, "error", err)
	return core.FailureResult(role, kind, err.Error())
}

func failureKind(err error) core.FailureKind {
	switch errors.CodeOf(err) {
	case errors.CodeTimeout:
		return core.FailureTimeout
	case errors.CodeCanceled:
		return core.FailureCanceled
	case errors.CodeUnavailable:
		return core.FailureUnavailable
	default:
		return core.FailureInternal
	}
}
