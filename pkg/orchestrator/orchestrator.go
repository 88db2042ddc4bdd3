// Package orchestrator coordinates the responder pipeline: query
// classification, parallel dispatch, result aggregation and request
// bookkeeping. The orchestrator owns the fixed responder table, tracks
// in-flight requests and records every outcome in a ledger.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/responder"
	"github.com/jllopis/anemos/pkg/telemetry"
)

// DefaultResponderTimeout bounds a single responder invocation when the
// config leaves it unset.
const DefaultResponderTimeout = 15 * time.Second

const logQueryLimit = 100

// Config carries the orchestrator's tunables.
type Config struct {
	// ResponderTimeout bounds each responder invocation.
	ResponderTimeout time.Duration
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics sets the request metrics sink.
func WithMetrics(m *telemetry.RequestMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator routes queries to specialist responders and merges their
// results. All exported methods are safe for concurrent use.
type Orchestrator struct {
	cfg     Config
	logger  *slog.Logger
	metrics *telemetry.RequestMetrics
	tracer  trace.Tracer

	router     Router
	aggregator Aggregator
	coord      *coordinator

	table  map[core.Role]responder.Responder
	ledger Ledger

	mu          sync.Mutex
	initialized bool
	active      map[string]*core.RequestRecord
	total       int
	checkers    map[string]core.HealthChecker
}

// New builds an orchestrator over a validated responder table. Every table
// entry must map a responder role to a non-nil responder reporting that
// same role. A nil ledger falls back to an in-memory ring with default
// retention.
func New(cfg Config, table map[core.Role]responder.Responder, ledger Ledger, opts ...Option) (*Orchestrator, error) {
	if len(table) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "responder table is empty", nil)
	}
	responders := make(map[core.Role]responder.Responder, len(table))
	for role, r := range table {
		if !role.IsResponder() {
			return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("role %q is not a responder role", role), nil)
		}
		if r == nil {
			return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("nil responder for role %q", role), nil)
		}
		if r.Role() != role {
			return nil, errors.New(errors.CodeInvalidInput, fmt.Sprintf("responder registered as %q reports role %q", role, r.Role()), nil)
		}
		responders[role] = r
	}
	if cfg.ResponderTimeout <= 0 {
		cfg.ResponderTimeout = DefaultResponderTimeout
	}
	if ledger == nil {
		ledger = NewMemoryLedger(RetentionPolicy{})
	}

	o := &Orchestrator{
		cfg:      cfg,
		table:    responders,
		ledger:   ledger,
		active:   make(map[string]*core.RequestRecord),
		checkers: make(map[string]core.HealthChecker),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "orchestrator")
	o.tracer = otel.Tracer("anemos/orchestrator")
	o.coord = &coordinator{
		table:   o.table,
		timeout: cfg.ResponderTimeout,
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  o.tracer,
	}
	return o, nil
}

// Initialize brings every registered responder up in the fixed role order,
// failing fast on the first error. It is idempotent once successful.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initialized {
		return nil
	}
	o.logger.Info("orchestrator.init.start", "system", core.SystemLabel)
	for _, role := range core.ResponderRoles() {
		r, ok := o.table[role]
		if !ok {
			continue
		}
		o.logger.Info("orchestrator.responder.init", "role", role)
		if err := r.Init(ctx); err != nil {
			return errors.New(errors.CodeNotInitialized, fmt.Sprintf("initialize %s responder", role), err)
		}
	}
	o.initialized = true
	o.logger.Info("orchestrator.init.complete", "responders", len(o.table))
	return nil
}

// Shutdown stops responders in the fixed role order, logging failures and
// continuing, then clears all serving state.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.initialized {
		return nil
	}
	o.logger.Info("orchestrator.shutdown.start")
	for _, role := range core.ResponderRoles() {
		r, ok := o.table[role]
		if !ok {
			continue
		}
		if err := r.Shutdown(ctx); err != nil {
			o.logger.Error("orchestrator.responder.shutdown.error", "role", role, "error", err)
		}
	}
	o.initialized = false
	o.active = make(map[string]*core.RequestRecord)
	o.logger.Info("orchestrator.shutdown.complete")
	return nil
}

// ProcessQuery runs one query through the full pipeline and always returns
// an envelope: classification, parallel dispatch, aggregation, ledger
// record. Responder failures surface inside the aggregated data; only
// pipeline faults produce an error envelope.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query string, rc core.RequestContext) core.Envelope {
	ctx, rec, err := o.begin(ctx, query, &rc)
	if err != nil {
		return core.ErrorEnvelope(rc.RequestID, messageOf(err), errors.TypeName(err))
	}
	o.logger.Info("orchestrator.query.start", "request_id", rec.ID, "query", snippet(query))

	ctx, span := o.tracer.Start(ctx, "Orchestrator.ProcessQuery")
	defer span.End()
	span.SetAttributes(telemetry.RequestAttributes(rec.ID, query, 0)...)

	start := time.Now()
	resp, analysis, perr := o.runPipeline(ctx, query, rc)
	duration := time.Since(start)

	if perr != nil {
		rec.Fail(messageOf(perr), duration)
	} else {
		rec.Complete(resp, duration)
		span.SetAttributes(telemetry.ClassificationAttributes(
			string(analysis.Type), string(analysis.Urgency),
			analysis.LocationBased, analysis.TimeSensitive,
		)...)
	}
	o.finish(ctx, rec)
	o.metrics.RecordRequest(ctx, string(analysis.Type), string(analysis.Urgency), string(rec.Status), float64(duration)/float64(time.Millisecond))

	if perr != nil {
		o.logger.Error("orchestrator.query.error", "request_id", rec.ID, "error", perr)
		return core.ErrorEnvelope(rec.ID, messageOf(perr), errors.TypeName(perr))
	}
	o.logger.Info("orchestrator.query.complete", "request_id", rec.ID, "duration_ms", duration.Milliseconds())
	return core.SuccessEnvelope(rec.ID, resp)
}

// HandleEmergencyQuery runs the priority path: every responder is invoked
// regardless of classification, then an extra insights pass correlates the
// gathered results. The outcome is recorded in the ledger like any other
// request.
func (o *Orchestrator) HandleEmergencyQuery(ctx context.Context, query string, rc core.RequestContext) core.Envelope {
	ctx, rec, err := o.begin(ctx, query, &rc)
	if err != nil {
		return core.ErrorEnvelope(rc.RequestID, messageOf(err), errors.TypeName(err))
	}
	o.logger.Warn("orchestrator.emergency.start", "request_id", rec.ID, "query", snippet(query))

	ctx, span := o.tracer.Start(ctx, "Orchestrator.EmergencyQuery")
	defer span.End()
	span.SetAttributes(telemetry.RequestAttributes(rec.ID, query, 0)...)

	start := time.Now()
	resp, perr := o.runEmergency(ctx, query, rc)
	duration := time.Since(start)

	if perr != nil {
		rec.Fail(messageOf(perr), duration)
	} else {
		rec.Complete(resp, duration)
	}
	o.finish(ctx, rec)
	o.metrics.RecordRequest(ctx, string(core.QueryEmergency), string(core.UrgencyHigh), string(rec.Status), float64(duration)/float64(time.Millisecond))

	if perr != nil {
		o.logger.Error("orchestrator.emergency.error", "request_id", rec.ID, "error", perr)
		return core.ErrorEnvelope(rec.ID, messageOf(perr), errors.TypeName(perr))
	}
	o.logger.Info("orchestrator.emergency.complete", "request_id", rec.ID, "duration_ms", duration.Milliseconds())
	return core.SuccessEnvelope(rec.ID, resp)
}

// Status reports a read-only snapshot of the orchestrator and every
// registered responder.
func (o *Orchestrator) Status() core.StatusReport {
	o.mu.Lock()
	initialized := o.initialized
	active := len(o.active)
	total := o.total
	o.mu.Unlock()

	agents := make(map[core.Role]core.RoleStatus, len(o.table))
	for role, r := range o.table {
		desc := r.Describe()
		agents[role] = core.RoleStatus{
			Name:         desc.Name,
			Capabilities: desc.Capabilities,
			Initialized:  r.Initialized(),
		}
	}
	return core.StatusReport{
		Orchestrator: core.OrchestratorStatus{
			Initialized:    initialized,
			ActiveRequests: active,
			TotalRequests:  total,
		},
		Agents: agents,
	}
}

// Capabilities returns every responder's capability descriptor.
func (o *Orchestrator) Capabilities() map[core.Role]core.CapabilityDescriptor {
	out := make(map[core.Role]core.CapabilityDescriptor, len(o.table))
	for role, r := range o.table {
		out[role] = r.Describe()
	}
	return out
}

// RegisterHealthCheck attaches a named external probe whose status is
// reported by HealthCheck.
func (o *Orchestrator) RegisterHealthCheck(name string, checker core.HealthChecker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkers[name] = checker
}

// HealthCheck reports overall and per-responder health. The report is
// healthy unless a responder or registered probe has a problem; an
// orchestrator that was never initialized reports unhealthy.
func (o *Orchestrator) HealthCheck(ctx context.Context) core.HealthReport {
	o.mu.Lock()
	initialized := o.initialized
	active := len(o.active)
	checkers := make(map[string]core.HealthChecker, len(o.checkers))
	for name, c := range o.checkers {
		checkers[name] = c
	}
	o.mu.Unlock()

	report := core.HealthReport{
		Status:    core.HealthHealthy,
		Timestamp: time.Now().UTC(),
		Agents:    make(map[core.Role]core.RoleHealth, len(o.table)),
		System:    core.SystemHealth{ActiveRequests: active, Initialized: initialized},
	}
	if !initialized {
		report.Status = core.HealthUnhealthy
	}
	for role, r := range o.table {
		rh := core.RoleHealth{
			Status:       core.HealthHealthy,
			Initialized:  r.Initialized(),
			Capabilities: len(r.Describe().Capabilities),
		}
		if !rh.Initialized {
			rh.Status = core.HealthDegraded
			if report.Status == core.HealthHealthy {
				report.Status = core.HealthDegraded
			}
		}
		report.Agents[role] = rh
	}
	if len(checkers) > 0 {
		report.Checks = make(map[string]core.HealthStatus, len(checkers))
		for name, c := range checkers {
			res := c.Check(ctx)
			report.Checks[name] = res.Status
			if res.Status != core.HealthHealthy && report.Status == core.HealthHealthy {
				report.Status = core.HealthDegraded
			}
		}
	}
	return report
}

// History returns summaries of the most recent requests, newest last.
func (o *Orchestrator) History(ctx context.Context, limit int) ([]core.RequestSummary, error) {
	recs, err := o.ledger.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]core.RequestSummary, 0, len(recs))
	for _, rec := range recs {
		summaries = append(summaries, rec.Summarize())
	}
	return summaries, nil
}

// begin admits one request: it resolves the request id, rejects queries
// while uninitialized and registers the in-flight record.
func (o *Orchestrator) begin(ctx context.Context, query string, rc *core.RequestContext) (context.Context, *core.RequestRecord, error) {
	if rc.RequestID == "" {
		if id, ok := core.RequestIDFrom(ctx); ok {
			rc.RequestID = id
		} else {
			rc.RequestID = core.NewRequestID()
		}
	}
	ctx = core.WithRequestID(ctx, rc.RequestID)

	o.mu.Lock()
	if !o.initialized {
		o.mu.Unlock()
		return ctx, nil, errors.New(errors.CodeNotInitialized, "agent system not initialized", nil)
	}
	rec := core.NewRequestRecord(rc.RequestID, query)
	o.active[rec.ID] = &rec
	o.total++
	o.mu.Unlock()
	o.metrics.AddActive(ctx, 1)
	return ctx, &rec, nil
}

// finish records the outcome and releases the in-flight slot.
func (o *Orchestrator) finish(ctx context.Context, rec *core.RequestRecord) {
	if err := o.ledger.Append(ctx, *rec); err != nil {
		o.logger.Error("orchestrator.ledger.append.error", "request_id", rec.ID, "error", err)
	}
	o.mu.Lock()
	delete(o.active, rec.ID)
	o.mu.Unlock()
	o.metrics.AddActive(ctx, -1)
}

// runPipeline executes classify, dispatch and merge, converting panics
// into errors so no fault escapes the orchestrator.
func (o *Orchestrator) runPipeline(ctx context.Context, query string, rc core.RequestContext) (resp core.AggregatedResponse, analysis core.Analysis, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.CodeInternal, fmt.Sprintf("pipeline panic: %v", p), nil)
		}
	}()
	analysis = o.router.Analyze(query)
	roles := o.router.RolesFor(analysis)
	results := o.coord.invokeAll(ctx, roles, query, rc)
	resp = o.aggregator.Merge(analysis, results)
	return resp, analysis, nil
}

// runEmergency dispatches to every responder in the emergency order, then
// runs one extra insights pass over the gathered results.
func (o *Orchestrator) runEmergency(ctx context.Context, query string, rc core.RequestContext) (resp core.EmergencyResponse, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.CodeInternal, fmt.Sprintf("pipeline panic: %v", p), nil)
		}
	}()
	erc := rc
	erc.Priority = "emergency"
	results := o.coord.invokeAll(ctx, core.EmergencyRoles(), query, erc)

	irc := erc.WithExtra("analysis_type", "emergency_correlation")
	irc = irc.WithExtra("agent_responses", results)
	correlated := o.coord.invokeAll(ctx, []core.Role{core.RoleInsights}, query, irc)

	analysis := core.FailureResult(core.RoleInsights, core.FailureUnavailable, "insights responder not registered")
	if len(correlated) > 0 {
		analysis = correlated[0]
	}

	resp = core.EmergencyResponse{
		Type:           "emergency_response",
		Analysis:       analysis,
		AgentResponses: results,
		Priority:       "critical",
		Timestamp:      time.Now().UTC(),
	}
	return resp, nil
}

// messageOf strips the code prefix typed errors render in Error().
func messageOf(err error) string {
	if ae, ok := err.(*errors.AnemosError); ok && ae.Err == nil {
		return ae.Message
	}
	return err.Error()
}

func snippet(q string) string {
	if len(q) <= logQueryLimit {
		return q
	}
	return q[:logQueryLimit] + "..."
}
