// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduler runs the background maintenance jobs of the agent
// system: pruning aged ledger records and probing the upstream weather
// service so health reports do not block on live calls.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
	"github.com/jllopis/anemos/pkg/resilience"
)

const (
	// DefaultPruneIntervalMinutes is how often the ledger is pruned.
	DefaultPruneIntervalMinutes = 60

	// DefaultProbeIntervalMinutes is how often the upstream weather
	// service is probed.
	DefaultProbeIntervalMinutes = 15

	jobTimeout = 30 * time.Second
)

// Config carries the job intervals. Non-positive values fall back to
// the defaults.
type Config struct {
	PruneIntervalMinutes int
	ProbeIntervalMinutes int
}

// Pruner expires aged records. The orchestrator ledger satisfies it.
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Prober checks that the upstream weather service is reachable.
type Prober interface {
	Ping(ctx context.Context) error
}

// Scheduler owns the gocron instance and the cached probe result.
type Scheduler struct {
	cfg       cfgNormalized
	scheduler *gocron.Scheduler
	pruner    Pruner
	prober    Prober
	logger    *slog.Logger

	mu        sync.Mutex
	lastProbe core.HealthResult
}

type cfgNormalized struct {
	pruneMinutes int
	probeMinutes int
}

// New builds a scheduler. A nil pruner or prober skips that job.
func New(cfg Config, pruner Pruner, prober Prober, logger *slog.Logger) *Scheduler {
	if cfg.PruneIntervalMinutes <= 0 {
		cfg.PruneIntervalMinutes = DefaultPruneIntervalMinutes
	}
	if cfg.ProbeIntervalMinutes <= 0 {
		cfg.ProbeIntervalMinutes = DefaultProbeIntervalMinutes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg: cfgNormalized{
			pruneMinutes: cfg.PruneIntervalMinutes,
			probeMinutes: cfg.ProbeIntervalMinutes,
		},
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		prober:    prober,
		logger:    logger.With("component", "scheduler"),
		lastProbe: core.HealthResult{
			Status:    core.HealthHealthy,
			Component: "weather_service",
			Message:   "probe pending",
			LastCheck: time.Now().UTC(),
		},
	}
}

// Start registers the jobs and launches the scheduler in the background.
func (s *Scheduler) Start() error {
	if s.pruner != nil {
		if _, err := s.scheduler.Every(s.cfg.pruneMinutes).Minutes().Do(s.pruneJob); err != nil {
			return errors.New(errors.CodeInternal, "schedule ledger prune", err)
		}
	}
	if s.prober != nil {
		if _, err := s.scheduler.Every(s.cfg.probeMinutes).Minutes().Do(s.probeJob); err != nil {
			return errors.New(errors.CodeInternal, "schedule weather service probe", err)
		}
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		"prune_interval_minutes", s.cfg.pruneMinutes,
		"probe_interval_minutes", s.cfg.probeMinutes,
	)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.logger.Info("scheduler stopped")
}

// Checker reports the most recent probe result without touching the
// upstream service. It is meant to be registered as an external health
// check on the orchestrator.
func (s *Scheduler) Checker() core.HealthChecker {
	return core.NewFunctionHealthChecker(func(_ context.Context) core.HealthResult {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.lastProbe
	})
}

func (s *Scheduler) pruneJob() {
	var dropped int
	err := resilience.WithTimeout(context.Background(), resilience.TimeoutConfig{Duration: jobTimeout}, func(ctx context.Context) error {
		var pruneErr error
		dropped, pruneErr = s.pruner.Prune(ctx)
		return pruneErr
	})
	if err != nil {
		s.logger.Error("ledger prune failed", "error", err)
		return
	}
	if dropped > 0 {
		s.logger.Info("ledger pruned", "dropped", dropped)
	}
}

func (s *Scheduler) probeJob() {
	res := core.HealthResult{
		Status:    core.HealthHealthy,
		Component: "weather_service",
		Message:   "upstream reachable",
		LastCheck: time.Now().UTC(),
	}
	err := resilience.WithTimeout(context.Background(), resilience.TimeoutConfig{Duration: jobTimeout}, func(ctx context.Context) error {
		return s.prober.Ping(ctx)
	})
	if err != nil {
		res.Status = core.HealthUnhealthy
		res.Message = "upstream unreachable"
		res.Error = err
		s.logger.Warn("weather service probe failed", "error", err)
	}

	s.mu.Lock()
	s.lastProbe = res
	s.mu.Unlock()
}
