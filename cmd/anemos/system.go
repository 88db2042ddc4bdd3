// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jllopis/anemos/pkg/config"
	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/nws"
	"github.com/jllopis/anemos/pkg/orchestrator"
	"github.com/jllopis/anemos/pkg/responder"
	"github.com/jllopis/anemos/pkg/telemetry"
	"github.com/jllopis/anemos/pkg/warehouse"
)

// system bundles everything serve and query wire up: the orchestrator,
// the weather client behind it, the request ledger and the resources
// that need closing on the way down.
type system struct {
	orch    *orchestrator.Orchestrator
	weather *nws.Client
	ledger  orchestrator.Ledger
	closers []func() error
}

// close releases resources in reverse acquisition order.
func (s *system) close(logger *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Error("close failed", "error", err)
		}
	}
}

// buildSystem wires the full agent system from configuration: warehouse
// (seeded on first run), weather client, the three responders, the
// request ledger and the orchestrator. Metrics may be nil.
func buildSystem(ctx context.Context, cfg *config.Config, logger *slog.Logger, requests *telemetry.RequestMetrics, errs *telemetry.ErrorMetrics) (*system, error) {
	sys := &system{}

	store, err := warehouse.Open(cfg.Warehouse.Path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	sys.closers = append(sys.closers, store.Close)

	dataset, err := warehouse.DefaultDataset()
	if err != nil {
		sys.close(logger)
		return nil, fmt.Errorf("load archive dataset: %w", err)
	}
	if err := store.SeedIfEmpty(ctx, dataset); err != nil {
		sys.close(logger)
		return nil, fmt.Errorf("seed warehouse: %w", err)
	}

	sys.weather = nws.New(nws.Config{
		BaseURL:            cfg.NWS.BaseURL,
		UserAgent:          cfg.NWS.UserAgent,
		Timeout:            time.Duration(cfg.NWS.TimeoutSeconds) * time.Second,
		MaxRetries:         cfg.NWS.MaxRetries,
		BreakerMaxFailures: uint32(cfg.NWS.BreakerMaxFailures),
		BreakerReset:       time.Duration(cfg.NWS.BreakerResetSeconds) * time.Second,
	}, logger, errs)

	table := map[core.Role]responder.Responder{
		core.RoleForecast: responder.NewForecast(sys.weather, responder.ForecastOptions{
			DefaultCity: cfg.NWS.DefaultCity,
			DefaultLat:  cfg.NWS.DefaultLat,
			DefaultLon:  cfg.NWS.DefaultLon,
		}, logger),
		core.RoleData:     responder.NewData(store, logger),
		core.RoleInsights: responder.NewInsights(logger),
	}

	policy := orchestrator.RetentionPolicy{
		Capacity: cfg.Ledger.Capacity,
		MaxAge:   time.Duration(cfg.Ledger.MaxAgeHours) * time.Hour,
	}
	switch cfg.Ledger.Backend {
	case "sqlite":
		ledger, err := orchestrator.OpenSQLiteLedger(cfg.Ledger.Path, policy)
		if err != nil {
			sys.close(logger)
			return nil, fmt.Errorf("open request ledger: %w", err)
		}
		sys.ledger = ledger
		sys.closers = append(sys.closers, ledger.Close)
	default:
		sys.ledger = orchestrator.NewMemoryLedger(policy)
	}

	orch, err := orchestrator.New(orchestrator.Config{
		ResponderTimeout: time.Duration(cfg.Orchestrator.ResponderTimeoutSeconds) * time.Second,
	}, table, sys.ledger,
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(requests),
	)
	if err != nil {
		sys.close(logger)
		return nil, err
	}
	sys.orch = orch
	return sys, nil
}
