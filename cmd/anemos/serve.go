// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"time"

	"github.com/jllopis/anemos/pkg/config"
	"github.com/jllopis/anemos/pkg/httpapi"
	"github.com/jllopis/anemos/pkg/scheduler"
	"github.com/jllopis/anemos/pkg/telemetry"
)

func runServe(ctx context.Context, cfg *config.Config, cfgPath string) {
	logger := telemetry.ConfigureSlog(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	live := config.NewReloadableConfig(cfg)
	if cfgPath != "" {
		watcher, _, err := config.WatchConfig(ctx, cfgPath, config.WithWatchLogger(logger))
		if err != nil {
			logger.Warn("config watch unavailable", "error", err)
		} else {
			watcher.OnChange(func(updated *config.Config) {
				live.Update(updated)
				telemetry.SetLogLevel(updated.Log.Level)
				logger.Info("log level applied", "level", updated.Log.Level)
			})
			defer watcher.Stop()
		}
	}

	shutdownTelemetry, err := telemetry.InitWithConfig(cfg.Telemetry.ServiceName, httpapi.Version, telemetry.Config{
		Exporter:           cfg.Telemetry.Exporter,
		OTLPEndpoint:       cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:       cfg.Telemetry.OTLPInsecure,
		OTLPHeaders:        cfg.Telemetry.OTLPHeaders,
		OTLPUser:           cfg.Telemetry.OTLPUser,
		OTLPToken:          cfg.Telemetry.OTLPToken,
		OTLPTimeoutSeconds: cfg.Telemetry.OTLPTimeoutSeconds,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	requests, err := telemetry.NewRequestMetrics(ctx)
	if err != nil {
		logger.Warn("request metrics unavailable", "error", err)
	}
	errMetrics, err := telemetry.NewErrorMetrics(ctx)
	if err != nil {
		logger.Warn("error metrics unavailable", "error", err)
	}

	sys, err := buildSystem(ctx, cfg, logger, requests, errMetrics)
	if err != nil {
		fatal(err)
	}
	defer sys.close(logger)

	if err := sys.orch.Initialize(ctx); err != nil {
		fatal(err)
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Config{
			PruneIntervalMinutes: cfg.Scheduler.PruneIntervalMinutes,
			ProbeIntervalMinutes: cfg.Scheduler.ProbeIntervalMinutes,
		}, sys.ledger, sys.weather, logger)
		sys.orch.RegisterHealthCheck("weather_service", sched.Checker())
		if err := sched.Start(); err != nil {
			fatal(err)
		}
	}

	app := httpapi.New(httpapi.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}, sys.orch, logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Listen(cfg.Server.Addr)
	}()
	logger.Info("server listening", "addr", cfg.Server.Addr)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if sched != nil {
		sched.Stop()
	}
	if err := sys.orch.Shutdown(shutdownCtx); err != nil {
		logger.Error("agent system shutdown failed", "error", err)
	}
}
