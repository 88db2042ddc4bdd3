// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpapi exposes the agent system over HTTP. It registers the
// query, emergency, status and health endpoints on a Fiber app and maps
// pipeline envelopes onto HTTP status codes.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jllopis/anemos/pkg/core"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Config carries the HTTP server tunables.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the Fiber app with middleware, the JSON error handler and
// all routes registered. The caller owns Listen and Shutdown.
func New(cfg Config, svc Service, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "httpapi")

	app := fiber.New(fiber.Config{
		AppName:               core.SystemLabel,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))

	RegisterRoutes(app, svc)
	return app
}

// requestLogger emits one structured line per request. When a handler
// returns an error the status code is not final yet, so the error is
// logged in its place.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			logger.Info("request", append(attrs, "error", err)...)
		} else {
			logger.Info("request", append(attrs, "status", c.Response().StatusCode())...)
		}
		return err
	}
}
