// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/errors"
)

var validate = validator.New()

// Service is the orchestrator surface the HTTP layer serves.
type Service interface {
	ProcessQuery(ctx context.Context, query string, rc core.RequestContext) core.Envelope
	HandleEmergencyQuery(ctx context.Context, query string, rc core.RequestContext) core.Envelope
	Status() core.StatusReport
	Capabilities() map[core.Role]core.CapabilityDescriptor
	HealthCheck(ctx context.Context) core.HealthReport
	History(ctx context.Context, limit int) ([]core.RequestSummary, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		caps := svc.Capabilities()
		agents := make([]string, 0, len(caps))
		for _, role := range core.ResponderRoles() {
			if d, ok := caps[role]; ok {
				agents = append(agents, d.Name)
			}
		}
		return c.JSON(fiber.Map{
			"name":        core.SystemLabel,
			"description": "Multi-agent system for weather disaster relief and preparedness",
			"version":     Version,
			"agents":      agents,
			"capabilities": []string{
				"Weather disaster relief intelligence",
				"Emergency preparedness analysis",
				"Historical weather data correlation",
				"Real-time forecast integration",
				"Risk assessment and insights",
			},
		})
	})

	api := app.Group("/api")

	api.Post("/query", func(c *fiber.Ctx) error {
		var req queryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if strings.TrimSpace(req.Query) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "query cannot be empty")
		}

		env := svc.ProcessQuery(c.UserContext(), req.Query, requestContextFrom(req.Context))
		return c.Status(envelopeStatus(env)).JSON(env)
	})

	api.Post("/emergency", func(c *fiber.Ctx) error {
		var req emergencyRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if strings.TrimSpace(req.Query) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "emergency query cannot be empty")
		}

		env := svc.HandleEmergencyQuery(c.UserContext(), req.Query, req.requestContext())
		return c.Status(envelopeStatus(env)).JSON(env)
	})

	api.Get("/status", func(c *fiber.Ctx) error {
		report := svc.Status()
		return c.JSON(fiber.Map{
			"status":       "operational",
			"orchestrator": report.Orchestrator,
			"agents":       report.Agents,
		})
	})

	api.Get("/capabilities", func(c *fiber.Ctx) error {
		if err := requireReady(svc); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"status":       "success",
			"capabilities": svc.Capabilities(),
		})
	})

	api.Get("/health", func(c *fiber.Ctx) error {
		report := svc.HealthCheck(c.UserContext())
		code := fiber.StatusOK
		if report.Status != core.HealthHealthy {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(report)
	})

	api.Get("/history", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil || limit < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
		}
		history, err := svc.History(c.UserContext(), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to retrieve history")
		}
		return c.JSON(fiber.Map{
			"status":  "success",
			"history": history,
		})
	})

	api.Get("/agents/:role/status", func(c *fiber.Ctx) error {
		if err := requireReady(svc); err != nil {
			return err
		}
		raw := c.Params("role")
		role, err := core.ParseRole(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("agent type %q not found", raw))
		}
		status, ok := svc.Status().Agents[role]
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("agent type %q not found", raw))
		}
		return c.JSON(fiber.Map{
			"agent_type":   role,
			"name":         status.Name,
			"initialized":  status.Initialized,
			"capabilities": status.Capabilities,
		})
	})
}

// queryRequest is the body of POST /api/query.
type queryRequest struct {
	Query   string         `json:"query" validate:"required"`
	Context map[string]any `json:"context"`
}

// emergencyRequest is the body of POST /api/emergency.
type emergencyRequest struct {
	Query    string             `json:"query" validate:"required"`
	Location map[string]float64 `json:"location"`
	Severity string             `json:"severity"`
}

func (r emergencyRequest) requestContext() core.RequestContext {
	severity := r.Severity
	if severity == "" {
		severity = "high"
	}
	rc := core.RequestContext{
		Priority: "emergency",
		Extra:    map[string]any{"severity": severity},
	}
	if lat, ok := r.Location["lat"]; ok {
		if lon, ok := r.Location["lon"]; ok {
			rc.Location = &core.Coordinates{Lat: lat, Lon: lon}
		}
	}
	return rc
}

// requestContextFrom lifts the well-known keys out of a caller-supplied
// context object; everything else rides along as opaque extras.
func requestContextFrom(extra map[string]any) core.RequestContext {
	rc := core.RequestContext{Extra: extra}
	if p, ok := extra["priority"].(string); ok {
		rc.Priority = p
	}
	if loc, ok := extra["location"].(map[string]any); ok {
		if lat, ok := floatField(loc, "lat"); ok {
			if lon, ok := floatField(loc, "lon"); ok {
				rc.Location = &core.Coordinates{Lat: lat, Lon: lon}
			}
		}
	}
	return rc
}

func floatField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

func requireReady(svc Service) error {
	if !svc.Status().Orchestrator.Initialized {
		return fiber.NewError(fiber.StatusServiceUnavailable, "agent system not available")
	}
	return nil
}

// envelopeStatus maps a pipeline envelope onto an HTTP status code.
func envelopeStatus(env core.Envelope) int {
	if env.Status == core.StatusSuccess {
		return fiber.StatusOK
	}
	if env.Error == nil {
		return fiber.StatusInternalServerError
	}
	switch env.Error.Type {
	case string(errors.CodeNotInitialized), string(errors.CodeUnavailable):
		return fiber.StatusServiceUnavailable
	case string(errors.CodeInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
