// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jllopis/anemos/pkg/config"
	"github.com/jllopis/anemos/pkg/core"
	"github.com/jllopis/anemos/pkg/telemetry"
)

// runQuery runs a single query through an in-process agent system and
// prints the result. Logs go to stderr so stdout stays machine-readable.
func runQuery(ctx context.Context, cfg *config.Config, global globalFlags, args []string) {
	emergency := false
	words := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case arg == "--emergency":
			emergency = true
		case strings.HasPrefix(arg, "-"):
			fatal(fmt.Errorf("unknown query flag %q", arg))
		default:
			words = append(words, arg)
		}
	}
	query := strings.TrimSpace(strings.Join(words, " "))
	if query == "" {
		fatal(fmt.Errorf("usage: anemos query [--emergency] <text>"))
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	sys, err := buildSystem(ctx, cfg, logger, nil, nil)
	if err != nil {
		fatal(err)
	}

	if err := sys.orch.Initialize(ctx); err != nil {
		fatal(err)
	}

	var env core.Envelope
	if emergency {
		env = sys.orch.HandleEmergencyQuery(ctx, query, core.RequestContext{})
	} else {
		env = sys.orch.ProcessQuery(ctx, query, core.RequestContext{})
	}

	if global.JSON {
		printJSON(env)
	} else {
		renderEnvelope(env)
	}

	if err := sys.orch.Shutdown(context.Background()); err != nil {
		logger.Error("agent system shutdown failed", "error", err)
	}
	sys.close(logger)

	if env.Status != core.StatusSuccess {
		os.Exit(1)
	}
}

func renderEnvelope(env core.Envelope) {
	if env.Status != core.StatusSuccess {
		if env.Error != nil {
			fmt.Fprintf(os.Stderr, "error: %s (%s)\n", env.Error.Message, env.Error.Type)
		} else {
			fmt.Fprintln(os.Stderr, "error: query failed")
		}
		return
	}
	switch data := env.Data.(type) {
	case core.AggregatedResponse:
		renderAggregated(env.RequestID, data)
	case core.EmergencyResponse:
		renderEmergency(env.RequestID, data)
	default:
		printJSON(env)
	}
}

func renderAggregated(requestID string, resp core.AggregatedResponse) {
	fmt.Printf("Request: %s\n", requestID)
	fmt.Printf("Urgency: %s", resp.Urgency)
	if resp.Alert {
		fmt.Print("  [ALERT]")
	}
	fmt.Println()
	if resp.Summary != "" {
		fmt.Printf("\n%s\n", resp.Summary)
	}
	printList("Immediate actions", resp.ImmediateActions)
	printList("Recommendations", resp.Recommendations)
	if len(resp.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(resp.Sources, ", "))
	}
}

func renderEmergency(requestID string, resp core.EmergencyResponse) {
	fmt.Printf("Request: %s\n", requestID)
	fmt.Printf("Type: %s  Priority: %s\n", resp.Type, resp.Priority)
	if resp.Analysis.Succeeded() {
		fmt.Printf("\n%s\n", resp.Analysis.Payload.Summary)
		printList("Priority actions", resp.Analysis.Payload.PriorityActions)
	}
	fmt.Println("\nAgent responses:")
	for _, res := range resp.AgentResponses {
		label := string(res.Role) + ":"
		if res.Succeeded() {
			fmt.Printf("  %-10s %s\n", label, res.Payload.Summary)
		} else {
			fmt.Printf("  %-10s failed: %s\n", label, res.Failure.Message)
		}
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
