// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
)

func TestParseGlobalFlagsCollectsConfigArgs(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{
		"--config", "config.yaml",
		"--profile", "dev",
		"--set", "log.level=debug",
		"--set=server.addr=:9090",
		"serve",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 1 || rest[0] != "serve" {
		t.Fatalf("expected [serve] remaining, got %v", rest)
	}
	want := []string{
		"--config", "config.yaml",
		"--profile", "dev",
		"--set", "log.level=debug",
		"--set=server.addr=:9090",
	}
	if len(flags.ConfigArgs) != len(want) {
		t.Fatalf("expected %d config args, got %v", len(want), flags.ConfigArgs)
	}
	for i, arg := range want {
		if flags.ConfigArgs[i] != arg {
			t.Errorf("config arg %d: expected %q, got %q", i, arg, flags.ConfigArgs[i])
		}
	}
}

func TestParseGlobalFlagsStopsAtCommand(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"--json", "query", "--emergency", "flood", "warning"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flags.JSON {
		t.Error("expected JSON flag set")
	}
	if len(rest) != 4 || rest[0] != "query" {
		t.Fatalf("expected command args preserved, got %v", rest)
	}
}

func TestParseGlobalFlagsErrors(t *testing.T) {
	if _, _, err := parseGlobalFlags([]string{"--config"}); err == nil {
		t.Error("expected error for missing --config value")
	}
	if _, _, err := parseGlobalFlags([]string{"--verbose"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestParseGlobalFlagsHelp(t *testing.T) {
	flags, rest, err := parseGlobalFlags([]string{"-h", "serve"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !flags.Help {
		t.Error("expected help flag set")
	}
	if rest != nil {
		t.Errorf("expected no remaining args, got %v", rest)
	}
}

func TestParseGlobalFlagsDoubleDash(t *testing.T) {
	_, rest, err := parseGlobalFlags([]string{"--json", "--", "--not-a-flag"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 1 || rest[0] != "--not-a-flag" {
		t.Errorf("expected args after -- passed through, got %v", rest)
	}
}

func TestConfigPath(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"none", []string{"--profile", "dev"}, ""},
		{"separate", []string{"--config", "a.yaml"}, "a.yaml"},
		{"equals", []string{"--config=b.yaml"}, "b.yaml"},
		{"last wins", []string{"--config", "a.yaml", "--config=b.yaml"}, "b.yaml"},
	}
	for _, tc := range cases {
		if got := configPath(tc.args); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
