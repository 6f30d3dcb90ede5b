// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("tier", "critical").Msg("layer updated")

	out := buf.String()
	if !strings.Contains(out, "layer updated") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, `"tier":"critical"`) {
		t.Errorf("expected tier field in output, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.expected {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestCtxAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithPassID(ctx, "pass-1")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("missing request_id: %s", out)
	}
	if !strings.Contains(out, `"pass_id":"pass-1"`) {
		t.Errorf("missing pass_id: %s", out)
	}
}

func TestGeneratePassID(t *testing.T) {
	t.Parallel()

	a, b := GeneratePassID(), GeneratePassID()
	if len(a) != 8 {
		t.Errorf("expected 8 chars, got %d", len(a))
	}
	if a == b {
		t.Error("expected distinct pass ids")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	logger := slog.New(NewSlogHandler()).WithGroup("svc").With("name", "scheduler")
	logger.Warn("service restarted", "attempt", 2)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"svc.name":"scheduler"`, `"svc.attempt":2`, "service restarted"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestInitAddsServiceField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Service: "healthmap", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("started")
	if !strings.Contains(buf.String(), `"service":"healthmap"`) {
		t.Errorf("missing service field: %s", buf.String())
	}
}
