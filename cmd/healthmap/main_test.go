// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/healthmap/internal/audit"
	"github.com/tomtom215/healthmap/internal/auth"
	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/models"
)

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		Alerts: []models.Record{
			{"alertId": "1", "severityLevel": "critical", "status": "pending", "deptId": 7, "lng": 116.1, "lat": 39.1},
			{"alertId": "2", "severityLevel": "high", "status": "pending", "dept_id": "8", "lng": 116.2, "lat": 39.2},
			{"alertId": "3", "severityLevel": "low", "status": "resolved", "deptId": "7", "lng": 116.3, "lat": 39.3},
		},
		Telemetry: []models.Record{
			{"deviceSn": "d1", "deptId": "7", "longitude": 116.4, "latitude": 39.4},
		},
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		sel       models.Selection
		wantTotal int
		want      map[models.Tier]int
	}{
		{
			name:      "no selection",
			wantTotal: 3,
			want:      map[models.Tier]int{models.TierCritical: 1, models.TierHighOrMedium: 1, models.TierHealth: 1},
		},
		{
			name:      "dept filter coerces ids",
			sel:       models.Selection{DeptID: "7"},
			wantTotal: 2,
			want:      map[models.Tier]int{models.TierCritical: 1, models.TierHealth: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := summarize(testSnapshot(), tt.sel)
			if s.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", s.Total, tt.wantTotal)
			}
			if s.Alerts != 3 || s.Telemetry != 1 {
				t.Errorf("record counts = %d/%d", s.Alerts, s.Telemetry)
			}
			for _, tier := range models.TierOrder {
				if s.Counts[tier] != tt.want[tier] {
					t.Errorf("%s = %d, want %d", tier, s.Counts[tier], tt.want[tier])
				}
			}
		})
	}
}

func TestPrintSummary(t *testing.T) {
	s := summarize(testSnapshot(), models.Selection{})

	var table bytes.Buffer
	if err := printSummary(&table, s, false); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"critical", "high_or_medium", "other_alert", "health", "total"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("table missing %q:\n%s", want, table.String())
		}
	}

	var out bytes.Buffer
	if err := printSummary(&out, s, true); err != nil {
		t.Fatal(err)
	}
	var decoded snapshotSummary
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Total != s.Total {
		t.Errorf("json total = %d, want %d", decoded.Total, s.Total)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "healthmap dev") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestTokenCommand(t *testing.T) {
	secret := strings.Repeat("k", auth.MinSecretLength)
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("BACKEND_CUSTOMER_ID", "1")
	t.Setenv("JWT_SECRET", secret)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--subject", "wall", "--role", "operator"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}

	tokens, err := auth.NewManager(secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tokens.Validate(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Subject != "wall" || claims.Role != "operator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--role", "root"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Errorf("err = %v", err)
	}
}

func TestAccessControlOptions(t *testing.T) {
	store := audit.NewMemoryStore(10)
	trail := audit.NewLogger(store)

	opts, err := accessControl(config.SecurityConfig{}, trail)
	if err != nil || len(opts) != 0 {
		t.Fatalf("disabled auth = %d opts, %v", len(opts), err)
	}

	sec := config.SecurityConfig{JWTSecret: strings.Repeat("k", auth.MinSecretLength), TokenTTL: time.Hour}
	opts, err = accessControl(sec, trail)
	if err != nil || len(opts) != 1 {
		t.Fatalf("enabled auth = %d opts, %v", len(opts), err)
	}
}
