// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package models

import "testing"

func TestSeverityLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"critical", "Critical"},
		{" HIGH ", "High"},
		{"medium", "Medium"},
		{"low", "Low"},
		{"bogus", UnknownLabel},
		{"", UnknownLabel},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in).Label(); got != tt.want {
			t.Errorf("ParseSeverity(%q).Label() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSeverityProminent(t *testing.T) {
	for _, s := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium} {
		if !s.Prominent() {
			t.Errorf("%s should be prominent", s)
		}
	}
	for _, s := range []Severity{SeverityLow, "bogus", ""} {
		if s.Prominent() {
			t.Errorf("%q should not be prominent", s)
		}
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		in         Status
		label      string
		actionable bool
	}{
		{StatusPending, "Pending", true},
		{StatusLegacyPending, "Pending", true},
		{StatusResponded, "Responded", false},
		{StatusLegacyResolved, "Resolved", false},
		{"archived", UnknownLabel, false},
		{"", UnknownLabel, false},
	}
	for _, tt := range tests {
		if got := tt.in.Label(); got != tt.label {
			t.Errorf("Status(%q).Label() = %q, want %q", tt.in, got, tt.label)
		}
		if got := tt.in.Actionable(); got != tt.actionable {
			t.Errorf("Status(%q).Actionable() = %v, want %v", tt.in, got, tt.actionable)
		}
	}
}

func TestTiersMergedOrder(t *testing.T) {
	mk := func(id string) Feature {
		return NewPointFeature(Coordinate{}, map[string]any{"id": id})
	}
	ts := Tiers{
		Critical:     NewFeatureCollection([]Feature{mk("c")}),
		HighOrMedium: NewFeatureCollection([]Feature{mk("h")}),
		OtherAlert:   NewFeatureCollection(nil),
		Health:       NewFeatureCollection([]Feature{mk("p")}),
	}
	merged := ts.Merged()
	if len(merged) != 3 || ts.Total() != 3 {
		t.Fatalf("expected 3 features, got %d", len(merged))
	}
	want := []string{"c", "h", "p"}
	for i, f := range merged {
		if f.Properties["id"] != want[i] {
			t.Errorf("merged[%d] = %v, want %s", i, f.Properties["id"], want[i])
		}
	}
}

func TestFeatureAccessors(t *testing.T) {
	f := NewPointFeature(Coordinate{Lng: 116.4, Lat: 39.9}, map[string]any{
		PropKind:     KindAlert,
		PropSeverity: "high",
	})
	c, ok := f.Coordinate()
	if !ok || c.Lng != 116.4 || c.Lat != 39.9 {
		t.Errorf("Coordinate() = %v, %v", c, ok)
	}
	if f.Kind() != KindAlert {
		t.Errorf("Kind() = %q", f.Kind())
	}
	if f.Severity() != SeverityHigh {
		t.Errorf("Severity() = %q", f.Severity())
	}
	if _, ok := (Feature{}).Coordinate(); ok {
		t.Error("empty geometry should not yield a coordinate")
	}
}
