// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package panel

import (
	"testing"
	"time"

	"github.com/tomtom215/healthmap/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  Variant
	}{
		{"full alert", map[string]any{"kind": "alert", "alertId": "1", "alertType": "sos"}, VariantAlert},
		{"missing type", map[string]any{"kind": "alert", "alertId": "1"}, VariantHealth},
		{"missing id", map[string]any{"kind": "alert", "alertType": "sos"}, VariantHealth},
		{"health with alert fields", map[string]any{"kind": "health", "alertId": "1", "alertType": "sos"}, VariantHealth},
		{"untagged alert fields", map[string]any{"alertId": "1", "alertType": "sos"}, VariantAlert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := models.NewPointFeature(models.Coordinate{}, tt.props)
			if got := Classify(f); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	alert := Render(*alertFeature(), VariantAlert)
	if alert[FieldTitle] != "fall_detected" || alert[FieldSeverity] != "Critical" {
		t.Errorf("alert fields = %v", alert)
	}
	if alert[FieldUser] != Placeholder || alert[FieldLocation] != LocationPending {
		t.Errorf("placeholders = %q, %q", alert[FieldUser], alert[FieldLocation])
	}

	health := Render(*healthFeature(), VariantHealth)
	if health[FieldHeartRate] != "88 bpm" || health[FieldBloodPressure] != "120/80 mmHg" {
		t.Errorf("health fields = %v", health)
	}
	if health[FieldBloodOxygen] != Placeholder {
		t.Errorf("blood oxygen = %q", health[FieldBloodOxygen])
	}

	noGeom := models.Feature{Properties: map[string]any{}}
	if got := Render(noGeom, VariantHealth)[FieldLocation]; got != LocationUnavailable {
		t.Errorf("location without geometry = %q", got)
	}
}

func TestOverlayDocument_FadeOut(t *testing.T) {
	doc := NewOverlayDocument(nil)
	n := doc.Create(VariantAlert, map[string]string{})

	if !doc.Remove(n.ID, 20*time.Millisecond) {
		t.Fatal("Remove returned false")
	}
	if doc.Exists(n.ID) {
		t.Error("fading node still live")
	}
	if doc.Patch(n.ID, FieldLocation, "x") {
		t.Error("patched a fading node")
	}
	if doc.Count("") != 1 {
		t.Errorf("count during fade = %d, want 1", doc.Count(""))
	}

	deadline := time.Now().Add(time.Second)
	for doc.Count("") != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if doc.Count("") != 0 {
		t.Error("node not dropped after fade")
	}
	if doc.Remove(n.ID, 0) {
		t.Error("second Remove returned true")
	}
}
