// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package mapview

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/healthmap/internal/models"
)

type flakySDK struct {
	*Surface
	failTier models.Tier
}

func (f flakySDK) CreateScatterLayer(tier models.Tier) (Layer, error) {
	if tier == f.failTier {
		return nil, errors.New("webgl context lost")
	}
	return f.Surface.CreateScatterLayer(tier)
}

func TestBootstrap(t *testing.T) {
	sdk := flakySDK{Surface: NewSurface(&recordingPublisher{}, Options{}), failTier: models.TierOtherAlert}

	m, bindings, animator, err := Bootstrap(context.Background(), sdk)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || animator == nil {
		t.Fatal("missing map or animator")
	}
	if len(bindings) != 3 {
		t.Errorf("bindings = %d, want 3", len(bindings))
	}
	if bindings.Get(models.TierOtherAlert) != nil {
		t.Error("failed tier should be unbound")
	}
}

func TestBindings_QueryPriority(t *testing.T) {
	s := NewSurface(&recordingPublisher{}, Options{HitRadiusKm: 1})
	_, bindings, _, err := Bootstrap(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}

	here := models.Coordinate{Lng: 2.35, Lat: 48.85}
	health := models.NewPointFeature(here, map[string]any{models.PropKind: "health"})
	critical := models.NewPointFeature(here, map[string]any{models.PropKind: "alert", models.PropAlertID: "a1"})

	_ = bindings.Get(models.TierHealth).SetSource(NewSource(models.NewFeatureCollection([]models.Feature{health})))
	_ = bindings.Get(models.TierCritical).SetSource(NewSource(models.NewFeatureCollection([]models.Feature{critical})))

	f, tier, ok := bindings.QueryFeatureAt(here)
	if !ok || tier != models.TierCritical || f.String(models.PropAlertID) != "a1" {
		t.Errorf("QueryFeatureAt = %v, %s, %v", f, tier, ok)
	}

	if _, _, ok := Bindings(nil).QueryFeatureAt(here); ok {
		t.Error("nil bindings should never hit")
	}
}
