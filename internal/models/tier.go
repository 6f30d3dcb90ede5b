// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package models

// Tier names one of the four persistent map layers.
type Tier string

// Layer tiers.
const (
	TierCritical     Tier = "critical"
	TierHighOrMedium Tier = "high_or_medium"
	TierOtherAlert   Tier = "other_alert"
	TierHealth       Tier = "health"
)

// TierOrder is the click query priority and the merge order used for map
// centering.
var TierOrder = []Tier{TierCritical, TierHighOrMedium, TierOtherAlert, TierHealth}

// Tiers holds one feature collection per layer tier.
type Tiers struct {
	Critical     FeatureCollection `json:"critical"`
	HighOrMedium FeatureCollection `json:"high_or_medium"`
	OtherAlert   FeatureCollection `json:"other_alert"`
	Health       FeatureCollection `json:"health"`
}

// EmptyTiers returns four empty collections.
func EmptyTiers() Tiers {
	return Tiers{
		Critical:     NewFeatureCollection(nil),
		HighOrMedium: NewFeatureCollection(nil),
		OtherAlert:   NewFeatureCollection(nil),
		Health:       NewFeatureCollection(nil),
	}
}

// Get returns the collection for t.
func (ts Tiers) Get(t Tier) FeatureCollection {
	switch t {
	case TierCritical:
		return ts.Critical
	case TierHighOrMedium:
		return ts.HighOrMedium
	case TierOtherAlert:
		return ts.OtherAlert
	case TierHealth:
		return ts.Health
	}
	return NewFeatureCollection(nil)
}

// Total returns the feature count across all tiers.
func (ts Tiers) Total() int {
	return ts.Critical.Len() + ts.HighOrMedium.Len() + ts.OtherAlert.Len() + ts.Health.Len()
}

// Counts returns per-tier feature counts.
func (ts Tiers) Counts() map[Tier]int {
	return map[Tier]int{
		TierCritical:     ts.Critical.Len(),
		TierHighOrMedium: ts.HighOrMedium.Len(),
		TierOtherAlert:   ts.OtherAlert.Len(),
		TierHealth:       ts.Health.Len(),
	}
}

// Merged returns all features in TierOrder.
func (ts Tiers) Merged() []Feature {
	out := make([]Feature, 0, ts.Total())
	for _, t := range TierOrder {
		out = append(out, ts.Get(t).Features...)
	}
	return out
}
