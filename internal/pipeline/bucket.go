// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package pipeline

import "github.com/tomtom215/healthmap/internal/models"

// Bucket partitions features into the four layer tiers. Health features go to
// the health tier; alerts split by severity, with low, unknown and missing
// severities landing in the other-alert tier. Every input feature appears in
// exactly one output collection.
func Bucket(features []models.Feature) models.Tiers {
	var critical, highMed, other, health []models.Feature
	for _, f := range features {
		if f.Kind() == models.KindHealth {
			health = append(health, f)
			continue
		}
		switch f.Severity() {
		case models.SeverityCritical:
			critical = append(critical, f)
		case models.SeverityHigh, models.SeverityMedium:
			highMed = append(highMed, f)
		default:
			other = append(other, f)
		}
	}
	return models.Tiers{
		Critical:     models.NewFeatureCollection(critical),
		HighOrMedium: models.NewFeatureCollection(highMed),
		OtherAlert:   models.NewFeatureCollection(other),
		Health:       models.NewFeatureCollection(health),
	}
}

// Run is the full pure pipeline for one snapshot.
func Run(snap models.Snapshot, sel models.Selection) models.Tiers {
	return Bucket(Project(Filter(snap, sel)))
}
