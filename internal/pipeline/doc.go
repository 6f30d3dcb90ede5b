// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package pipeline holds the pure stages of a refresh pass:
//
//	Filter   snapshot + selection  -> actionable alerts, telemetry
//	Project  filtered records      -> point features (kind tagged)
//	Bucket   point features        -> four severity tiers
//
// None of the stages return errors. Malformed records degrade to fallback
// values or are skipped at projection when they carry no usable position.
package pipeline
