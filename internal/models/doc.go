// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package models defines the data shapes that flow through the healthmap
// synchronization pipeline: raw backend records, their canonical alert and
// telemetry forms, GeoJSON point features and the severity tiers features
// are bucketed into.
package models
