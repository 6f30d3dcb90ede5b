// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package mapview defines the map SDK capability surface the engine drives
// (Map, Layer, Animator, SDK) and Surface, the server-side implementation
// that mirrors every change to dashboards and answers click hit-tests from
// a spatial hash grid.
package mapview
