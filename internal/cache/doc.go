// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package cache provides the in-memory structures healthmap keeps between
// refresh passes: a spatial hash grid used to hit-test map clicks against a
// layer's features, and a TTL-bounded LRU used for reverse geocoding results.
package cache
