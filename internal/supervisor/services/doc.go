// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package services adapts healthmap components to suture.Service. Each
// wrapper depends on a small interface rather than the concrete component
// so it can be tested with fakes.
package services
