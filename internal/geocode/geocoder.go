// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package geocode resolves map positions to human readable addresses and
// locates the device when no feature is available to center the map on.
//
// Reverse geocoding goes through a Resolver that consults an in-memory LRU,
// an optional shared Redis cache and then each configured provider in order,
// every provider behind its own rate limiter and circuit breaker.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/healthmap/internal/models"
)

var (
	// ErrNoProviders is returned when the chain has nothing to ask.
	ErrNoProviders = errors.New("no reverse geocode providers available")
	// ErrNoResult is returned by a provider that answered without an address.
	ErrNoResult = errors.New("no address for position")
)

// ReverseGeocoder maps a position to an address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c models.Coordinate) (string, error)
}

// Provider is a named reverse geocoding backend.
type Provider interface {
	ReverseGeocoder
	Name() string
}

// cacheKey rounds to 5 decimals (about 1m) so repeated clicks on the same
// device share an entry.
func cacheKey(c models.Coordinate) string {
	return fmt.Sprintf("%.5f,%.5f", round5(c.Lng), round5(c.Lat))
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
