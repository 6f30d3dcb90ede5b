// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/healthmap/internal/breaker"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/models"
)

// ErrNoLocation is returned when no locator could produce a position.
var ErrNoLocation = errors.New("device location unavailable")

// Locator reports the device position used as the last-resort map center.
type Locator interface {
	Locate(ctx context.Context) (models.Coordinate, error)
}

// StaticLocator returns a fixed, configured position.
type StaticLocator struct {
	Position models.Coordinate
}

// Locate implements Locator.
func (s StaticLocator) Locate(context.Context) (models.Coordinate, error) {
	return s.Position, nil
}

// IPLocator asks an ip-api compatible endpoint where this host is.
type IPLocator struct {
	http *resty.Client
	url  string
	cb   *breaker.Breaker[models.Coordinate]
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// NewIPLocator creates a locator for url, e.g. http://ip-api.com/json/.
func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	return &IPLocator{
		http: resty.New().SetTimeout(timeout),
		url:  url,
		cb:   breaker.New[models.Coordinate]("ip-locator", breaker.DefaultSettings()),
	}
}

// Locate implements Locator.
func (l *IPLocator) Locate(ctx context.Context) (models.Coordinate, error) {
	return l.cb.Execute(func() (models.Coordinate, error) {
		resp, err := l.http.R().SetContext(ctx).Get(l.url)
		if err != nil {
			return models.Coordinate{}, fmt.Errorf("ip location request failed: %w", err)
		}
		if resp.IsError() {
			return models.Coordinate{}, fmt.Errorf("ip location returned status %d", resp.StatusCode())
		}
		var body ipAPIResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return models.Coordinate{}, fmt.Errorf("failed to decode ip location: %w", err)
		}
		if body.Status != "success" {
			return models.Coordinate{}, fmt.Errorf("ip location failed: %s", body.Message)
		}
		return models.Coordinate{Lng: body.Lon, Lat: body.Lat}, nil
	})
}

// ChainLocator tries each locator in order.
type ChainLocator []Locator

// Locate implements Locator.
func (c ChainLocator) Locate(ctx context.Context) (models.Coordinate, error) {
	for _, l := range c {
		pos, err := l.Locate(ctx)
		if err == nil {
			return pos, nil
		}
		logging.Debug().Err(err).Msg("Device locator failed, trying next")
	}
	return models.Coordinate{}, ErrNoLocation
}
