// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/healthmap/internal/models"
)

// NominatimProvider calls an OpenStreetMap Nominatim /reverse endpoint.
// The public instance allows one request per second and requires a
// descriptive User-Agent.
type NominatimProvider struct {
	http    *resty.Client
	limiter *rate.Limiter
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// NewNominatimProvider creates a Nominatim provider.
func NewNominatimProvider(baseURL, userAgent string, timeout time.Duration, ratePerSec float64) *NominatimProvider {
	return &NominatimProvider{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "application/json"),
		limiter: newLimiter(ratePerSec),
	}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string {
	return "nominatim"
}

// Reverse implements ReverseGeocoder.
func (p *NominatimProvider) Reverse(ctx context.Context, c models.Coordinate) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("nominatim rate limit wait: %w", err)
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "jsonv2",
			"lat":    strconv.FormatFloat(c.Lat, 'f', 6, 64),
			"lon":    strconv.FormatFloat(c.Lng, 'f', 6, 64),
		}).
		Get("/reverse")
	if err != nil {
		return "", fmt.Errorf("nominatim request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("nominatim returned status %d", resp.StatusCode())
	}

	var body nominatimResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("nominatim error: %s: %w", body.Error, ErrNoResult)
	}
	if body.DisplayName == "" {
		return "", ErrNoResult
	}
	return body.DisplayName, nil
}
