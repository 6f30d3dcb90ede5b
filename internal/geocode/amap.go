// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/healthmap/internal/models"
)

// AMapProvider calls the AMap web service regeo API.
type AMapProvider struct {
	http    *resty.Client
	key     string
	limiter *rate.Limiter
}

type amapRegeoResponse struct {
	Status    string `json:"status"`
	Info      string `json:"info"`
	Regeocode struct {
		// An empty result is sent as [] rather than "".
		FormattedAddress json.RawMessage `json:"formatted_address"`
	} `json:"regeocode"`
}

// NewAMapProvider creates an AMap provider. ratePerSec <= 0 disables limiting.
func NewAMapProvider(baseURL, key string, timeout time.Duration, ratePerSec float64) *AMapProvider {
	return &AMapProvider{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		key:     key,
		limiter: newLimiter(ratePerSec),
	}
}

// Name implements Provider.
func (p *AMapProvider) Name() string {
	return "amap"
}

// Reverse implements ReverseGeocoder.
func (p *AMapProvider) Reverse(ctx context.Context, c models.Coordinate) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("amap rate limit wait: %w", err)
	}

	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":      p.key,
			"location": fmt.Sprintf("%.6f,%.6f", c.Lng, c.Lat),
			"output":   "json",
		}).
		Get("/v3/geocode/regeo")
	if err != nil {
		return "", fmt.Errorf("amap request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("amap returned status %d", resp.StatusCode())
	}

	var body amapRegeoResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to decode amap response: %w", err)
	}
	if body.Status != "1" {
		return "", fmt.Errorf("amap error: %s", body.Info)
	}

	var address string
	if err := json.Unmarshal(body.Regeocode.FormattedAddress, &address); err != nil || address == "" {
		return "", ErrNoResult
	}
	return address, nil
}

func newLimiter(ratePerSec float64) *rate.Limiter {
	if ratePerSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(ratePerSec), 1)
}
