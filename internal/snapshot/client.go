// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package snapshot fetches the combined alert and health snapshot for one
// organization from the backend REST API.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/healthmap/internal/breaker"
	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/models"
)

// TotalInfoPath is the snapshot endpoint.
const TotalInfoPath = "/get_total_info"

var (
	// ErrUnsuccessful is returned when the backend answers success:false.
	ErrUnsuccessful = errors.New("backend reported success=false")
	// ErrBadStatus is returned for non-2xx responses.
	ErrBadStatus = errors.New("unexpected backend status")
)

// Fetcher returns the current snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

type totalInfoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		AlertInfo struct {
			Alerts []models.Record `json:"alerts"`
		} `json:"alert_info"`
		HealthData struct {
			HealthData []models.Record `json:"healthData"`
		} `json:"health_data"`
	} `json:"data"`
}

// Client calls the backend over HTTP.
type Client struct {
	http       *resty.Client
	customerID string
	now        func() time.Time
}

// NewClient builds a client from backend configuration.
func NewClient(cfg config.BackendConfig) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	return &Client{
		http:       rc,
		customerID: cfg.CustomerID,
		now:        time.Now,
	}
}

// Fetch performs GET /get_total_info?customer_id={id}.
func (c *Client) Fetch(ctx context.Context) (models.Snapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("customer_id", c.customerID).
		Get(TotalInfoPath)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("snapshot request failed: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return models.Snapshot{}, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode())
	}

	var body totalInfoResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if !body.Success {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrUnsuccessful, body.Message)
	}

	snap := models.Snapshot{
		Alerts:    body.Data.AlertInfo.Alerts,
		Telemetry: body.Data.HealthData.HealthData,
		FetchedAt: c.now(),
	}
	logging.Ctx(ctx).Debug().
		Int("alerts", len(snap.Alerts)).
		Int("telemetry", len(snap.Telemetry)).
		Msg("Snapshot fetched")
	return snap, nil
}

// BreakerClient guards a Fetcher with a circuit breaker.
type BreakerClient struct {
	next Fetcher
	cb   *breaker.Breaker[models.Snapshot]
}

// NewBreakerClient wraps next.
func NewBreakerClient(next Fetcher, s breaker.Settings) *BreakerClient {
	return &BreakerClient{
		next: next,
		cb:   breaker.New[models.Snapshot]("snapshot-api", s),
	}
}

// Fetch implements Fetcher.
func (b *BreakerClient) Fetch(ctx context.Context) (models.Snapshot, error) {
	return b.cb.Execute(func() (models.Snapshot, error) {
		return b.next.Fetch(ctx)
	})
}
