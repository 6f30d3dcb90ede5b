// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/healthmap/internal/logging"
)

// Refresher matches *scheduler.Scheduler.
type Refresher interface {
	Serve(ctx context.Context) error
}

// RefreshService runs the refresh scheduler. A scheduler exit other than
// shutdown is returned so suture restarts it with backoff.
type RefreshService struct {
	refresher Refresher
	name      string
}

// NewRefreshService wraps r.
func NewRefreshService(r Refresher) *RefreshService {
	return &RefreshService{refresher: r, name: "refresh-scheduler"}
}

// Serve implements suture.Service.
func (r *RefreshService) Serve(ctx context.Context) error {
	err := r.refresher.Serve(ctx)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	logging.Warn().Err(err).Str("service", r.name).Msg("Refresh scheduler exited, supervisor will restart it")
	return fmt.Errorf("refresh scheduler: %w", err)
}

// String implements fmt.Stringer for suture logs.
func (r *RefreshService) String() string {
	return r.name
}
