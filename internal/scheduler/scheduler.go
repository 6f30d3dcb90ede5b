// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package scheduler runs the refresh loop: wait for the map, then fetch,
// filter, project, bucket and reconcile once per interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/metrics"
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/pipeline"
	"github.com/tomtom215/healthmap/internal/reconcile"
	"github.com/tomtom215/healthmap/internal/snapshot"
	"github.com/tomtom215/healthmap/internal/websocket"
)

// ErrMapNotReady is returned by Serve when the map does not become ready
// within the configured timeout.
var ErrMapNotReady = errors.New("map not ready")

// ErrNoSnapshot is returned by Reapply before the first successful fetch.
var ErrNoSnapshot = errors.New("no snapshot fetched yet")

// Reconciler applies tiers to the map. *reconcile.Reconciler satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context, tiers models.Tiers) reconcile.Result
}

// Notifier receives a summary after each pass. *websocket.Hub satisfies it.
type Notifier interface {
	BroadcastJSON(messageType string, data interface{})
}

// PassResult summarizes one refresh pass.
type PassResult struct {
	PassID     string                 `json:"pass_id"`
	Alerts     int                    `json:"alerts"`
	Telemetry  int                    `json:"telemetry"`
	Counts     map[models.Tier]int    `json:"counts"`
	Center     reconcile.CenterSource `json:"center"`
	DurationMs int64                  `json:"duration_ms"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Scheduler drives refresh passes.
type Scheduler struct {
	fetcher      snapshot.Fetcher
	state        *reconcile.DashboardState
	reconciler   Reconciler
	ready        <-chan struct{}
	notifier     Notifier
	interval     time.Duration
	readyTimeout time.Duration

	trigger chan struct{}

	mu   sync.RWMutex
	last *PassResult
}

// New creates a scheduler. ready is the map's Ready channel; notifier may
// be nil.
func New(fetcher snapshot.Fetcher, state *reconcile.DashboardState, r Reconciler, ready <-chan struct{}, notifier Notifier, cfg config.RefreshConfig) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		fetcher:      fetcher,
		state:        state,
		reconciler:   r,
		ready:        ready,
		notifier:     notifier,
		interval:     interval,
		readyTimeout: cfg.ReadyTimeout,
		trigger:      make(chan struct{}, 1),
	}
}

// String implements fmt.Stringer for suture logs.
func (s *Scheduler) String() string {
	return "refresh-scheduler"
}

// Serve implements suture.Service. It waits for the map, runs a pass, then
// runs one pass per interval and per Trigger until ctx is canceled. Pass
// failures are logged and never stop the loop.
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.waitReady(ctx); err != nil {
		return err
	}
	logging.Info().Dur("interval", s.interval).Msg("Map ready, starting refresh loop")

	s.runLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Refresh scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runLogged(ctx)
		case <-s.trigger:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) waitReady(ctx context.Context) error {
	var timeout <-chan time.Time
	if s.readyTimeout > 0 {
		t := time.NewTimer(s.readyTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		return nil
	case <-timeout:
		return fmt.Errorf("%w after %s", ErrMapNotReady, s.readyTimeout)
	}
}

// Trigger requests a pass on the scheduler goroutine. Requests made while
// one is already queued are merged.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if _, err := s.RunPass(ctx); err != nil {
		logging.Warn().Err(err).Msg("Refresh pass failed, keeping previous map state")
	}
}

// RunPass fetches a snapshot and applies it. A fetch failure leaves the
// map untouched.
func (s *Scheduler) RunPass(ctx context.Context) (res PassResult, err error) {
	passID := logging.GeneratePassID()
	ctx = logging.ContextWithPassID(ctx, passID)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("refresh pass panicked: %v", p)
			metrics.RecordRefreshPass(time.Since(start), "panic")
		}
	}()

	snap, err := s.fetcher.Fetch(ctx)
	if err != nil {
		metrics.RecordRefreshPass(time.Since(start), "fetch_error")
		return PassResult{PassID: passID}, fmt.Errorf("fetch snapshot: %w", err)
	}
	s.state.SetSnapshot(snap)
	metrics.SetSnapshotRecords(len(snap.Alerts), len(snap.Telemetry))

	res = s.apply(ctx, passID, snap, start)
	metrics.RecordRefreshPass(time.Since(start), "success")
	return res, nil
}

// Reapply reruns filter through reconcile on the last snapshot, e.g. after
// the selection changed.
func (s *Scheduler) Reapply(ctx context.Context) (PassResult, error) {
	snap, ok := s.state.LastSnapshot()
	if !ok {
		return PassResult{}, ErrNoSnapshot
	}
	passID := logging.GeneratePassID()
	return s.apply(logging.ContextWithPassID(ctx, passID), passID, snap, time.Now()), nil
}

func (s *Scheduler) apply(ctx context.Context, passID string, snap models.Snapshot, start time.Time) PassResult {
	tiers := pipeline.Run(snap, s.state.Selection())
	rec := s.reconciler.Reconcile(ctx, tiers)

	res := PassResult{
		PassID:     passID,
		Alerts:     len(snap.Alerts),
		Telemetry:  len(snap.Telemetry),
		Counts:     tiers.Counts(),
		Center:     rec.Center,
		DurationMs: time.Since(start).Milliseconds(),
		FinishedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.BroadcastJSON(websocket.MessageTypeRefreshCompleted, res)
	}
	logging.Ctx(ctx).Info().
		Int("alerts", res.Alerts).
		Int("telemetry", res.Telemetry).
		Int("features", tiers.Total()).
		Str("center", string(res.Center)).
		Int64("duration_ms", res.DurationMs).
		Msg("Refresh pass complete")
	return res
}

// LastPass returns the most recent successful pass.
func (s *Scheduler) LastPass() (PassResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return PassResult{}, false
	}
	return *s.last, true
}
