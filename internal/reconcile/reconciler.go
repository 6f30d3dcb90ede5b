// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/healthmap/internal/geocode"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/mapview"
	"github.com/tomtom215/healthmap/internal/metrics"
	"github.com/tomtom215/healthmap/internal/models"
)

// CenterSource says where a map center decision came from.
type CenterSource string

// Center sources in priority order.
const (
	CenterAlert     CenterSource = "alert"
	CenterHealth    CenterSource = "health"
	CenterDevice    CenterSource = "device"
	CenterUnchanged CenterSource = "unchanged"
)

// Result summarizes one reconciliation.
type Result struct {
	Applied []models.Tier
	Skipped []models.Tier
	Failed  []models.Tier
	Center  CenterSource
}

// Reconciler applies tiers to the map.
type Reconciler struct {
	state         *DashboardState
	m             mapview.Map
	animator      mapview.Animator
	locator       geocode.Locator
	locateTimeout time.Duration
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLocator sets the device locator used when no feature can center the
// map.
func WithLocator(l geocode.Locator, timeout time.Duration) Option {
	return func(r *Reconciler) {
		r.locator = l
		r.locateTimeout = timeout
	}
}

// NewReconciler creates a reconciler. m and animator may be nil.
func NewReconciler(state *DashboardState, m mapview.Map, animator mapview.Animator, opts ...Option) *Reconciler {
	r := &Reconciler{
		state:         state,
		m:             m,
		animator:      animator,
		locateTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile swaps every bound layer's source for tiers, recenters the map
// and restarts the animation. Each step recovers its own failures.
func (r *Reconciler) Reconcile(ctx context.Context, tiers models.Tiers) Result {
	log := logging.Ctx(ctx)
	var res Result

	bindings := r.state.Bindings()
	for _, tier := range models.TierOrder {
		fc := tiers.Get(tier)
		layer := bindings.Get(tier)
		if layer == nil || !layer.Initialized() {
			res.Skipped = append(res.Skipped, tier)
			metrics.ReconcileStepFailures.WithLabelValues("layer", "not_initialized").Inc()
			log.Debug().Str("tier", string(tier)).Msg("Layer not initialized, skipping")
			continue
		}
		if err := r.applyTier(layer, fc); err != nil {
			res.Failed = append(res.Failed, tier)
			metrics.ReconcileStepFailures.WithLabelValues("layer", "error").Inc()
			log.Error().Err(err).Str("tier", string(tier)).Msg("Failed to replace layer source")
			continue
		}
		res.Applied = append(res.Applied, tier)
		metrics.SetLayerFeatures(string(tier), fc.Len())
	}
	r.state.SetTiers(tiers)

	res.Center = r.recenter(ctx, tiers)
	metrics.MapCenterUpdates.WithLabelValues(string(res.Center)).Inc()

	if err := r.restartAnimation(); err != nil {
		metrics.ReconcileStepFailures.WithLabelValues("animation", "error").Inc()
		log.Error().Err(err).Msg("Failed to restart animation")
	}

	log.Debug().
		Int("applied", len(res.Applied)).
		Int("skipped", len(res.Skipped)).
		Int("failed", len(res.Failed)).
		Str("center", string(res.Center)).
		Msg("Reconciliation complete")
	return res
}

func (r *Reconciler) applyTier(layer mapview.Layer, fc models.FeatureCollection) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("set source panicked: %v", p)
		}
	}()
	return layer.SetSource(mapview.NewSource(fc))
}

func (r *Reconciler) restartAnimation() (err error) {
	if r.animator == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("animator panicked: %v", p)
		}
	}()
	r.animator.Start()
	return nil
}

// recenter applies SelectCenter, falling back to the device locator.
func (r *Reconciler) recenter(ctx context.Context, tiers models.Tiers) (src CenterSource) {
	if r.m == nil {
		return CenterUnchanged
	}
	defer func() {
		if p := recover(); p != nil {
			metrics.ReconcileStepFailures.WithLabelValues("center", "panic").Inc()
			logging.Ctx(ctx).Error().Interface("panic", p).Msg("Map centering panicked")
			src = CenterUnchanged
		}
	}()

	if c, from, ok := SelectCenter(tiers); ok {
		r.m.SetCenter(c)
		return from
	}

	if r.locator == nil {
		return CenterUnchanged
	}
	lctx, cancel := context.WithTimeout(ctx, r.locateTimeout)
	defer cancel()
	c, err := r.locator.Locate(lctx)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Device location unavailable, map center unchanged")
		return CenterUnchanged
	}
	r.m.SetCenter(c)
	return CenterDevice
}

// SelectCenter picks the map center from the features alone: the first
// critical, high or medium alert in tier order, else the first health
// feature. ok is false when neither exists.
func SelectCenter(tiers models.Tiers) (models.Coordinate, CenterSource, bool) {
	merged := tiers.Merged()
	for _, f := range merged {
		if f.Kind() == models.KindHealth || !f.Severity().Prominent() {
			continue
		}
		if c, ok := f.Coordinate(); ok {
			return c, CenterAlert, true
		}
	}
	for _, f := range merged {
		if f.Kind() != models.KindHealth {
			continue
		}
		if c, ok := f.Coordinate(); ok {
			return c, CenterHealth, true
		}
	}
	return models.Coordinate{}, CenterUnchanged, false
}
