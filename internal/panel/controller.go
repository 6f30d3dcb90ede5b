// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/geocode"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/metrics"
	"github.com/tomtom215/healthmap/internal/models"
)

// ErrNoPanel is returned by Close when no panel is shown.
var ErrNoPanel = errors.New("no panel is open")

// State is the controller state.
type State string

// Controller states.
const (
	StateIdle       State = "idle"
	StateDisplaying State = "displaying"
)

// CloseReason records why a panel closed.
type CloseReason string

// Close reasons.
const (
	CloseButton   CloseReason = "button"
	CloseBackdrop CloseReason = "backdrop"
	CloseMapClick CloseReason = "map_click"
)

// Valid reports whether r is a known close reason.
func (r CloseReason) Valid() bool {
	return r == CloseButton || r == CloseBackdrop || r == CloseMapClick
}

// ClickOutcome reports what a click did.
type ClickOutcome string

// Click outcomes.
const (
	ClickOpened  ClickOutcome = "opened"
	ClickIgnored ClickOutcome = "ignored"
	ClickClosed  ClickOutcome = "closed"
	ClickMissed  ClickOutcome = "missed"
	ClickFailed  ClickOutcome = "failed"
)

// FeatureQuerier resolves a click position to a feature. mapview.Bindings
// satisfies it.
type FeatureQuerier interface {
	QueryFeatureAt(c models.Coordinate) (*models.Feature, models.Tier, bool)
}

// RenderFunc builds panel fields for a feature.
type RenderFunc func(f models.Feature, v Variant) map[string]string

// Options tunes a Controller.
type Options struct {
	// SettleDelay is how long the open guard is held after render.
	SettleDelay time.Duration
	// FadeOut delays node removal on close.
	FadeOut time.Duration
	// GeocodeTimeout bounds the background address lookup.
	GeocodeTimeout time.Duration
}

// OptionsFromConfig reads Options from config.
func OptionsFromConfig(p config.PanelConfig, g config.GeocodeConfig) Options {
	return Options{SettleDelay: p.SettleDelay, FadeOut: p.FadeOut, GeocodeTimeout: g.Timeout}
}

// Session is a snapshot of the controller for inspection.
type Session struct {
	State   State   `json:"state"`
	Guarded bool    `json:"guarded"`
	Node    *Node   `json:"node,omitempty"`
	Tier    string  `json:"tier,omitempty"`
	Variant Variant `json:"variant,omitempty"`
}

// session is one open panel instance.
type session struct {
	node    Node
	tier    models.Tier
	variant Variant
	settle  *time.Timer
}

// Controller owns the singleton panel.
type Controller struct {
	doc      *OverlayDocument
	query    FeatureQuerier
	geocoder geocode.ReverseGeocoder
	render   RenderFunc
	opts     Options

	mu      sync.Mutex
	guard   *session // session holding the open guard, nil when clear
	current *session

	pending sync.WaitGroup
}

// NewController creates a controller. geocoder may be nil.
func NewController(doc *OverlayDocument, query FeatureQuerier, geocoder geocode.ReverseGeocoder, opts Options) *Controller {
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 10 * time.Second
	}
	return &Controller{
		doc:      doc,
		query:    query,
		geocoder: geocoder,
		render:   Render,
		opts:     opts,
	}
}

// SetRenderer replaces the field renderer.
func (c *Controller) SetRenderer(fn RenderFunc) {
	c.mu.Lock()
	c.render = fn
	c.mu.Unlock()
}

// Click handles a map click at pos.
func (c *Controller) Click(ctx context.Context, pos models.Coordinate) ClickOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.guard != nil {
		metrics.PanelClicksIgnored.Inc()
		logging.Ctx(ctx).Debug().Msg("Panel is opening, click ignored")
		return ClickIgnored
	}

	f, tier, ok := c.query.QueryFeatureAt(pos)
	if !ok {
		if c.current == nil {
			return ClickMissed
		}
		c.closeLocked(CloseMapClick)
		return ClickClosed
	}

	return c.openLocked(ctx, *f, tier)
}

// openLocked must be called with c.mu held.
func (c *Controller) openLocked(ctx context.Context, f models.Feature, tier models.Tier) (out ClickOutcome) {
	sess := &session{tier: tier}
	c.guard = sess
	scheduled := false
	defer func() {
		if p := recover(); p != nil {
			logging.Ctx(ctx).Error().Interface("panic", p).Msg("Panel render panicked")
			c.doc.RemoveAll()
			c.current = nil
			out = ClickFailed
		}
		if !scheduled && c.guard == sess {
			c.guard = nil
		}
	}()

	if n := c.doc.RemoveAll(); n > 0 {
		logging.Ctx(ctx).Debug().Int("removed", n).Msg("Removed stale overlays")
	}
	if c.current != nil && c.current.settle != nil {
		c.current.settle.Stop()
	}

	sess.variant = Classify(f)
	sess.node = c.doc.Create(sess.variant, c.render(f, sess.variant))
	c.current = sess
	metrics.PanelOpens.WithLabelValues(string(sess.variant)).Inc()

	sess.settle = time.AfterFunc(c.opts.SettleDelay, func() { c.releaseGuard(sess) })
	scheduled = true

	if pos, ok := f.Coordinate(); ok && c.geocoder != nil {
		c.pending.Add(1)
		go c.resolveLocation(context.WithoutCancel(ctx), sess, pos)
	}

	logging.Ctx(ctx).Debug().
		Str("panel_id", sess.node.ID).
		Str("variant", string(sess.variant)).
		Str("tier", string(tier)).
		Msg("Panel opened")
	return ClickOpened
}

func (c *Controller) releaseGuard(sess *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guard == sess {
		c.guard = nil
	}
}

// resolveLocation writes the address into sess's node if sess is still the
// current panel.
func (c *Controller) resolveLocation(ctx context.Context, sess *session, pos models.Coordinate) {
	defer c.pending.Done()

	gctx, cancel := context.WithTimeout(ctx, c.opts.GeocodeTimeout)
	defer cancel()

	addr, err := c.geocoder.Reverse(gctx, pos)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Reverse geocode failed")
		addr = LocationUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != sess || !c.doc.Exists(sess.node.ID) {
		metrics.PanelStaleGeocodes.Inc()
		logging.Ctx(ctx).Debug().Str("panel_id", sess.node.ID).Msg("Panel closed before address resolved")
		return
	}
	c.doc.Patch(sess.node.ID, FieldLocation, addr)
}

// Close closes the open panel.
func (c *Controller) Close(reason CloseReason) error {
	if !reason.Valid() {
		return fmt.Errorf("invalid close reason %q", reason)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		c.guard = nil
		return ErrNoPanel
	}
	c.closeLocked(reason)
	return nil
}

// closeLocked must be called with c.mu held and a current panel.
func (c *Controller) closeLocked(reason CloseReason) {
	sess := c.current
	defer func() { c.guard = nil }()

	if sess.settle != nil {
		sess.settle.Stop()
	}
	c.current = nil
	c.doc.Remove(sess.node.ID, c.opts.FadeOut)
	metrics.PanelCloses.WithLabelValues(string(reason)).Inc()
	logging.Debug().Str("panel_id", sess.node.ID).Str("reason", string(reason)).Msg("Panel closed")
}

// Session returns the current controller state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Session{State: StateIdle, Guarded: c.guard != nil}
	if c.current == nil {
		return s
	}
	s.State = StateDisplaying
	s.Tier = string(c.current.tier)
	s.Variant = c.current.variant
	if n, ok := c.doc.Get(c.current.node.ID); ok {
		s.Node = &n
	}
	return s
}

// Wait blocks until background address lookups have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}
