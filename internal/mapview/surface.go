// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package mapview

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/websocket"
)

// Retained message keys.
const (
	KeyMapCenter   = "map_center"
	keyLayerPrefix = "layer:"
)

// LayerKey is the retained key for a tier's source.
func LayerKey(tier models.Tier) string {
	return keyLayerPrefix + string(tier)
}

// Publisher receives the surface's render messages. *websocket.Hub
// satisfies it.
type Publisher interface {
	Publish(key, messageType string, data interface{})
	BroadcastJSON(messageType string, data interface{})
}

// Options tunes hit-testing.
type Options struct {
	// HitRadiusKm is how far from a point a click still hits it.
	HitRadiusKm float64
	// GridCellKm is the spatial hash cell size.
	GridCellKm float64
}

// OptionsFromConfig reads Options from the map config section.
func OptionsFromConfig(cfg config.MapConfig) Options {
	return Options{HitRadiusKm: cfg.HitRadiusKm, GridCellKm: cfg.GridCellKm}
}

// LayerSourceMessage is the layer_source payload.
type LayerSourceMessage struct {
	Tier     models.Tier              `json:"tier"`
	SourceID string                   `json:"source_id"`
	Count    int                      `json:"count"`
	Data     models.FeatureCollection `json:"data"`
}

// AnimationMessage is the animation_restart payload.
type AnimationMessage struct {
	Generation uint64    `json:"generation"`
	At         time.Time `json:"at"`
}

// Surface is a server-side SDK implementation. It holds the authoritative
// map state and publishes every change.
type Surface struct {
	pub  Publisher
	opts Options

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.RWMutex
	center    models.Coordinate
	hasCenter bool
	layers    map[models.Tier]*ScatterLayer
}

// NewSurface creates a surface publishing to pub.
func NewSurface(pub Publisher, opts Options) *Surface {
	if opts.HitRadiusKm <= 0 {
		opts.HitRadiusKm = 0.5
	}
	if opts.GridCellKm <= 0 {
		opts.GridCellKm = 1
	}
	return &Surface{
		pub:    pub,
		opts:   opts,
		ready:  make(chan struct{}),
		layers: make(map[models.Tier]*ScatterLayer),
	}
}

// CreateMap implements SDK. The surface is ready as soon as it exists.
func (s *Surface) CreateMap(ctx context.Context) (Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}
	s.readyOnce.Do(func() {
		close(s.ready)
		logging.Info().Float64("hit_radius_km", s.opts.HitRadiusKm).Msg("Map surface ready")
	})
	return s, nil
}

// CreateScatterLayer implements SDK. Each tier gets exactly one layer.
func (s *Surface) CreateScatterLayer(tier models.Tier) (Layer, error) {
	select {
	case <-s.ready:
	default:
		return nil, ErrMapNotCreated
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[tier]; ok {
		return nil, fmt.Errorf("%w: %s", ErrLayerExists, tier)
	}
	layer := newScatterLayer(tier, s.pub, s.opts)
	s.layers[tier] = layer
	return layer, nil
}

// CreateAnimator implements SDK.
func (s *Surface) CreateAnimator() Animator {
	return &PulseAnimator{pub: s.pub}
}

// Ready implements Map.
func (s *Surface) Ready() <-chan struct{} {
	return s.ready
}

// SetCenter implements Map.
func (s *Surface) SetCenter(c models.Coordinate) {
	s.mu.Lock()
	s.center = c
	s.hasCenter = true
	s.mu.Unlock()
	s.pub.Publish(KeyMapCenter, websocket.MessageTypeMapCenter, c)
}

// Center implements Map.
func (s *Surface) Center() (models.Coordinate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.center, s.hasCenter
}

// Layer returns the layer created for tier.
func (s *Surface) Layer(tier models.Tier) (*ScatterLayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers[tier]
	return l, ok
}

// PulseAnimator tells dashboards to restart point animation.
type PulseAnimator struct {
	pub        Publisher
	generation atomic.Uint64
}

// Start implements Animator.
func (a *PulseAnimator) Start() {
	a.pub.BroadcastJSON(websocket.MessageTypeAnimationRestart, AnimationMessage{
		Generation: a.generation.Add(1),
		At:         time.Now().UTC(),
	})
}

// Generation returns how many times the animation was restarted.
func (a *PulseAnimator) Generation() uint64 {
	return a.generation.Load()
}
