// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package mapview

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/models"
)

var (
	// ErrLayerNotReady is returned when a layer is used before the map has
	// finished initializing it.
	ErrLayerNotReady = errors.New("map layer not initialized")

	// ErrLayerExists is returned when a second layer is created for a tier.
	ErrLayerExists = errors.New("layer already exists for tier")

	// ErrMapNotCreated is returned when layers are requested before the map.
	ErrMapNotCreated = errors.New("map not created")
)

// Map is the map object capability.
type Map interface {
	// Ready is closed once the map can accept sources.
	Ready() <-chan struct{}
	SetCenter(c models.Coordinate)
	Center() (models.Coordinate, bool)
}

// Layer is a persistent scatter layer bound to one tier. Its identity is
// stable across refreshes; only its source is replaced.
type Layer interface {
	ID() models.Tier
	Initialized() bool
	SetSource(src Source) error
	// QueryFeatureAt returns the feature rendered at c, if any.
	QueryFeatureAt(c models.Coordinate) (*models.Feature, bool)
}

// Animator restarts the pulsing point animation.
type Animator interface {
	Start()
}

// SDK creates the map and its layers.
type SDK interface {
	CreateMap(ctx context.Context) (Map, error)
	CreateScatterLayer(tier models.Tier) (Layer, error)
	CreateAnimator() Animator
}

// Source is an immutable data source wrapping one tier's features.
type Source struct {
	ID        string                   `json:"id"`
	Data      models.FeatureCollection `json:"data"`
	CreatedAt time.Time                `json:"created_at"`
}

// NewSource wraps fc in a fresh source.
func NewSource(fc models.FeatureCollection) Source {
	return Source{
		ID:        uuid.NewString(),
		Data:      models.NewFeatureCollection(fc.Features),
		CreatedAt: time.Now().UTC(),
	}
}

// Bindings maps each tier to its layer. A missing or nil entry means the
// layer could not be created.
type Bindings map[models.Tier]Layer

// Get returns the layer for tier, or nil.
func (b Bindings) Get(tier models.Tier) Layer {
	if b == nil {
		return nil
	}
	return b[tier]
}

// QueryFeatureAt asks the layers in TierOrder and returns the first hit.
func (b Bindings) QueryFeatureAt(c models.Coordinate) (*models.Feature, models.Tier, bool) {
	for _, tier := range models.TierOrder {
		layer := b.Get(tier)
		if layer == nil || !layer.Initialized() {
			continue
		}
		if f, ok := layer.QueryFeatureAt(c); ok {
			return f, tier, true
		}
	}
	return nil, "", false
}

// Bootstrap creates the map, one layer per tier and the animator. A layer
// that fails to create is logged and left unbound; only a map failure is
// returned.
func Bootstrap(ctx context.Context, sdk SDK) (Map, Bindings, Animator, error) {
	m, err := sdk.CreateMap(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	bindings := make(Bindings, len(models.TierOrder))
	for _, tier := range models.TierOrder {
		layer, err := sdk.CreateScatterLayer(tier)
		if err != nil {
			logging.Error().Err(err).Str("tier", string(tier)).Msg("Failed to create map layer")
			continue
		}
		bindings[tier] = layer
	}

	return m, bindings, sdk.CreateAnimator(), nil
}
