// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package mapview

import (
	"strconv"
	"sync"

	"github.com/tomtom215/healthmap/internal/cache"
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/websocket"
)

// ScatterLayer is one tier's point layer. A source swap builds a new grid
// and replaces the old one in a single locked assignment.
type ScatterLayer struct {
	tier models.Tier
	pub  Publisher
	opts Options

	mu     sync.RWMutex
	source Source
	grid   *cache.SpatialHashGrid
}

func newScatterLayer(tier models.Tier, pub Publisher, opts Options) *ScatterLayer {
	return &ScatterLayer{
		tier:   tier,
		pub:    pub,
		opts:   opts,
		source: NewSource(models.NewFeatureCollection(nil)),
		grid:   cache.NewSpatialHashGrid(opts.GridCellKm),
	}
}

// ID implements Layer.
func (l *ScatterLayer) ID() models.Tier {
	return l.tier
}

// Initialized implements Layer.
func (l *ScatterLayer) Initialized() bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.grid != nil
}

// SetSource implements Layer.
func (l *ScatterLayer) SetSource(src Source) error {
	if !l.Initialized() {
		return ErrLayerNotReady
	}

	grid := cache.NewSpatialHashGrid(l.opts.GridCellKm)
	for i := range src.Data.Features {
		c, ok := src.Data.Features[i].Coordinate()
		if !ok {
			continue
		}
		grid.Insert(strconv.Itoa(i), c.Lat, c.Lng, i)
	}

	l.mu.Lock()
	l.source = src
	l.grid = grid
	l.mu.Unlock()

	l.pub.Publish(LayerKey(l.tier), websocket.MessageTypeLayerSource, LayerSourceMessage{
		Tier:     l.tier,
		SourceID: src.ID,
		Count:    src.Data.Len(),
		Data:     src.Data,
	})
	return nil
}

// Source returns the current source.
func (l *ScatterLayer) Source() Source {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

// QueryFeatureAt implements Layer. The nearest point within the hit radius
// wins; the returned feature is a copy.
func (l *ScatterLayer) QueryFeatureAt(c models.Coordinate) (*models.Feature, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.grid.Nearest(c.Lat, c.Lng, l.opts.HitRadiusKm)
	if !ok {
		return nil, false
	}
	idx, ok := entry.Data.(int)
	if !ok || idx < 0 || idx >= len(l.source.Data.Features) {
		return nil, false
	}
	f := l.source.Data.Features[idx]
	return &f, true
}
