// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package reconcile owns the dashboard state and applies each refresh pass
// to the map: one source swap per tier, a center decision and an animation
// restart. Nothing here returns an error to the scheduler.
package reconcile

import (
	"sync"
	"time"

	"github.com/tomtom215/healthmap/internal/mapview"
	"github.com/tomtom215/healthmap/internal/models"
)

// SelectionProvider supplies the current department/user selection.
type SelectionProvider interface {
	Selection() models.Selection
}

// SelectionStore is a settable SelectionProvider.
type SelectionStore struct {
	mu  sync.RWMutex
	sel models.Selection
}

// NewSelectionStore returns a store holding sel.
func NewSelectionStore(sel models.Selection) *SelectionStore {
	return &SelectionStore{sel: sel}
}

// Selection implements SelectionProvider.
func (s *SelectionStore) Selection() models.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel
}

// Set replaces the selection.
func (s *SelectionStore) Set(sel models.Selection) {
	s.mu.Lock()
	s.sel = sel
	s.mu.Unlock()
}

// DashboardState holds the last fetched snapshot, the tiers derived from it,
// the injected selection and the layer bindings.
type DashboardState struct {
	selection SelectionProvider
	bindings  mapview.Bindings

	mu           sync.RWMutex
	lastSnapshot *models.Snapshot
	tiers        models.Tiers
	updatedAt    time.Time
}

// NewDashboardState creates the state. bindings may be partially filled.
func NewDashboardState(selection SelectionProvider, bindings mapview.Bindings) *DashboardState {
	if selection == nil {
		selection = NewSelectionStore(models.Selection{})
	}
	return &DashboardState{
		selection: selection,
		bindings:  bindings,
		tiers:     models.EmptyTiers(),
	}
}

// Selection returns the current selection.
func (s *DashboardState) Selection() models.Selection {
	return s.selection.Selection()
}

// Bindings returns the layer bindings.
func (s *DashboardState) Bindings() mapview.Bindings {
	return s.bindings
}

// SetSnapshot replaces the last snapshot.
func (s *DashboardState) SetSnapshot(snap models.Snapshot) {
	s.mu.Lock()
	s.lastSnapshot = &snap
	s.mu.Unlock()
}

// LastSnapshot returns the last snapshot, if any.
func (s *DashboardState) LastSnapshot() (models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSnapshot == nil {
		return models.Snapshot{}, false
	}
	return *s.lastSnapshot, true
}

// SetTiers records the tiers most recently applied.
func (s *DashboardState) SetTiers(t models.Tiers) {
	s.mu.Lock()
	s.tiers = t
	s.updatedAt = time.Now().UTC()
	s.mu.Unlock()
}

// Tiers returns the tiers most recently applied and when.
func (s *DashboardState) Tiers() (models.Tiers, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tiers, s.updatedAt
}
