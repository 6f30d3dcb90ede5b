// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/healthmap/internal/mapview"
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/pipeline"
)

type fakeLayer struct {
	tier        models.Tier
	initialized bool
	panics      bool
	sources     []mapview.Source
}

func (l *fakeLayer) ID() models.Tier   { return l.tier }
func (l *fakeLayer) Initialized() bool { return l.initialized }

func (l *fakeLayer) SetSource(src mapview.Source) error {
	if l.panics {
		panic("malformed feature")
	}
	l.sources = append(l.sources, src)
	return nil
}

func (l *fakeLayer) QueryFeatureAt(models.Coordinate) (*models.Feature, bool) { return nil, false }

type fakeMap struct {
	mu      sync.Mutex
	center  models.Coordinate
	set     bool
	setCall int
}

func (m *fakeMap) Ready() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (m *fakeMap) SetCenter(c models.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center, m.set = c, true
	m.setCall++
}

func (m *fakeMap) Center() (models.Coordinate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center, m.set
}

type countingAnimator struct{ starts int }

func (a *countingAnimator) Start() { a.starts++ }

type fixedLocator struct {
	pos models.Coordinate
	err error
}

func (l fixedLocator) Locate(context.Context) (models.Coordinate, error) { return l.pos, l.err }

func allLayers() (mapview.Bindings, map[models.Tier]*fakeLayer) {
	bindings := mapview.Bindings{}
	layers := map[models.Tier]*fakeLayer{}
	for _, tier := range models.TierOrder {
		l := &fakeLayer{tier: tier, initialized: true}
		bindings[tier] = l
		layers[tier] = l
	}
	return bindings, layers
}

func alert(sev string, lng, lat float64) models.Record {
	return models.Record{
		"alertId": sev + "-1", "alertType": "fall", "severity": sev, "status": "pending",
		"longitude": lng, "latitude": lat,
	}
}

func health(lng, lat float64) models.Record {
	return models.Record{"deviceSn": "dev-1", "heartRate": 72, "longitude": lng, "latitude": lat}
}

func TestReconcile_CenterPrefersProminentAlert(t *testing.T) {
	bindings, _ := allLayers()
	m := &fakeMap{}
	r := NewReconciler(NewDashboardState(nil, bindings), m, &countingAnimator{})

	tiers := pipeline.Run(models.Snapshot{
		Alerts:    []models.Record{alert("critical", 10, 20)},
		Telemetry: []models.Record{health(30, 40)},
	}, models.Selection{})

	res := r.Reconcile(context.Background(), tiers)
	if res.Center != CenterAlert {
		t.Errorf("center source = %s, want alert", res.Center)
	}
	if got, _ := m.Center(); got != (models.Coordinate{Lng: 10, Lat: 20}) {
		t.Errorf("center = %+v, want critical alert position", got)
	}
}

func TestSelectCenter(t *testing.T) {
	tests := []struct {
		name   string
		alerts []models.Record
		health []models.Record
		want   models.Coordinate
		from   CenterSource
		ok     bool
	}{
		{
			name:   "high beats low even when low is first",
			alerts: []models.Record{alert("low", 1, 1), alert("high", 2, 2)},
			want:   models.Coordinate{Lng: 2, Lat: 2}, from: CenterAlert, ok: true,
		},
		{
			name:   "critical tier precedes medium",
			alerts: []models.Record{alert("medium", 3, 3), alert("critical", 4, 4)},
			want:   models.Coordinate{Lng: 4, Lat: 4}, from: CenterAlert, ok: true,
		},
		{
			name:   "only low alerts fall back to health",
			alerts: []models.Record{alert("low", 5, 5)},
			health: []models.Record{health(6, 6)},
			want:   models.Coordinate{Lng: 6, Lat: 6}, from: CenterHealth, ok: true,
		},
		{
			name:   "zero coordinates are a valid center",
			health: []models.Record{health(0, 0)},
			want:   models.Coordinate{}, from: CenterHealth, ok: true,
		},
		{name: "nothing", from: CenterUnchanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiers := pipeline.Run(models.Snapshot{Alerts: tt.alerts, Telemetry: tt.health}, models.Selection{})
			got, from, ok := SelectCenter(tiers)
			if ok != tt.ok || from != tt.from || got != tt.want {
				t.Errorf("SelectCenter = %+v, %s, %v; want %+v, %s, %v", got, from, ok, tt.want, tt.from, tt.ok)
			}
		})
	}
}

func TestReconcile_NoData(t *testing.T) {
	bindings, layers := allLayers()
	m := &fakeMap{}
	r := NewReconciler(NewDashboardState(nil, bindings), m, &countingAnimator{})

	res := r.Reconcile(context.Background(), pipeline.Run(models.Snapshot{}, models.Selection{}))

	if len(res.Applied) != 4 {
		t.Fatalf("applied = %v, want all four tiers", res.Applied)
	}
	for tier, l := range layers {
		if len(l.sources) != 1 || l.sources[0].Data.Len() != 0 {
			t.Errorf("tier %s: sources = %+v", tier, l.sources)
		}
		if l.sources[0].Data.Features == nil {
			t.Errorf("tier %s: features slice is nil", tier)
		}
	}
	if _, set := m.Center(); set || res.Center != CenterUnchanged {
		t.Errorf("center changed without data: %s", res.Center)
	}
}

func TestReconcile_NoDataUsesLocator(t *testing.T) {
	bindings, _ := allLayers()
	m := &fakeMap{}
	device := models.Coordinate{Lng: 121.47, Lat: 31.23}
	r := NewReconciler(NewDashboardState(nil, bindings), m, nil, WithLocator(fixedLocator{pos: device}, time.Second))

	if res := r.Reconcile(context.Background(), models.EmptyTiers()); res.Center != CenterDevice {
		t.Errorf("center source = %s, want device", res.Center)
	}
	if got, _ := m.Center(); got != device {
		t.Errorf("center = %+v, want %+v", got, device)
	}

	failing := NewReconciler(NewDashboardState(nil, bindings), &fakeMap{}, nil,
		WithLocator(fixedLocator{err: errors.New("denied")}, time.Second))
	if res := failing.Reconcile(context.Background(), models.EmptyTiers()); res.Center != CenterUnchanged {
		t.Errorf("center source = %s, want unchanged", res.Center)
	}
}

func TestReconcile_SkipsAndRecovers(t *testing.T) {
	bindings, layers := allLayers()
	layers[models.TierHighOrMedium].initialized = false
	layers[models.TierOtherAlert].panics = true
	delete(bindings, models.TierHealth)

	animator := &countingAnimator{}
	state := NewDashboardState(nil, bindings)
	r := NewReconciler(state, &fakeMap{}, animator)

	var res Result
	func() {
		defer func() {
			if p := recover(); p != nil {
				t.Fatalf("Reconcile panicked: %v", p)
			}
		}()
		res = r.Reconcile(context.Background(), models.EmptyTiers())
	}()

	if len(res.Applied) != 1 || res.Applied[0] != models.TierCritical {
		t.Errorf("applied = %v", res.Applied)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("skipped = %v", res.Skipped)
	}
	if len(res.Failed) != 1 || res.Failed[0] != models.TierOtherAlert {
		t.Errorf("failed = %v", res.Failed)
	}
	if animator.starts != 1 {
		t.Errorf("animator starts = %d, want 1", animator.starts)
	}
	if _, at := state.Tiers(); at.IsZero() {
		t.Error("state tiers not recorded")
	}
}

func TestReconcile_LayerIdentityStable(t *testing.T) {
	bindings, layers := allLayers()
	r := NewReconciler(NewDashboardState(nil, bindings), nil, nil)

	for i := 0; i < 3; i++ {
		r.Reconcile(context.Background(), models.EmptyTiers())
	}
	for tier, l := range layers {
		if bindings.Get(tier) != l {
			t.Errorf("binding for %s replaced", tier)
		}
		if len(l.sources) != 3 {
			t.Errorf("tier %s received %d sources, want 3", tier, len(l.sources))
		}
		if l.sources[0].ID == l.sources[1].ID {
			t.Errorf("tier %s reused a source", tier)
		}
	}
}

func TestSelectionStore(t *testing.T) {
	s := NewSelectionStore(models.Selection{})
	state := NewDashboardState(s, nil)
	s.Set(models.Selection{DeptID: "7"})
	if state.Selection().DeptID != "7" {
		t.Errorf("selection not read through provider")
	}

	if _, ok := state.LastSnapshot(); ok {
		t.Error("fresh state has a snapshot")
	}
	state.SetSnapshot(models.Snapshot{Alerts: []models.Record{{}}})
	if snap, ok := state.LastSnapshot(); !ok || len(snap.Alerts) != 1 {
		t.Error("snapshot not stored")
	}
}
