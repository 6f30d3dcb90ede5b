// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package cache

import (
	"math"
	"sync"
	"testing"
)

func TestSpatialHashGrid_BasicOperations(t *testing.T) {
	t.Parallel()

	grid := NewSpatialHashGrid(1)
	grid.Insert("a", 39.9042, 116.4074, "beijing")
	grid.Insert("b", 31.2304, 121.4737, "shanghai")

	if grid.Size() != 2 {
		t.Errorf("Size() = %d, want 2", grid.Size())
	}
	entry, ok := grid.Get("a")
	if !ok || entry.Data != "beijing" {
		t.Errorf("Get(a) = %v, %v", entry, ok)
	}

	grid.Insert("a", 22.5431, 114.0579, "shenzhen")
	if grid.Size() != 2 {
		t.Errorf("Size() after update = %d, want 2", grid.Size())
	}
	if _, ok := grid.Nearest(39.9042, 116.4074, 1); ok {
		t.Error("old position of a should no longer match")
	}

	if !grid.Remove("b") || grid.Remove("b") {
		t.Error("Remove should succeed once")
	}
	grid.Clear()
	if grid.Size() != 0 || grid.NumCells() != 0 {
		t.Error("Clear should empty the grid")
	}
}

func TestSpatialHashGrid_Nearest(t *testing.T) {
	t.Parallel()

	grid := NewSpatialHashGrid(1)
	grid.Insert("far", 39.9100, 116.4074, nil)  // ~0.64km north
	grid.Insert("near", 39.9050, 116.4074, nil) // ~0.09km north
	grid.Insert("other", 40.5, 117.0, nil)

	got, ok := grid.Nearest(39.9042, 116.4074, 1)
	if !ok || got.ID != "near" {
		t.Fatalf("Nearest = %v, %v; want near", got, ok)
	}
	if got.DistanceKm <= 0 || got.DistanceKm > 0.2 {
		t.Errorf("DistanceKm = %f", got.DistanceKm)
	}

	results := grid.QueryNearby(39.9042, 116.4074, 1)
	if len(results) != 2 || results[0].ID != "near" || results[1].ID != "far" {
		t.Errorf("QueryNearby order wrong: %v", results)
	}

	if _, ok := grid.Nearest(0, 0, 1); ok {
		t.Error("expected no hit far away")
	}
}

func TestSpatialHashGrid_PrimeMeridian(t *testing.T) {
	t.Parallel()

	grid := NewSpatialHashGrid(1)
	grid.Insert("origin", 0, 0, nil)
	grid.Insert("west", 0, -0.001, nil)
	if got, ok := grid.Nearest(0, 0, 0.05); !ok || got.ID != "origin" {
		t.Errorf("origin lookup = %v, %v", got, ok)
	}
	if n := len(grid.QueryNearby(0, 0.0005, 0.5)); n != 2 {
		t.Errorf("expected both points across the prime meridian, got %d", n)
	}
}

func TestSpatialHashGrid_Antimeridian(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cellKm     float64
		pointLng   float64
		queryLng   float64
		queryLat   float64
		radiusKm   float64
		wantFound  bool
		wantWithin float64
	}{
		{"east point, west click", 1, 179.9999, -179.9999, 0, 0.5, true, 0.05},
		{"west point, east click", 1, -179.9999, 179.9999, 0, 0.5, true, 0.05},
		{"exactly 180 vs -180", 1, 180, -180, 0, 0.1, true, 0.001},
		{"wide cells", 50, 179.8, -179.8, 10, 60, true, 60},
		{"out of radius", 1, 179.9, -179.9, 0, 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewSpatialHashGrid(tt.cellKm)
			grid.Insert("p", tt.queryLat, tt.pointLng, nil)

			got, ok := grid.Nearest(tt.queryLat, tt.queryLng, tt.radiusKm)
			if ok != tt.wantFound {
				t.Fatalf("found = %v, want %v", ok, tt.wantFound)
			}
			if ok && got.DistanceKm > tt.wantWithin {
				t.Errorf("distance = %.4fkm, want <= %.4fkm", got.DistanceKm, tt.wantWithin)
			}
		})
	}
}

func TestSpatialHashGrid_HugeRadiusNoDuplicates(t *testing.T) {
	t.Parallel()

	grid := NewSpatialHashGrid(500)
	grid.Insert("a", 0, 10, nil)
	grid.Insert("b", 0, -170, nil)
	if n := len(grid.QueryNearby(0, 0, 25000)); n != 2 {
		t.Errorf("QueryNearby returned %d entries, want 2", n)
	}
}

func TestSpatialHashGrid_Concurrent(t *testing.T) {
	t.Parallel()

	grid := NewSpatialHashGrid(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := string(rune('a'+i)) + string(rune('0'+j%10))
				grid.Insert(id, float64(i), float64(j%10)/100, nil)
				grid.QueryNearby(float64(i), 0, 5)
			}
		}(i)
	}
	wg.Wait()
	if grid.Size() != 80 {
		t.Errorf("Size() = %d, want 80", grid.Size())
	}
}

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	// Beijing to Shanghai is roughly 1067km.
	d := HaversineKm(39.9042, 116.4074, 31.2304, 121.4737)
	if math.Abs(d-1067) > 10 {
		t.Errorf("HaversineKm = %f, want ~1067", d)
	}
	if HaversineKm(10, 10, 10, 10) != 0 {
		t.Error("distance to self should be 0")
	}
}
