// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package cache

import (
	"math"
	"sort"
	"sync"
)

const kmPerDegree = 111.0

// SpatialHashGrid buckets points into fixed-size cells so a proximity query
// only inspects the cells around the query point.
type SpatialHashGrid struct {
	mu       sync.RWMutex
	cells    map[CellKey][]*SpatialEntry
	cellSize float64 // degrees
	lngCells int     // columns around the globe; X wraps modulo this
	entries  map[string]*SpatialEntry
}

// CellKey is a grid cell coordinate.
type CellKey struct {
	X, Y int
}

// SpatialEntry is a point stored in the grid.
type SpatialEntry struct {
	ID   string
	Lat  float64
	Lng  float64
	Data any

	// DistanceKm is filled in on query results.
	DistanceKm float64

	cellKey CellKey
}

// NewSpatialHashGrid creates a grid with cells of roughly cellSizeKm.
func NewSpatialHashGrid(cellSizeKm float64) *SpatialHashGrid {
	if cellSizeKm <= 0 {
		cellSizeKm = 1
	}
	cellSize := cellSizeKm / kmPerDegree
	return &SpatialHashGrid{
		cells:    make(map[CellKey][]*SpatialEntry),
		cellSize: cellSize,
		lngCells: int(math.Ceil(360 / cellSize)),
		entries:  make(map[string]*SpatialEntry),
	}
}

// cellKey counts X from -180 so that 180 and -180 share column 0.
func (g *SpatialHashGrid) cellKey(lat, lng float64) CellKey {
	lng = normalizeLng(lng)
	return CellKey{
		X: g.wrapX(int(math.Floor((lng + 180) / g.cellSize))),
		Y: int(math.Floor(lat / g.cellSize)),
	}
}

func (g *SpatialHashGrid) wrapX(x int) int {
	x %= g.lngCells
	if x < 0 {
		x += g.lngCells
	}
	return x
}

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}

// Insert adds or replaces the entry with the given id.
func (g *SpatialHashGrid) Insert(id string, lat, lng float64, data any) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.entries[id]; ok {
		g.removeFromCellLocked(existing)
	}

	key := g.cellKey(lat, lng)
	entry := &SpatialEntry{ID: id, Lat: lat, Lng: lng, Data: data, cellKey: key}
	g.cells[key] = append(g.cells[key], entry)
	g.entries[id] = entry
}

// Remove deletes an entry. It reports whether the id was present.
func (g *SpatialHashGrid) Remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[id]
	if !ok {
		return false
	}
	g.removeFromCellLocked(entry)
	delete(g.entries, id)
	return true
}

func (g *SpatialHashGrid) removeFromCellLocked(entry *SpatialEntry) {
	cell := g.cells[entry.cellKey]
	for i, e := range cell {
		if e.ID == entry.ID {
			cell[i] = cell[len(cell)-1]
			cell = cell[:len(cell)-1]
			break
		}
	}
	if len(cell) == 0 {
		delete(g.cells, entry.cellKey)
		return
	}
	g.cells[entry.cellKey] = cell
}

// Get returns a copy of the entry with the given id.
func (g *SpatialHashGrid) Get(id string) (*SpatialEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entry, ok := g.entries[id]
	if !ok {
		return nil, false
	}
	cp := *entry
	return &cp, true
}

// QueryNearby returns copies of all entries within radiusKm of the point,
// closest first. Ties keep insertion-independent id order.
func (g *SpatialHashGrid) QueryNearby(lat, lng, radiusKm float64) []*SpatialEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()

	center := g.cellKey(lat, lng)
	spanY := int(math.Ceil(radiusKm/kmPerDegree/g.cellSize)) + 1
	spanX := spanY
	if c := math.Cos(lat * math.Pi / 180); c > 0.01 {
		spanX = int(math.Ceil(radiusKm/(kmPerDegree*c)/g.cellSize)) + 1
	}

	// A span covering every column would visit cells twice after wrapping.
	firstX, lastX := center.X-spanX, center.X+spanX
	if 2*spanX+1 >= g.lngCells {
		firstX, lastX = 0, g.lngCells-1
	}

	var results []*SpatialEntry
	for x := firstX; x <= lastX; x++ {
		for dy := -spanY; dy <= spanY; dy++ {
			for _, entry := range g.cells[CellKey{X: g.wrapX(x), Y: center.Y + dy}] {
				d := haversineDistance(lat, lng, entry.Lat, entry.Lng)
				if d <= radiusKm {
					cp := *entry
					cp.DistanceKm = d
					results = append(results, &cp)
				}
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// Nearest returns the closest entry within radiusKm.
func (g *SpatialHashGrid) Nearest(lat, lng, radiusKm float64) (*SpatialEntry, bool) {
	results := g.QueryNearby(lat, lng, radiusKm)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// Size returns the number of entries.
func (g *SpatialHashGrid) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// NumCells returns the number of non-empty cells.
func (g *SpatialHashGrid) NumCells() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Clear removes all entries.
func (g *SpatialHashGrid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = make(map[CellKey][]*SpatialEntry)
	g.entries = make(map[string]*SpatialEntry)
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return haversineDistance(lat1, lng1, lat2, lng2)
}

func haversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
