// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package models

// Kind discriminates alert features from health features.
type Kind string

// Feature kinds.
const (
	KindAlert  Kind = "alert"
	KindHealth Kind = "health"
)

// Property keys shared between projection, bucketing and the panel.
const (
	PropKind      = "kind"
	PropAlertID   = "alertId"
	PropAlertType = "alertType"
	PropSeverity  = "severity"
	PropStatus    = "status"
)

// Coordinate is a WGS84 longitude/latitude pair.
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Geometry is a GeoJSON point geometry.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Feature is a GeoJSON point feature. Features are built fresh each tick and
// never modified once published.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// NewPointFeature returns a point feature at c with the given properties.
func NewPointFeature(c Coordinate, props map[string]any) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{c.Lng, c.Lat},
		},
		Properties: props,
	}
}

// Coordinate returns the point position. ok is false for malformed geometry.
func (f Feature) Coordinate() (Coordinate, bool) {
	if len(f.Geometry.Coordinates) < 2 {
		return Coordinate{}, false
	}
	return Coordinate{Lng: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}, true
}

// Kind returns the feature kind tag.
func (f Feature) Kind() Kind {
	k, _ := f.Properties[PropKind].(Kind)
	if k == "" {
		if s, ok := f.Properties[PropKind].(string); ok {
			k = Kind(s)
		}
	}
	return k
}

// Severity returns the severity property, or "" when absent.
func (f Feature) Severity() Severity {
	switch v := f.Properties[PropSeverity].(type) {
	case Severity:
		return v
	case string:
		return Severity(v)
	}
	return ""
}

// String returns a string property or "".
func (f Feature) String(key string) string {
	switch v := f.Properties[key].(type) {
	case string:
		return v
	case Severity:
		return string(v)
	case Status:
		return string(v)
	case Kind:
		return string(v)
	}
	return ""
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features. A nil slice becomes an empty one so
// the JSON form is always an array.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// Len returns the number of features.
func (fc FeatureCollection) Len() int {
	return len(fc.Features)
}
