// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package api

import (
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/panel"
)

// ClickRequest is a map click in geographic coordinates. Pointers keep 0
// distinguishable from absent.
type ClickRequest struct {
	Lng *float64 `json:"lng" validate:"required,longitude"`
	Lat *float64 `json:"lat" validate:"required,latitude"`
}

// Coordinate converts a validated request.
func (c ClickRequest) Coordinate() models.Coordinate {
	return models.Coordinate{Lng: *c.Lng, Lat: *c.Lat}
}

// SelectionRequest replaces the dashboard department/user selection. Empty
// strings clear a filter.
type SelectionRequest struct {
	DeptID string `json:"deptId" validate:"omitempty,max=64"`
	UserID string `json:"userId" validate:"omitempty,max=64"`
}

// Selection converts a validated request.
func (s SelectionRequest) Selection() models.Selection {
	return models.Selection{DeptID: s.DeptID, UserID: s.UserID}
}

// CloseRequest closes the open panel.
type CloseRequest struct {
	Reason string `json:"reason" validate:"required,oneof=button backdrop map_click"`
}

// CloseReason converts a validated request.
func (c CloseRequest) CloseReason() panel.CloseReason {
	return panel.CloseReason(c.Reason)
}
