// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package models

import "time"

// Record is a backend record as decoded from JSON. Keys are kept as sent so
// that every camelCase and snake_case alias survives until normalization.
type Record map[string]any

// First returns the value of the first key present in r with a non-nil value.
func (r Record) First(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Snapshot is the combined alert and telemetry state of one organization at
// one poll tick.
type Snapshot struct {
	Alerts    []Record  `json:"alerts"`
	Telemetry []Record  `json:"telemetry"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Selection is the department and user filter chosen in the dashboard. An
// empty field means no filtering on that dimension.
type Selection struct {
	DeptID string `json:"deptId"`
	UserID string `json:"userId"`
}

// IsZero reports whether the selection filters nothing.
func (s Selection) IsZero() bool {
	return s.DeptID == "" && s.UserID == ""
}

// AlertRecord is the canonical form of an alert after alias resolution.
// Pointer fields are nil when no alias was present.
type AlertRecord struct {
	ID             string   `json:"alertId,omitempty"`
	Type           string   `json:"alertType,omitempty"`
	Severity       Severity `json:"severity,omitempty"`
	Status         Status   `json:"status,omitempty"`
	DeptID         string   `json:"deptId,omitempty"`
	DeptName       string   `json:"deptName,omitempty"`
	UserID         string   `json:"userId,omitempty"`
	UserName       string   `json:"userName,omitempty"`
	DeviceSN       string   `json:"deviceSn,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Timestamp      string   `json:"timestamp,omitempty"`
	Description    string   `json:"description,omitempty"`
	HealthRecordID string   `json:"healthRecordId,omitempty"`
}

// TelemetryRecord is the canonical form of a health telemetry sample.
type TelemetryRecord struct {
	DeviceSN    string   `json:"deviceSn,omitempty"`
	UserID      string   `json:"userId,omitempty"`
	UserName    string   `json:"userName,omitempty"`
	DeptID      string   `json:"deptId,omitempty"`
	DeptName    string   `json:"deptName,omitempty"`
	HeartRate   *float64 `json:"heartRate,omitempty"`
	BloodOxygen *float64 `json:"bloodOxygen,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Systolic    *float64 `json:"pressureHigh,omitempty"`
	Diastolic   *float64 `json:"pressureLow,omitempty"`
	Steps       *float64 `json:"step,omitempty"`
	Calories    *float64 `json:"calorie,omitempty"`
	Distance    *float64 `json:"distance,omitempty"`
	Stress      *float64 `json:"stress,omitempty"`
	Sleep       any      `json:"sleepData,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
}
