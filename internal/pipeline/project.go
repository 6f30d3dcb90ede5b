// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package pipeline

import (
	"github.com/tomtom215/healthmap/internal/models"
)

// Project turns filtered records into point features. A record is projected
// only when both longitude and latitude are present and numeric; a zero
// coordinate is a real position and is kept.
func Project(f Filtered) []models.Feature {
	features := make([]models.Feature, 0, f.Len())
	for _, r := range f.Alerts {
		if feat, ok := ProjectAlert(NormalizeAlert(r)); ok {
			features = append(features, feat)
		}
	}
	for _, r := range f.Telemetry {
		if feat, ok := ProjectTelemetry(NormalizeTelemetry(r)); ok {
			features = append(features, feat)
		}
	}
	return features
}

// ProjectAlert builds an alert feature. ok is false without a full coordinate pair.
func ProjectAlert(a models.AlertRecord) (models.Feature, bool) {
	if a.Longitude == nil || a.Latitude == nil {
		return models.Feature{}, false
	}
	props := map[string]any{
		models.PropKind: string(models.KindAlert),
		"severityLabel": a.Severity.Label(),
		"statusLabel":   a.Status.Label(),
	}
	putString(props, models.PropAlertID, a.ID)
	putString(props, models.PropAlertType, a.Type)
	putString(props, models.PropSeverity, string(a.Severity))
	putString(props, models.PropStatus, string(a.Status.Canonical()))
	putString(props, "deptId", a.DeptID)
	putString(props, "deptName", a.DeptName)
	putString(props, "userId", a.UserID)
	putString(props, "userName", a.UserName)
	putString(props, "deviceSn", a.DeviceSN)
	putString(props, "timestamp", a.Timestamp)
	putString(props, "description", a.Description)
	putString(props, "healthRecordId", a.HealthRecordID)

	c := models.Coordinate{Lng: *a.Longitude, Lat: *a.Latitude}
	return models.NewPointFeature(c, props), true
}

// ProjectTelemetry builds a health feature. ok is false without a full coordinate pair.
func ProjectTelemetry(t models.TelemetryRecord) (models.Feature, bool) {
	if t.Longitude == nil || t.Latitude == nil {
		return models.Feature{}, false
	}
	props := map[string]any{
		models.PropKind: string(models.KindHealth),
	}
	putString(props, "deviceSn", t.DeviceSN)
	putString(props, "userId", t.UserID)
	putString(props, "userName", t.UserName)
	putString(props, "deptId", t.DeptID)
	putString(props, "deptName", t.DeptName)
	putString(props, "timestamp", t.Timestamp)
	putFloat(props, string(FieldHeartRate), t.HeartRate)
	putFloat(props, string(FieldBloodOxygen), t.BloodOxygen)
	putFloat(props, string(FieldTemperature), t.Temperature)
	putFloat(props, string(FieldSystolic), t.Systolic)
	putFloat(props, string(FieldDiastolic), t.Diastolic)
	putFloat(props, string(FieldSteps), t.Steps)
	putFloat(props, string(FieldCalories), t.Calories)
	putFloat(props, string(FieldDistance), t.Distance)
	putFloat(props, string(FieldStress), t.Stress)
	if t.Sleep != nil {
		props[string(FieldSleep)] = t.Sleep
	}

	c := models.Coordinate{Lng: *t.Longitude, Lat: *t.Latitude}
	return models.NewPointFeature(c, props), true
}

// putString skips empty values so absent fields stay absent.
func putString(props map[string]any, key, v string) {
	if v != "" {
		props[key] = v
	}
}

func putFloat(props map[string]any, key string, v *float64) {
	if v != nil {
		props[key] = *v
	}
}
