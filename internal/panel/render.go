// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package panel

import (
	"strconv"

	"github.com/tomtom215/healthmap/internal/models"
)

// Panel field names.
const (
	FieldTitle       = "title"
	FieldSeverity    = "severity"
	FieldStatus      = "status"
	FieldDept        = "dept"
	FieldUser        = "user"
	FieldDevice      = "device"
	FieldTime        = "time"
	FieldDescription = "description"
	FieldLocation    = "location"

	FieldHeartRate     = "heart_rate"
	FieldBloodOxygen   = "blood_oxygen"
	FieldTemperature   = "temperature"
	FieldBloodPressure = "blood_pressure"
	FieldSteps         = "steps"
)

// Display strings.
const (
	Placeholder         = "--"
	LocationPending     = "resolving location..."
	LocationUnavailable = "location unavailable"
)

// Classify returns the alert variant when the feature carries both an alert
// id and an alert type and is not tagged health.
func Classify(f models.Feature) Variant {
	if f.Kind() != models.KindHealth &&
		f.String(models.PropAlertID) != "" &&
		f.String(models.PropAlertType) != "" {
		return VariantAlert
	}
	return VariantHealth
}

// Render builds the panel fields for f. Missing values render as Placeholder.
func Render(f models.Feature, variant Variant) map[string]string {
	fields := map[string]string{
		FieldDept:   text(f, "deptName"),
		FieldUser:   text(f, "userName"),
		FieldDevice: text(f, "deviceSn"),
		FieldTime:   text(f, "timestamp"),
	}
	if _, ok := f.Coordinate(); ok {
		fields[FieldLocation] = LocationPending
	} else {
		fields[FieldLocation] = LocationUnavailable
	}

	switch variant {
	case VariantAlert:
		fields[FieldTitle] = text(f, models.PropAlertType)
		fields[FieldSeverity] = text(f, "severityLabel")
		fields[FieldStatus] = text(f, "statusLabel")
		fields[FieldDescription] = text(f, "description")
	default:
		fields[FieldTitle] = "Health reading"
		fields[FieldHeartRate] = number(f, "heartRate", " bpm")
		fields[FieldBloodOxygen] = number(f, "bloodOxygen", "%")
		fields[FieldTemperature] = number(f, "temperature", " °C")
		fields[FieldSteps] = number(f, "step", "")
		fields[FieldBloodPressure] = bloodPressure(f)
	}
	return fields
}

func text(f models.Feature, key string) string {
	if s := f.String(key); s != "" {
		return s
	}
	return Placeholder
}

func number(f models.Feature, key, unit string) string {
	v, ok := f.Properties[key].(float64)
	if !ok {
		return Placeholder
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + unit
}

func bloodPressure(f models.Feature) string {
	hi, okHi := f.Properties["pressureHigh"].(float64)
	lo, okLo := f.Properties["pressureLow"].(float64)
	if !okHi || !okLo {
		return Placeholder
	}
	return strconv.FormatFloat(hi, 'f', -1, 64) + "/" + strconv.FormatFloat(lo, 'f', -1, 64) + " mmHg"
}
