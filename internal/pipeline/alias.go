// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package pipeline

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/healthmap/internal/models"
)

// Field is a logical record field.
type Field string

// Logical fields resolved through the alias table.
const (
	FieldAlertID        Field = "alertId"
	FieldAlertType      Field = "alertType"
	FieldSeverity       Field = "severity"
	FieldStatus         Field = "status"
	FieldDeptID         Field = "deptId"
	FieldDeptName       Field = "deptName"
	FieldUserID         Field = "userId"
	FieldUserName       Field = "userName"
	FieldDeviceSN       Field = "deviceSn"
	FieldLongitude      Field = "longitude"
	FieldLatitude       Field = "latitude"
	FieldTimestamp      Field = "timestamp"
	FieldDescription    Field = "description"
	FieldHealthRecordID Field = "healthRecordId"
	FieldHeartRate      Field = "heartRate"
	FieldBloodOxygen    Field = "bloodOxygen"
	FieldTemperature    Field = "temperature"
	FieldSystolic       Field = "pressureHigh"
	FieldDiastolic      Field = "pressureLow"
	FieldSteps          Field = "step"
	FieldCalories       Field = "calorie"
	FieldDistance       Field = "distance"
	FieldStress         Field = "stress"
	FieldSleep          Field = "sleepData"
)

// aliasTable lists, per logical field, the source keys accepted from the
// backend in lookup order. Department and user ids have exactly two
// spellings; filtering depends on that.
var aliasTable = map[Field][]string{
	FieldAlertID:        {"alertId", "alert_id", "id"},
	FieldAlertType:      {"alertType", "alert_type"},
	FieldSeverity:       {"severityLevel", "severity_level", "severity"},
	FieldStatus:         {"alertStatus", "alert_status", "status"},
	FieldDeptID:         {"deptId", "dept_id"},
	FieldDeptName:       {"deptName", "dept_name", "orgName", "org_name"},
	FieldUserID:         {"userId", "user_id"},
	FieldUserName:       {"userName", "user_name", "realName", "real_name"},
	FieldDeviceSN:       {"deviceSn", "device_sn", "serialNumber", "serial_number"},
	FieldLongitude:      {"longitude", "lng", "lon"},
	FieldLatitude:       {"latitude", "lat"},
	FieldTimestamp:      {"alertTimestamp", "alert_timestamp", "timestamp", "createTime", "create_time"},
	FieldDescription:    {"alertDesc", "alert_desc", "description"},
	FieldHealthRecordID: {"healthId", "health_id", "healthRecordId", "health_record_id"},
	FieldHeartRate:      {"heartRate", "heart_rate", "heartrate"},
	FieldBloodOxygen:    {"bloodOxygen", "blood_oxygen"},
	FieldTemperature:    {"temperature", "bodyTemperature", "body_temperature"},
	FieldSystolic:       {"pressureHigh", "pressure_high", "systolic"},
	FieldDiastolic:      {"pressureLow", "pressure_low", "diastolic"},
	FieldSteps:          {"step", "steps"},
	FieldCalories:       {"calorie", "calories"},
	FieldDistance:       {"distance"},
	FieldStress:         {"stress"},
	FieldSleep:          {"sleepData", "sleep_data"},
}

// Aliases returns the accepted source keys for f.
func Aliases(f Field) []string {
	return aliasTable[f]
}

// Lookup resolves f against r. ok is false when no alias is present.
func Lookup(r models.Record, f Field) (any, bool) {
	return r.First(aliasTable[f]...)
}

// LookupString resolves f and coerces the value to a string.
func LookupString(r models.Record, f Field) (string, bool) {
	v, ok := Lookup(r, f)
	if !ok {
		return "", false
	}
	return coerceString(v)
}

// LookupFloat resolves f and coerces the value to a finite number.
func LookupFloat(r models.Record, f Field) (*float64, bool) {
	v, ok := Lookup(r, f)
	if !ok {
		return nil, false
	}
	n, ok := coerceFloat(v)
	if !ok {
		return nil, false
	}
	return &n, true
}

// coerceString renders ids consistently whether they arrived as JSON
// numbers or strings: 7, 7.0 and "7" all become "7".
func coerceString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// coerceFloat accepts numbers and numeric strings. Zero is a valid value;
// blank strings, NaN and infinities are not.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NormalizeAlert resolves every alert field through the alias table.
func NormalizeAlert(r models.Record) models.AlertRecord {
	var a models.AlertRecord
	a.ID, _ = LookupString(r, FieldAlertID)
	a.Type, _ = LookupString(r, FieldAlertType)
	if s, ok := LookupString(r, FieldSeverity); ok {
		a.Severity = models.ParseSeverity(s)
	}
	if s, ok := LookupString(r, FieldStatus); ok {
		a.Status = models.Status(strings.TrimSpace(s))
	}
	a.DeptID, _ = LookupString(r, FieldDeptID)
	a.DeptName, _ = LookupString(r, FieldDeptName)
	a.UserID, _ = LookupString(r, FieldUserID)
	a.UserName, _ = LookupString(r, FieldUserName)
	a.DeviceSN, _ = LookupString(r, FieldDeviceSN)
	a.Longitude, _ = LookupFloat(r, FieldLongitude)
	a.Latitude, _ = LookupFloat(r, FieldLatitude)
	a.Timestamp, _ = LookupString(r, FieldTimestamp)
	a.Description, _ = LookupString(r, FieldDescription)
	a.HealthRecordID, _ = LookupString(r, FieldHealthRecordID)
	return a
}

// NormalizeTelemetry resolves every telemetry field through the alias table.
func NormalizeTelemetry(r models.Record) models.TelemetryRecord {
	var t models.TelemetryRecord
	t.DeviceSN, _ = LookupString(r, FieldDeviceSN)
	t.UserID, _ = LookupString(r, FieldUserID)
	t.UserName, _ = LookupString(r, FieldUserName)
	t.DeptID, _ = LookupString(r, FieldDeptID)
	t.DeptName, _ = LookupString(r, FieldDeptName)
	t.HeartRate, _ = LookupFloat(r, FieldHeartRate)
	t.BloodOxygen, _ = LookupFloat(r, FieldBloodOxygen)
	t.Temperature, _ = LookupFloat(r, FieldTemperature)
	t.Systolic, _ = LookupFloat(r, FieldSystolic)
	t.Diastolic, _ = LookupFloat(r, FieldDiastolic)
	t.Steps, _ = LookupFloat(r, FieldSteps)
	t.Calories, _ = LookupFloat(r, FieldCalories)
	t.Distance, _ = LookupFloat(r, FieldDistance)
	t.Stress, _ = LookupFloat(r, FieldStress)
	t.Sleep, _ = Lookup(r, FieldSleep)
	t.Longitude, _ = LookupFloat(r, FieldLongitude)
	t.Latitude, _ = LookupFloat(r, FieldLatitude)
	t.Timestamp, _ = LookupString(r, FieldTimestamp)
	return t
}
