// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package pipeline

import (
	"strings"

	"github.com/tomtom215/healthmap/internal/models"
)

// Filtered is the output of Filter.
type Filtered struct {
	Alerts    []models.Record
	Telemetry []models.Record
}

// Len returns the total number of records.
func (f Filtered) Len() int {
	return len(f.Alerts) + len(f.Telemetry)
}

// Filter applies the department/user selection to a snapshot and keeps only
// actionable (pending) alerts. Telemetry is filtered on selection only.
// Ids are compared as strings on both sides.
func Filter(snap models.Snapshot, sel models.Selection) Filtered {
	dept := strings.TrimSpace(sel.DeptID)
	user := strings.TrimSpace(sel.UserID)

	out := Filtered{
		Alerts:    make([]models.Record, 0, len(snap.Alerts)),
		Telemetry: make([]models.Record, 0, len(snap.Telemetry)),
	}
	for _, r := range snap.Alerts {
		if !matchesSelection(r, dept, user) {
			continue
		}
		status, _ := LookupString(r, FieldStatus)
		if !models.Status(strings.TrimSpace(status)).Actionable() {
			continue
		}
		out.Alerts = append(out.Alerts, r)
	}
	for _, r := range snap.Telemetry {
		if matchesSelection(r, dept, user) {
			out.Telemetry = append(out.Telemetry, r)
		}
	}
	return out
}

func matchesSelection(r models.Record, dept, user string) bool {
	return matchesID(r, FieldDeptID, dept) && matchesID(r, FieldUserID, user)
}

// matchesID is true when want is empty or the record's id, under either
// alias, equals want.
func matchesID(r models.Record, f Field, want string) bool {
	if want == "" {
		return true
	}
	got, ok := LookupString(r, f)
	return ok && strings.TrimSpace(got) == want
}
