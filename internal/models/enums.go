// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package models

import "strings"

// UnknownLabel is shown for severity or status values outside the closed sets.
const UnknownLabel = "unknown"

// Severity is an alert severity.
type Severity string

// Known severities.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityLabels = map[Severity]string{
	SeverityCritical: "Critical",
	SeverityHigh:     "High",
	SeverityMedium:   "Medium",
	SeverityLow:      "Low",
}

// ParseSeverity normalizes case and whitespace. Unrecognized input is kept
// verbatim so it can still be reported; use Known to test membership.
func ParseSeverity(s string) Severity {
	norm := Severity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := severityLabels[norm]; ok {
		return norm
	}
	return Severity(s)
}

// Known reports whether s is one of the four defined severities.
func (s Severity) Known() bool {
	_, ok := severityLabels[s]
	return ok
}

// Prominent reports whether s is critical, high or medium. Map centering
// prefers alerts with a prominent severity.
func (s Severity) Prominent() bool {
	return s == SeverityCritical || s == SeverityHigh || s == SeverityMedium
}

// Label returns a display label, or UnknownLabel.
func (s Severity) Label() string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return UnknownLabel
}

// Status is an alert handling status.
type Status string

// Known statuses. The backend also sends legacy numeric codes.
const (
	StatusPending   Status = "pending"
	StatusResponded Status = "responded"
	StatusResolved  Status = "resolved"

	StatusLegacyPending   Status = "1"
	StatusLegacyResponded Status = "2"
	StatusLegacyResolved  Status = "3"
)

var statusCanonical = map[Status]Status{
	StatusPending:         StatusPending,
	StatusResponded:       StatusResponded,
	StatusResolved:        StatusResolved,
	StatusLegacyPending:   StatusPending,
	StatusLegacyResponded: StatusResponded,
	StatusLegacyResolved:  StatusResolved,
}

var statusLabels = map[Status]string{
	StatusPending:   "Pending",
	StatusResponded: "Responded",
	StatusResolved:  "Resolved",
}

// Canonical maps legacy codes to their named status. Unknown values are
// returned unchanged.
func (s Status) Canonical() Status {
	if c, ok := statusCanonical[s]; ok {
		return c
	}
	return s
}

// Actionable reports whether an alert in this status belongs on the map.
// Only pending alerts, in either spelling, qualify.
func (s Status) Actionable() bool {
	return s == StatusPending || s == StatusLegacyPending
}

// Label returns a display label, or UnknownLabel.
func (s Status) Label() string {
	if l, ok := statusLabels[s.Canonical()]; ok {
		return l
	}
	return UnknownLabel
}
