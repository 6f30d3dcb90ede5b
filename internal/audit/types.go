// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package audit records who changed dashboard state through the API and
// which requests were refused.
package audit

import (
	"context"
	"time"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeAuthFailure      EventType = "auth.failure"
	EventTypeAuthzDenied      EventType = "authz.denied"
	EventTypeSelectionChanged EventType = "selection.changed"
	EventTypePanelClosed      EventType = "panel.closed"
	EventTypeRefreshForced    EventType = "refresh.forced"
)

// Outcome indicates whether an action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Actor is who performed the action. Subject and Role are empty when the
// API runs without token auth.
type Actor struct {
	Subject  string `json:"subject,omitempty"`
	Role     string `json:"role,omitempty"`
	RemoteIP string `json:"remote_ip,omitempty"`
}

// Event is one audit record.
type Event struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        EventType         `json:"type"`
	Outcome     Outcome           `json:"outcome"`
	Actor       Actor             `json:"actor"`
	Description string            `json:"description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
}

// QueryFilter selects events. Zero fields match everything.
type QueryFilter struct {
	Types []EventType
	Since time.Time
	Limit int
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
}
