// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/healthmap/internal/auth"
	"github.com/tomtom215/healthmap/internal/logging"
)

// Logger writes events to the store and to the application log.
type Logger struct {
	store Store
	now   func() time.Time
}

// NewLogger creates a logger backed by store.
func NewLogger(store Store) *Logger {
	return &Logger{store: store, now: time.Now}
}

// Log fills ID, timestamp and request id, then records event.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if l == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}

	logging.Ctx(ctx).Info().
		Str("audit_id", event.ID).
		Str("audit_type", string(event.Type)).
		Str("outcome", string(event.Outcome)).
		Str("subject", event.Actor.Subject).
		Str("role", event.Actor.Role).
		Str("remote_ip", event.Actor.RemoteIP).
		Msg(event.Description)

	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("audit_id", event.ID).Msg("Failed to save audit event")
	}
}

// Record logs an event of type t for the actor behind r.
func (l *Logger) Record(r *http.Request, t EventType, outcome Outcome, description string, details map[string]string) {
	l.Log(r.Context(), &Event{
		Type:        t,
		Outcome:     outcome,
		Actor:       ActorFromRequest(r),
		Description: description,
		Details:     details,
	})
}

// Query delegates to the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// ActorFromRequest derives the actor from token claims and the remote
// address. RealIP middleware has already rewritten RemoteAddr.
func ActorFromRequest(r *http.Request) Actor {
	a := Actor{RemoteIP: r.RemoteAddr}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		a.RemoteIP = host
	}
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		a.Subject = c.Subject
		a.Role = c.Role
	}
	return a
}
