// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/healthmap/internal/auth"
	"github.com/tomtom215/healthmap/internal/logging"
)

func TestMemoryStoreEvictsOldest(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := s.Save(ctx, &Event{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	got, _ := s.Query(ctx, QueryFilter{})
	if got[0].ID != "d" || got[2].ID != "b" {
		t.Errorf("order = %v,%v,%v", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestMemoryStoreQuery(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Save(ctx, &Event{ID: "1", Type: EventTypeRefreshForced, Timestamp: base})
	_ = s.Save(ctx, &Event{ID: "2", Type: EventTypePanelClosed, Timestamp: base.Add(time.Minute)})
	_ = s.Save(ctx, &Event{ID: "3", Type: EventTypeRefreshForced, Timestamp: base.Add(2 * time.Minute)})

	tests := []struct {
		name   string
		filter QueryFilter
		want   []string
	}{
		{"all", QueryFilter{}, []string{"3", "2", "1"}},
		{"by type", QueryFilter{Types: []EventType{EventTypeRefreshForced}}, []string{"3", "1"}},
		{"since", QueryFilter{Since: base.Add(time.Minute)}, []string{"3", "2"}},
		{"limit", QueryFilter{Limit: 1}, []string{"3"}},
		{"no match", QueryFilter{Types: []EventType{EventTypeAuthFailure}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("event %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestRecordCapturesActor(t *testing.T) {
	store := NewMemoryStore(10)
	l := NewLogger(store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	ctx := auth.ContextWithClaims(req.Context(), &auth.Claims{Role: "admin"})
	ctx = logging.ContextWithRequestID(ctx, "req-1")
	req = req.WithContext(ctx)

	l.Record(req, EventTypeRefreshForced, OutcomeSuccess, "Manual refresh", map[string]string{"pass_id": "p1"})

	got, _ := store.Query(context.Background(), QueryFilter{})
	if len(got) != 1 {
		t.Fatalf("stored %d events", len(got))
	}
	e := got[0]
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("id/timestamp not filled: %+v", e)
	}
	if e.Actor.RemoteIP != "10.1.2.3" || e.Actor.Role != "admin" {
		t.Errorf("actor = %+v", e.Actor)
	}
	if e.RequestID != "req-1" || e.Details["pass_id"] != "p1" {
		t.Errorf("event = %+v", e)
	}
}

func TestNilLoggerIsNoop(t *testing.T) {
	var l *Logger
	l.Log(context.Background(), &Event{Type: EventTypePanelClosed})
}
