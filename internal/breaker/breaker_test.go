// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/healthmap/internal/metrics"
)

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := New[int]("test-open", Settings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Hour,
		MinRequests:  3,
		FailureRatio: 0.5,
	})

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %s, want open", b.State())
	}

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if !IsRejected(err) {
		t.Errorf("expected rejection, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); got != 2 {
		t.Errorf("state gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-open", "rejected")); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
}

func TestBreakerPassesResults(t *testing.T) {
	b := New[string]("test-pass", DefaultSettings())
	v, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("Execute = %q, %v", v, err)
	}
	if b.Name() != "test-pass" || b.State() != "closed" {
		t.Errorf("Name/State = %s/%s", b.Name(), b.State())
	}
}
