// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/healthmap/internal/models"
)

func TestBadgerCache_RoundTrip(t *testing.T) {
	c, err := OpenBadgerCache("", time.Hour)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "120.00000,30.00000"); err != nil || ok {
		t.Fatalf("empty cache Get = ok %v, err %v", ok, err)
	}
	if err := c.Set(ctx, "120.00000,30.00000", "Xihu District"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, "120.00000,30.00000")
	if err != nil || !ok || got != "Xihu District" {
		t.Errorf("Get = %q, %v, %v", got, ok, err)
	}
}

func TestBadgerCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := OpenBadgerCache(dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Set(ctx, "k", "Pudong"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = OpenBadgerCache(dir, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	if got, ok, _ := c.Get(ctx, "k"); !ok || got != "Pudong" {
		t.Errorf("after reopen Get = %q, %v", got, ok)
	}
}

func TestResolver_UsesBadgerAsSharedCache(t *testing.T) {
	c, err := OpenBadgerCache("", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	p := &stubProvider{name: "stub", addr: "Binjiang"}
	pos := models.Coordinate{Lng: 120.21, Lat: 30.21}
	first := NewResolver([]Provider{p}, WithSharedCache(c))
	if _, err := first.Reverse(context.Background(), pos); err != nil {
		t.Fatal(err)
	}

	// A fresh resolver has an empty memory cache but shares the disk cache.
	second := NewResolver([]Provider{p}, WithSharedCache(c))
	got, err := second.Reverse(context.Background(), pos)
	if err != nil || got != "Binjiang" {
		t.Fatalf("Reverse = %q, %v", got, err)
	}
	if n := p.calls.Load(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}
