// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/tomtom215/healthmap/internal/models"
)

type stubProvider struct {
	name  string
	addr  string
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Reverse(context.Context, models.Coordinate) (string, error) {
	s.calls.Add(1)
	return s.addr, s.err
}

func TestResolverFallsThroughProviders(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("quota exceeded")}
	second := &stubProvider{name: "second", addr: "Harbor Road 3"}
	r := NewResolver([]Provider{first, second})

	addr, err := r.Reverse(context.Background(), models.Coordinate{Lng: 113.26, Lat: 23.13})
	if err != nil || addr != "Harbor Road 3" {
		t.Fatalf("Reverse = %q, %v", addr, err)
	}

	// Second lookup for a nearby (same rounded) position is served from memory.
	if _, err := r.Reverse(context.Background(), models.Coordinate{Lng: 113.260001, Lat: 23.130001}); err != nil {
		t.Fatal(err)
	}
	if first.calls.Load() != 1 || second.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls.Load(), second.calls.Load())
	}
}

func TestResolverAllFail(t *testing.T) {
	boom := errors.New("boom")
	r := NewResolver([]Provider{&stubProvider{name: "only", err: boom}})
	if _, err := r.Reverse(context.Background(), models.Coordinate{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}

	empty := NewResolver(nil)
	if _, err := empty.Reverse(context.Background(), models.Coordinate{}); !errors.Is(err, ErrNoProviders) {
		t.Errorf("err = %v, want ErrNoProviders", err)
	}
}

func TestResolverSharedRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	shared := NewRedisCache(client, time.Hour)
	defer shared.Close()

	p := &stubProvider{name: "p", addr: "Shared Street 1"}
	pos := models.Coordinate{Lng: 2.35, Lat: 48.85}

	writer := NewResolver([]Provider{p}, WithSharedCache(shared))
	if _, err := writer.Reverse(context.Background(), pos); err != nil {
		t.Fatal(err)
	}
	if got, err := mr.Get(redisKeyPrefix + cacheKey(pos)); err != nil || got != "Shared Street 1" {
		t.Fatalf("redis value = %q, %v", got, err)
	}
	if ttl := mr.TTL(redisKeyPrefix + cacheKey(pos)); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	// A fresh resolver (new process) hits Redis instead of the provider.
	reader := NewResolver([]Provider{p}, WithSharedCache(shared))
	addr, err := reader.Reverse(context.Background(), pos)
	if err != nil || addr != "Shared Street 1" {
		t.Errorf("Reverse = %q, %v", addr, err)
	}
	if p.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", p.calls.Load())
	}
}

func TestResolverSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	shared := NewRedisCache(client, time.Hour)
	defer shared.Close()
	mr.Close()

	p := &stubProvider{name: "p", addr: "Fallback Ave"}
	r := NewResolver([]Provider{p}, WithSharedCache(shared))
	addr, err := r.Reverse(context.Background(), models.Coordinate{Lng: 1, Lat: 1})
	if err != nil || addr != "Fallback Ave" {
		t.Errorf("Reverse = %q, %v", addr, err)
	}
}

func TestCacheKeyRounding(t *testing.T) {
	a := cacheKey(models.Coordinate{Lng: 116.4074001, Lat: 39.9042004})
	b := cacheKey(models.Coordinate{Lng: 116.4074, Lat: 39.9042})
	if a != b {
		t.Errorf("keys differ: %s vs %s", a, b)
	}
	if cacheKey(models.Coordinate{}) != "0.00000,0.00000" {
		t.Errorf("zero key = %s", cacheKey(models.Coordinate{}))
	}
}
