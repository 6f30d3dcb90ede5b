// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/healthmap/internal/breaker"
	"github.com/tomtom215/healthmap/internal/cache"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/metrics"
	"github.com/tomtom215/healthmap/internal/models"
)

// SharedCache is a second-level cache such as RedisCache.
type SharedCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, address string) error
}

type guardedProvider struct {
	Provider
	cb *breaker.Breaker[string]
}

// Resolver tries caches and then each provider in order.
type Resolver struct {
	providers []guardedProvider
	memory    *cache.LRUCache[string]
	shared    SharedCache
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithSharedCache adds a second-level cache.
func WithSharedCache(c SharedCache) ResolverOption {
	return func(r *Resolver) {
		r.shared = c
	}
}

// WithMemoryCache sets the in-process cache size and TTL.
func WithMemoryCache(size int, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.memory = cache.NewLRUCache[string](size, ttl)
	}
}

// WithBreakerSettings replaces the per-provider breaker settings.
func WithBreakerSettings(s breaker.Settings) ResolverOption {
	return func(r *Resolver) {
		for i := range r.providers {
			r.providers[i].cb = breaker.New[string]("geocode-"+r.providers[i].Name(), s)
		}
	}
}

// NewResolver builds a chain over providers.
func NewResolver(providers []Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		memory: cache.NewLRUCache[string](4096, 24*time.Hour),
	}
	for _, p := range providers {
		r.providers = append(r.providers, guardedProvider{
			Provider: p,
			cb:       breaker.New[string]("geocode-"+p.Name(), breaker.DefaultSettings()),
		})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reverse implements ReverseGeocoder.
func (r *Resolver) Reverse(ctx context.Context, c models.Coordinate) (string, error) {
	key := cacheKey(c)

	if addr, ok := r.memory.Get(key); ok {
		metrics.GeocodeCacheHits.WithLabelValues("memory").Inc()
		return addr, nil
	}
	if addr, ok := r.tryShared(ctx, key); ok {
		r.memory.Add(key, addr)
		return addr, nil
	}

	addr, err := r.tryProviders(ctx, c)
	if err != nil {
		return "", err
	}
	r.store(ctx, key, addr)
	return addr, nil
}

func (r *Resolver) tryShared(ctx context.Context, key string) (string, bool) {
	if r.shared == nil {
		return "", false
	}
	addr, ok, err := r.shared.Get(ctx, key)
	if err != nil {
		logging.Debug().Err(err).Str("key", key).Msg("Shared geocode cache read failed")
		return "", false
	}
	if ok {
		metrics.GeocodeCacheHits.WithLabelValues("redis").Inc()
	}
	return addr, ok
}

func (r *Resolver) tryProviders(ctx context.Context, c models.Coordinate) (string, error) {
	var lastErr error
	for _, p := range r.providers {
		start := time.Now()
		addr, err := p.cb.Execute(func() (string, error) {
			return p.Reverse(ctx, c)
		})
		metrics.RecordGeocode(p.Name(), time.Since(start), err)
		if err != nil {
			logging.Debug().Err(err).Str("provider", p.Name()).
				Float64("lng", c.Lng).Float64("lat", c.Lat).
				Msg("Reverse geocode provider failed")
			lastErr = err
			continue
		}
		return addr, nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("all reverse geocode providers failed for %s: %w", cacheKey(c), lastErr)
	}
	return "", ErrNoProviders
}

func (r *Resolver) store(ctx context.Context, key, addr string) {
	r.memory.Add(key, addr)
	if r.shared == nil {
		return
	}
	if err := r.shared.Set(ctx, key, addr); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Failed to write shared geocode cache")
	}
}
