// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/models"
)

// NewFromConfig builds the reverse geocoding chain. Redis takes precedence
// over the on-disk cache. The returned cleanup closes whichever was opened.
func NewFromConfig(ctx context.Context, cfg config.GeocodeConfig) (*Resolver, func()) {
	var providers []Provider
	for _, name := range cfg.Providers {
		switch name {
		case "amap":
			if cfg.AMapKey == "" {
				logging.Warn().Msg("AMap provider configured without AMAP_KEY, skipping")
				continue
			}
			providers = append(providers, NewAMapProvider(cfg.AMapURL, cfg.AMapKey, cfg.Timeout, cfg.RateLimit))
		case "nominatim":
			providers = append(providers, NewNominatimProvider(cfg.NominatimURL, cfg.UserAgent, cfg.Timeout, cfg.RateLimit))
		}
	}

	opts := []ResolverOption{WithMemoryCache(cfg.CacheSize, cfg.CacheTTL)}
	cleanup := func() {}

	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			// The shared cache is optional; run on the memory cache alone.
			logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis geocode cache unreachable, continuing without it")
			_ = client.Close()
		} else {
			rc := NewRedisCache(client, cfg.CacheTTL)
			opts = append(opts, WithSharedCache(rc))
			cleanup = func() {
				if err := rc.Close(); err != nil {
					logging.Warn().Err(err).Msg("Failed to close Redis geocode cache")
				}
			}
		}
	case cfg.CacheDir != "":
		bc, err := OpenBadgerCache(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			logging.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("On-disk geocode cache unavailable, continuing without it")
			break
		}
		opts = append(opts, WithSharedCache(bc))
		cleanup = func() {
			if err := bc.Close(); err != nil {
				logging.Warn().Err(err).Msg("Failed to close on-disk geocode cache")
			}
		}
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	logging.Info().
		Strs("providers", names).
		Bool("redis", cfg.RedisAddr != "").
		Bool("disk_cache", cfg.RedisAddr == "" && cfg.CacheDir != "").
		Msg("Reverse geocoder initialized")

	return NewResolver(providers, opts...), cleanup
}

// NewLocatorFromConfig returns the device locator chain, or nil when device
// location is disabled.
func NewLocatorFromConfig(cfg config.MapConfig) Locator {
	var chain ChainLocator
	if cfg.UseIPLocation {
		chain = append(chain, NewIPLocator(cfg.IPLocationURL, cfg.LocateTimeout))
	}
	if cfg.FallbackEnabled {
		chain = append(chain, StaticLocator{Position: models.Coordinate{
			Lng: cfg.FallbackLongitude,
			Lat: cfg.FallbackLatitude,
		}})
	}
	if len(chain) == 0 {
		return nil
	}
	return chain
}
