// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateRefresh(); err != nil {
		return err
	}
	if err := c.validateMap(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.CustomerID == "" {
		return fmt.Errorf("BACKEND_CUSTOMER_ID is required")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.RetryCount < 0 {
		return fmt.Errorf("BACKEND_RETRY_COUNT must not be negative")
	}
	return nil
}

const minRefreshInterval = time.Second

func (c *Config) validateRefresh() error {
	if c.Refresh.Interval < minRefreshInterval {
		return fmt.Errorf("REFRESH_INTERVAL must be at least %v", minRefreshInterval)
	}
	if c.Refresh.ReadyTimeout < 0 {
		return fmt.Errorf("REFRESH_READY_TIMEOUT must not be negative")
	}
	return nil
}

func (c *Config) validateMap() error {
	if c.Map.FallbackLatitude < -90 || c.Map.FallbackLatitude > 90 {
		return fmt.Errorf("MAP_FALLBACK_LATITUDE must be between -90 and 90")
	}
	if c.Map.FallbackLongitude < -180 || c.Map.FallbackLongitude > 180 {
		return fmt.Errorf("MAP_FALLBACK_LONGITUDE must be between -180 and 180")
	}
	if c.Map.HitRadiusKm <= 0 {
		return fmt.Errorf("MAP_HIT_RADIUS_KM must be positive")
	}
	if c.Map.GridCellKm <= 0 {
		return fmt.Errorf("MAP_GRID_CELL_KM must be positive")
	}
	if c.Map.UseIPLocation && c.Map.IPLocationURL == "" {
		return fmt.Errorf("MAP_IP_LOCATION_URL is required when MAP_USE_IP_LOCATION is true")
	}
	return nil
}

var validGeocodeProviders = map[string]bool{
	"amap":      true,
	"nominatim": true,
}

func (c *Config) validateGeocode() error {
	for _, p := range c.Geocode.Providers {
		if !validGeocodeProviders[p] {
			return fmt.Errorf("GEOCODE_PROVIDERS entries must be one of: amap, nominatim (got %q)", p)
		}
	}
	if c.Geocode.CacheSize < 0 {
		return fmt.Errorf("GEOCODE_CACHE_SIZE must not be negative")
	}
	if c.Geocode.RateLimit < 0 {
		return fmt.Errorf("GEOCODE_RATE_LIMIT must not be negative")
	}
	return nil
}

// HasGeocodeProvider reports whether name is in the configured chain.
func (c *Config) HasGeocodeProvider(name string) bool {
	for _, p := range c.Geocode.Providers {
		if p == name {
			return true
		}
	}
	return false
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

const minJWTSecretLength = 32

func (c *Config) validateAuth() error {
	if !c.Security.AuthEnabled() {
		return nil
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled() {
		return nil
	}
	if c.Events.TopicPrefix == "" {
		return fmt.Errorf("EVENTS_TOPIC_PREFIX must not be empty when events are enabled")
	}
	if c.Events.Embedded && (c.Events.EmbeddedPort < -1 || c.Events.EmbeddedPort > 65535) {
		return fmt.Errorf("NATS_EMBEDDED_PORT must be between -1 and 65535")
	}
	return nil
}
