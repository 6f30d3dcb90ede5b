// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package config loads healthmap configuration from struct defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Backend  BackendConfig  `koanf:"backend"`
	Refresh  RefreshConfig  `koanf:"refresh"`
	Map      MapConfig      `koanf:"map"`
	Panel    PanelConfig    `koanf:"panel"`
	Geocode  GeocodeConfig  `koanf:"geocode"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Events   EventsConfig   `koanf:"events"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// BackendConfig describes the REST endpoint that serves organization snapshots.
type BackendConfig struct {
	BaseURL    string        `koanf:"base_url"`
	CustomerID string        `koanf:"customer_id"`
	Timeout    time.Duration `koanf:"timeout"`
	RetryCount int           `koanf:"retry_count"`
	// Token is sent as a bearer token when set.
	Token string `koanf:"token"`
}

// RefreshConfig controls the refresh scheduler.
type RefreshConfig struct {
	Interval time.Duration `koanf:"interval"`
	// ReadyTimeout bounds how long the first pass waits for the map. Zero waits forever.
	ReadyTimeout time.Duration `koanf:"ready_timeout"`
}

// MapConfig holds map surface and center fallback settings.
type MapConfig struct {
	FallbackLatitude  float64       `koanf:"fallback_latitude"`
	FallbackLongitude float64       `koanf:"fallback_longitude"`
	FallbackEnabled   bool          `koanf:"fallback_enabled"`
	UseIPLocation     bool          `koanf:"use_ip_location"`
	IPLocationURL     string        `koanf:"ip_location_url"`
	LocateTimeout     time.Duration `koanf:"locate_timeout"`
	HitRadiusKm       float64       `koanf:"hit_radius_km"`
	GridCellKm        float64       `koanf:"grid_cell_km"`
}

// PanelConfig controls the info panel controller.
type PanelConfig struct {
	// SettleDelay is how long after render the open guard stays held.
	SettleDelay time.Duration `koanf:"settle_delay"`
	// FadeOut delays node removal on close. Zero removes immediately.
	FadeOut time.Duration `koanf:"fade_out"`
}

// GeocodeConfig configures reverse geocoding providers and caching.
type GeocodeConfig struct {
	// Providers is the ordered provider chain: amap, nominatim.
	Providers    []string      `koanf:"providers"`
	AMapKey      string        `koanf:"amap_key"`
	AMapURL      string        `koanf:"amap_url"`
	NominatimURL string        `koanf:"nominatim_url"`
	UserAgent    string        `koanf:"user_agent"`
	Timeout      time.Duration `koanf:"timeout"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	CacheSize    int           `koanf:"cache_size"`
	// RedisAddr enables the shared second-level cache when set.
	RedisAddr string `koanf:"redis_addr"`
	// CacheDir enables an on-disk second-level cache when set and RedisAddr
	// is empty.
	CacheDir string `koanf:"cache_dir"`
	// RateLimit is requests per second per provider.
	RateLimit float64 `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS, rate limiting and API token settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// JWTSecret enables bearer token auth on the API when non-empty.
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// AuthEnabled reports whether API requests require a token.
func (s SecurityConfig) AuthEnabled() bool {
	return s.JWTSecret != ""
}

// EventsConfig controls the outbound event stream. Events are off unless
// NATSURL is set or Embedded is true.
type EventsConfig struct {
	NATSURL      string `koanf:"nats_url"`
	Embedded     bool   `koanf:"embedded"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"`
	// TopicPrefix is prepended to every event type, e.g. healthmap.refresh_completed.
	TopicPrefix string `koanf:"topic_prefix"`
}

// Enabled reports whether any transport is configured.
func (e EventsConfig) Enabled() bool {
	return e.NATSURL != "" || e.Embedded
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
