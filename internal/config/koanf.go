// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"healthmap.yaml",
	"healthmap.yml",
	"/etc/healthmap/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:    "",
			CustomerID: "",
			Timeout:    15 * time.Second,
			RetryCount: 2,
		},
		Refresh: RefreshConfig{
			Interval: 60 * time.Second,
		},
		Map: MapConfig{
			FallbackEnabled: false,
			UseIPLocation:   false,
			IPLocationURL:   "http://ip-api.com/json/",
			LocateTimeout:   5 * time.Second,
			HitRadiusKm:     0.5,
			GridCellKm:      1.0,
		},
		Panel: PanelConfig{
			SettleDelay: 100 * time.Millisecond,
			FadeOut:     300 * time.Millisecond,
		},
		Geocode: GeocodeConfig{
			Providers:    []string{"amap", "nominatim"},
			AMapURL:      "https://restapi.amap.com",
			NominatimURL: "https://nominatim.openstreetmap.org",
			UserAgent:    "healthmap/1.0",
			Timeout:      5 * time.Second,
			CacheTTL:     24 * time.Hour,
			CacheSize:    4096,
			RateLimit:    1,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3868,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			TokenTTL:        24 * time.Hour,
		},
		Events: EventsConfig{
			EmbeddedHost: "127.0.0.1",
			EmbeddedPort: 4222,
			TopicPrefix:  "healthmap",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional config file and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"geocode.providers",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"backend_url":         "backend.base_url",
	"backend_customer_id": "backend.customer_id",
	"customer_id":         "backend.customer_id",
	"backend_timeout":     "backend.timeout",
	"backend_retry_count": "backend.retry_count",
	"backend_token":       "backend.token",

	"refresh_interval":      "refresh.interval",
	"refresh_ready_timeout": "refresh.ready_timeout",

	"map_fallback_latitude":  "map.fallback_latitude",
	"map_fallback_longitude": "map.fallback_longitude",
	"map_fallback_enabled":   "map.fallback_enabled",
	"map_use_ip_location":    "map.use_ip_location",
	"map_ip_location_url":    "map.ip_location_url",
	"map_locate_timeout":     "map.locate_timeout",
	"map_hit_radius_km":      "map.hit_radius_km",
	"map_grid_cell_km":       "map.grid_cell_km",

	"panel_settle_delay": "panel.settle_delay",
	"panel_fade_out":     "panel.fade_out",

	"geocode_providers":     "geocode.providers",
	"amap_key":              "geocode.amap_key",
	"geocode_amap_url":      "geocode.amap_url",
	"geocode_nominatim_url": "geocode.nominatim_url",
	"geocode_user_agent":    "geocode.user_agent",
	"geocode_timeout":       "geocode.timeout",
	"geocode_cache_ttl":     "geocode.cache_ttl",
	"geocode_cache_size":    "geocode.cache_size",
	"geocode_redis_addr":    "geocode.redis_addr",
	"geocode_cache_dir":     "geocode.cache_dir",
	"geocode_rate_limit":    "geocode.rate_limit",

	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"jwt_secret":          "security.jwt_secret",
	"token_ttl":           "security.token_ttl",

	"nats_url":            "events.nats_url",
	"nats_embedded":       "events.embedded",
	"nats_embedded_host":  "events.embedded_host",
	"nats_embedded_port":  "events.embedded_port",
	"events_topic_prefix": "events.topic_prefix",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names onto koanf paths.
// Unmapped variables return "" and are ignored.
//
//   - BACKEND_URL -> backend.base_url
//   - REFRESH_INTERVAL -> refresh.interval
//   - AMAP_KEY -> geocode.amap_key
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
