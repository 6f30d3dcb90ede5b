// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Backend.BaseURL = "https://api.example.com"
	cfg.Backend.CustomerID = "1"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative backend url", func(c *Config) { c.Backend.BaseURL = "/api" }, "BACKEND_URL"},
		{"missing customer", func(c *Config) { c.Backend.CustomerID = "" }, "BACKEND_CUSTOMER_ID"},
		{"interval too small", func(c *Config) { c.Refresh.Interval = 10 * time.Millisecond }, "REFRESH_INTERVAL"},
		{"latitude out of range", func(c *Config) { c.Map.FallbackLatitude = 91 }, "MAP_FALLBACK_LATITUDE"},
		{"zero hit radius", func(c *Config) { c.Map.HitRadiusKm = 0 }, "MAP_HIT_RADIUS_KM"},
		{"ip location without url", func(c *Config) {
			c.Map.UseIPLocation = true
			c.Map.IPLocationURL = ""
		}, "MAP_IP_LOCATION_URL"},
		{"unknown provider", func(c *Config) { c.Geocode.Providers = []string{"google"} }, "GEOCODE_PROVIDERS"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"rate limit too high", func(c *Config) { c.Security.RateLimitReqs = 1 << 20 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"events without prefix", func(c *Config) {
			c.Events.NATSURL = "nats://127.0.0.1:4222"
			c.Events.TopicPrefix = ""
		}, "EVENTS_TOPIC_PREFIX"},
		{"disabled events skip checks", func(c *Config) { c.Events.TopicPrefix = "" }, ""},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "tooshort" }, "JWT_SECRET"},
		{"jwt without ttl", func(c *Config) {
			c.Security.JWTSecret = strings.Repeat("k", 32)
			c.Security.TokenTTL = 0
		}, "TOKEN_TTL"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHasGeocodeProvider(t *testing.T) {
	cfg := validConfig()
	if !cfg.HasGeocodeProvider("nominatim") {
		t.Error("expected nominatim in default chain")
	}
	if cfg.HasGeocodeProvider("google") {
		t.Error("did not expect google in default chain")
	}
}
