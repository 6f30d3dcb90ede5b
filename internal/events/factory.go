// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package events

import (
	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/logging"
)

// NewFromConfig starts the embedded server when configured and connects a
// publisher. It returns a nil publisher when events are disabled. The
// cleanup closes the publisher and then the server.
func NewFromConfig(cfg config.EventsConfig) (*Publisher, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}

	url := cfg.NATSURL
	var embedded *EmbeddedServer
	if cfg.Embedded {
		var err error
		embedded, err = StartEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort)
		if err != nil {
			return nil, func() {}, err
		}
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("Embedded NATS server started")
	}

	pub, err := NewNATSPublisher(url, cfg.TopicPrefix, nil)
	if err != nil {
		if embedded != nil {
			embedded.Shutdown()
		}
		return nil, func() {}, err
	}
	logging.Info().Str("url", url).Str("prefix", cfg.TopicPrefix).Msg("Event publisher connected")

	cleanup := func() {
		if err := pub.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event publisher")
		}
		if embedded != nil {
			embedded.Shutdown()
		}
	}
	return pub, cleanup, nil
}
