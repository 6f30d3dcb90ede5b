// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package events publishes engine events (refresh passes and the like) to a
// watermill transport so systems outside the dashboard can follow the map
// state without a WebSocket connection.
package events

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/healthmap/internal/breaker"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/metrics"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event publisher is closed")

// Metadata keys set on every message.
const (
	MetadataType   = "event_type"
	MetadataSource = "source"
)

// Publisher sends JSON events through a watermill publisher behind a
// circuit breaker.
type Publisher struct {
	pub    message.Publisher
	prefix string
	cb     *breaker.Breaker[struct{}]

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps an existing watermill publisher. Topics are
// prefix + "." + event type.
func NewPublisher(pub message.Publisher, prefix string) *Publisher {
	return &Publisher{
		pub:    pub,
		prefix: prefix,
		cb:     breaker.New[struct{}]("event-publisher", breaker.DefaultSettings()),
	}
}

// NewNATSPublisher connects to a NATS server. Events go out on core NATS
// subjects; consumers that need durability attach their own stream.
func NewNATSPublisher(url, prefix string, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("healthmap"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return NewPublisher(pub, prefix), nil
}

// Topic returns the topic an event type is published on.
func (p *Publisher) Topic(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Publish encodes data as JSON and publishes it.
func (p *Publisher) Publish(eventType string, data interface{}) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataType, eventType)
	msg.Metadata.Set(MetadataSource, "healthmap")

	topic := p.Topic(eventType)
	_, err = p.cb.Execute(func() (struct{}, error) {
		return struct{}{}, p.pub.Publish(topic, msg)
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.EventsPublished.WithLabelValues(eventType, "ok").Inc()
	return nil
}

// BroadcastJSON publishes and logs failures, so a Publisher can sit next to
// the WebSocket hub as a refresh notifier.
func (p *Publisher) BroadcastJSON(eventType string, data interface{}) {
	if err := p.Publish(eventType, data); err != nil {
		logging.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pub.Close()
}
