// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package events

// Broadcaster is the WebSocket hub surface that map, panel and scheduler
// write to. *websocket.Hub satisfies it.
type Broadcaster interface {
	Publish(key, messageType string, data interface{})
	Retain(key, messageType string, data interface{})
	Forget(key string)
	BroadcastJSON(messageType string, data interface{})
}

// Tee forwards every call to the hub and mirrors each broadcast message to
// the event stream. Retain and Forget only touch hub state and are not
// published.
type Tee struct {
	Broadcaster
	events *Publisher
}

// NewTee returns b unchanged when p is nil.
func NewTee(b Broadcaster, p *Publisher) Broadcaster {
	if p == nil {
		return b
	}
	return &Tee{Broadcaster: b, events: p}
}

// Publish implements Broadcaster.
func (t *Tee) Publish(key, messageType string, data interface{}) {
	t.Broadcaster.Publish(key, messageType, data)
	t.events.BroadcastJSON(messageType, data)
}

// BroadcastJSON implements Broadcaster.
func (t *Tee) BroadcastJSON(messageType string, data interface{}) {
	t.Broadcaster.BroadcastJSON(messageType, data)
	t.events.BroadcastJSON(messageType, data)
}
