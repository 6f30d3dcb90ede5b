// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeLayerSource      = "layer_source"
	MessageTypeMapCenter        = "map_center"
	MessageTypeAnimationRestart = "animation_restart"
	MessageTypePanelOpen        = "panel_open"
	MessageTypePanelPatch       = "panel_patch"
	MessageTypePanelClose       = "panel_close"
	MessageTypeRefreshCompleted = "refresh_completed"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeResync           = "resync"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Key  string      `json:"key,omitempty"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	retained   map[string]Message
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		retained:   make(map[string]Message),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// Shutdown is checked first, then client lifecycle events, then broadcasts,
// so a client is always registered before it can miss a message.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// addClient registers client and replays retained state to it.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	replay := h.retainedLocked()
	total := len(h.clients)
	h.mu.Unlock()

	for _, msg := range replay {
		select {
		case client.send <- msg:
		default:
			// A fresh client buffer only overflows with very many retained keys.
			logging.Warn().Uint64("client_id", client.id).Str("key", msg.Key).Msg("retained replay truncated")
		}
	}

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Int("replayed", len(replay)).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err() is
// not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// broadcastToClients sends message to every client in id order. Clients
// whose buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClientsLocked() {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		logging.Warn().Int("dropped_clients", len(toRemove)).Str("message_type", message.Type).Msg("dropped slow websocket clients")
		metrics.WSConnectionsActive.Set(float64(len(h.clients)))
	}
	metrics.WSMessagesSent.WithLabelValues(message.Type).Inc()
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClientsLocked() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnectionsActive.Set(0)
}

func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) retainedLocked() []Message {
	keys := make([]string, 0, len(h.retained))
	for k := range h.retained {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Message, 0, len(keys))
	for _, k := range keys {
		out = append(out, h.retained[k])
	}
	return out
}

// Publish broadcasts a message. A non-empty key also retains it as the
// latest state for that key.
func (h *Hub) Publish(key, messageType string, data interface{}) {
	message := Message{Type: messageType, Key: key, Data: data}
	if key != "" {
		h.mu.Lock()
		h.retained[key] = message
		h.mu.Unlock()
	}
	h.enqueue(message)
}

// Retain records state for key without broadcasting it.
func (h *Hub) Retain(key, messageType string, data interface{}) {
	h.mu.Lock()
	h.retained[key] = Message{Type: messageType, Key: key, Data: data}
	h.mu.Unlock()
}

// Forget drops retained state for key.
func (h *Hub) Forget(key string) {
	h.mu.Lock()
	delete(h.retained, key)
	h.mu.Unlock()
}

// Retained returns the retained messages in key order.
func (h *Hub) Retained() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.retainedLocked()
}

// sendTo queues msgs for one registered client without blocking. It holds
// the read lock so send cannot be closed underneath it, and reports how many
// messages were queued.
func (h *Hub) sendTo(client *Client, msgs ...Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return 0
	}
	for i, msg := range msgs {
		select {
		case client.send <- msg:
		default:
			return i
		}
	}
	return len(msgs)
}

// replayTo resends the retained state to one client.
func (h *Hub) replayTo(client *Client) int {
	h.mu.RLock()
	replay := h.retainedLocked()
	h.mu.RUnlock()
	return h.sendTo(client, replay...)
}

// BroadcastJSON sends an unretained message to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.enqueue(Message{Type: messageType, Data: data})
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
