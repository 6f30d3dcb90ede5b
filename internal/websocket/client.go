// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// maxUnknownFrames is how many unrecognized frames a client may send
	// before the connection is closed.
	maxUnknownFrames = 8
)

// clientIDCounter gives clients a stable broadcast order.
var clientIDCounter atomic.Uint64

// Client is one connected dashboard.
type Client struct {
	id     uint64
	remote string
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
}

// NewClient creates a client for conn. remote is used in logs only.
func NewClient(hub *Hub, conn *websocket.Conn, remote string) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		remote: remote,
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 256),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump handles inbound frames until the connection fails. Dashboards
// send ping and resync; a client that keeps sending anything else is cut off.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Str("remote", c.remote).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	unknown := 0
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Str("remote", c.remote).Msg("unexpected websocket close")
			}
			return
		}

		switch msg.Type {
		case MessageTypePing:
			metrics.WSMessagesReceived.WithLabelValues(msg.Type).Inc()
			c.hub.sendTo(c, Message{Type: MessageTypePong})
		case MessageTypeResync:
			metrics.WSMessagesReceived.WithLabelValues(msg.Type).Inc()
			n := c.hub.replayTo(c)
			logging.Debug().Str("remote", c.remote).Int("replayed", n).Msg("dashboard resync")
		default:
			metrics.WSMessagesReceived.WithLabelValues("unknown").Inc()
			unknown++
			logging.Warn().
				Str("remote", c.remote).
				Str("type", msg.Type).
				Int("count", unknown).
				Msg("unexpected dashboard frame")
			if unknown >= maxUnknownFrames {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unexpected frames"),
					time.Now().Add(writeWait))
				return
			}
		}
	}
}

// writePump writes hub messages and keepalive pings until send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Debug().Err(err).Str("remote", c.remote).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start registers the client with its hub and begins pumping.
func (c *Client) Start() {
	c.hub.Register <- c
	go c.writePump()
	go c.readPump()
}
