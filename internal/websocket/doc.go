// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

/*
Package websocket mirrors engine state to connected dashboards.

Every decision the engine makes about what the map shows (layer sources,
the map center, animation restarts and the info panel overlay) is published
to a Hub, which fans it out to browser clients over gorilla/websocket.

# Retained state

Messages published with a key are retained: a client that connects late
first receives the latest retained message for every key, in key order, and
then the live stream. Layer sources are retained per tier, the map center
under "map_center" and the open panel under "panel". Closing the panel
forgets its key so a reconnecting client does not resurrect it.

# Message format

	{"type": "layer_source", "key": "layer:critical", "data": {...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}.

# Lifecycle

RunWithContext is the supervised entry point. When its context is
canceled every client send channel is closed, which makes each writePump
send a close frame and exit.
*/
package websocket
