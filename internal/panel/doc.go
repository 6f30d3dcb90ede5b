// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

/*
Package panel implements the singleton info panel opened by map clicks.

The Controller is a two-state machine (Idle, Displaying) with an open guard:

  - A click that hits a feature while the guard is clear sets the guard,
    removes every existing overlay, renders the alert or health variant and
    schedules the guard release after the settle delay. The panel stays
    visible after the guard clears.
  - A click while the guard is held is ignored.
  - A close button, backdrop click or click on empty map removes the panel
    (optionally after a fade) and clears the guard.

When the feature has coordinates the controller resolves an address in the
background. The continuation holds the session it was started for and only
writes if that session is still current and its node still exists;
otherwise the result is dropped.

Overlay nodes live in an OverlayDocument that mirrors every change to
dashboards through the websocket hub.
*/
package panel
