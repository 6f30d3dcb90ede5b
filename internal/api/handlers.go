// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package api exposes the sync engine over HTTP: layer state, the
// department/user selection, panel interaction, manual refresh and the
// WebSocket feed that browser dashboards render from.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/healthmap/internal/audit"
	"github.com/tomtom215/healthmap/internal/breaker"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/panel"
	"github.com/tomtom215/healthmap/internal/scheduler"
	"github.com/tomtom215/healthmap/internal/websocket"
)

// Refresher runs refresh passes on demand. *scheduler.Scheduler satisfies it.
type Refresher interface {
	RunPass(ctx context.Context) (scheduler.PassResult, error)
	Reapply(ctx context.Context) (scheduler.PassResult, error)
	LastPass() (scheduler.PassResult, bool)
}

// PanelController handles clicks and closes. *panel.Controller satisfies it.
type PanelController interface {
	Click(ctx context.Context, pos models.Coordinate) panel.ClickOutcome
	Close(reason panel.CloseReason) error
	Session() panel.Session
}

// TierReader returns the last reconciled tiers.
type TierReader interface {
	Tiers() (models.Tiers, time.Time)
}

// SelectionStore reads and replaces the selection.
type SelectionStore interface {
	Selection() models.Selection
	Set(sel models.Selection)
}

// Dependencies wires the handler to the engine.
type Dependencies struct {
	Hub       *websocket.Hub
	Tiers     TierReader
	Selection SelectionStore
	Panel     PanelController
	Refresher Refresher
	MapReady  <-chan struct{}
	// Audit records state-changing calls. Nil disables the trail.
	Audit *audit.Logger
	// AllowedOrigins gates WebSocket upgrades. "*" allows any origin.
	AllowedOrigins []string
}

// Handler serves the REST and WebSocket endpoints.
type Handler struct {
	deps      Dependencies
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{deps: deps, startTime: time.Now()}
}

// HealthResponse reports engine liveness.
type HealthResponse struct {
	Status        string                `json:"status"`
	MapReady      bool                  `json:"map_ready"`
	Clients       int                   `json:"ws_clients"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	LastPass      *scheduler.PassResult `json:"last_pass,omitempty"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "starting",
		MapReady:      h.mapReady(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
	if h.deps.Hub != nil {
		resp.Clients = h.deps.Hub.GetClientCount()
	}
	if h.deps.Refresher != nil {
		if last, ok := h.deps.Refresher.LastPass(); ok {
			resp.LastPass = &last
		}
	}
	if resp.MapReady {
		resp.Status = "ok"
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) mapReady() bool {
	if h.deps.MapReady == nil {
		return false
	}
	select {
	case <-h.deps.MapReady:
		return true
	default:
		return false
	}
}

// LayersResponse is the reconciled layer state.
type LayersResponse struct {
	Counts    map[models.Tier]int `json:"counts"`
	Total     int                 `json:"total"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
	Tiers     *models.Tiers       `json:"tiers,omitempty"`
}

// Layers handles GET /api/v1/layers. ?features=false omits the collections.
func (h *Handler) Layers(w http.ResponseWriter, r *http.Request) {
	tiers, at := h.deps.Tiers.Tiers()
	resp := LayersResponse{Counts: tiers.Counts(), Total: tiers.Total()}
	if !at.IsZero() {
		resp.UpdatedAt = &at
	}
	if r.URL.Query().Get("features") != "false" {
		resp.Tiers = &tiers
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// SelectionResponse is the selection after an update plus the pass it
// triggered, if any.
type SelectionResponse struct {
	Selection models.Selection      `json:"selection"`
	Pass      *scheduler.PassResult `json:"pass,omitempty"`
}

// GetSelection handles GET /api/v1/selection.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, SelectionResponse{Selection: h.deps.Selection.Selection()})
}

// PutSelection handles PUT /api/v1/selection. The new selection is applied
// to the last snapshot immediately when one exists.
func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sel := req.Selection()
	h.deps.Selection.Set(sel)
	h.deps.Audit.Record(r, audit.EventTypeSelectionChanged, audit.OutcomeSuccess, "Selection changed",
		map[string]string{"dept_id": sel.DeptID, "user_id": sel.UserID})

	resp := SelectionResponse{Selection: sel}
	res, err := h.deps.Refresher.Reapply(r.Context())
	switch {
	case err == nil:
		resp.Pass = &res
	case errors.Is(err, scheduler.ErrNoSnapshot):
		logging.Ctx(r.Context()).Debug().Msg("Selection stored, no snapshot to reapply yet")
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to apply selection", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// ClickResponse reports what a click did and the resulting panel state.
type ClickResponse struct {
	Outcome panel.ClickOutcome `json:"outcome"`
	Session panel.Session      `json:"session"`
}

// Click handles POST /api/v1/map/click.
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out := h.deps.Panel.Click(r.Context(), req.Coordinate())
	if out == panel.ClickFailed {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Panel could not be displayed", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, ClickResponse{Outcome: out, Session: h.deps.Panel.Session()})
}

// ClosePanel handles POST /api/v1/panel/close.
func (h *Handler) ClosePanel(w http.ResponseWriter, r *http.Request) {
	var req CloseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reason := req.CloseReason()
	if err := h.deps.Panel.Close(reason); err != nil {
		if errors.Is(err, panel.ErrNoPanel) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to close panel", nil)
		return
	}
	h.deps.Audit.Record(r, audit.EventTypePanelClosed, audit.OutcomeSuccess, "Info panel closed",
		map[string]string{"reason": string(reason)})
	respondJSON(w, r, http.StatusOK, h.deps.Panel.Session())
}

// GetPanel handles GET /api/v1/panel.
func (h *Handler) GetPanel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.deps.Panel.Session())
}

// Refresh handles POST /api/v1/refresh by running one pass inline.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Refresher.RunPass(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Manual refresh failed")
		h.deps.Audit.Record(r, audit.EventTypeRefreshForced, audit.OutcomeFailure, "Manual refresh failed",
			map[string]string{"error": err.Error()})
		if breaker.IsRejected(err) {
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Backend temporarily unavailable", nil)
			return
		}
		respondError(w, r, http.StatusBadGateway, ErrCodeExternalServiceFail, "Snapshot fetch failed", nil)
		return
	}
	h.deps.Audit.Record(r, audit.EventTypeRefreshForced, audit.OutcomeSuccess, "Manual refresh",
		map[string]string{"pass_id": res.PassID})
	respondJSON(w, r, http.StatusOK, res)
}

const maxAuditLimit = 1000

// Audit handles GET /api/v1/audit. Optional query parameters: type
// (repeatable), since (RFC 3339) and limit (default 100).
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.deps.Audit == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Audit trail is disabled", nil)
		return
	}
	q := r.URL.Query()
	filter := audit.QueryFilter{Limit: 100}
	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EventType(t))
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp", nil)
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAuditLimit {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be between 1 and 1000", nil)
			return
		}
		filter.Limit = n
	}
	events, err := h.deps.Audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to query audit trail", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, events)
}

// WebSocket handles GET /api/v1/ws.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	websocket.NewClient(h.deps.Hub, conn, r.RemoteAddr).Start()
}

// checkOrigin rejects browser upgrades from origins outside the CORS list.
// Non-browser clients that send no Origin are allowed.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.deps.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
