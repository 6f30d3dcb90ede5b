// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refresh pipeline
	RefreshPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_refresh_passes_total",
			Help: "Total number of refresh passes by result",
		},
		[]string{"result"}, // success, fetch_error, panic
	)

	RefreshPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "healthmap_refresh_pass_duration_seconds",
			Help:    "Duration of a full fetch-filter-project-bucket-reconcile pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	SnapshotRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "healthmap_snapshot_records",
			Help: "Records in the last successful snapshot",
		},
		[]string{"kind"}, // alerts, telemetry
	)

	LayerFeatures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "healthmap_layer_features",
			Help: "Features currently bound to each map layer",
		},
		[]string{"tier"},
	)

	ReconcileStepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_reconcile_step_failures_total",
			Help: "Reconciliation steps that failed or were skipped",
		},
		[]string{"step", "reason"},
	)

	MapCenterUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_map_center_updates_total",
			Help: "Map center decisions by source",
		},
		[]string{"source"}, // alert, health, device, unchanged
	)

	// Info panel
	PanelOpens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_panel_opens_total",
			Help: "Info panels opened by variant",
		},
		[]string{"variant"},
	)

	PanelCloses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_panel_closes_total",
			Help: "Info panels closed by reason",
		},
		[]string{"reason"},
	)

	PanelClicksIgnored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "healthmap_panel_clicks_ignored_total",
			Help: "Clicks dropped because a panel open was already in progress",
		},
	)

	PanelStaleGeocodes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "healthmap_panel_stale_geocodes_total",
			Help: "Geocode results discarded because their panel was gone",
		},
	)

	// Reverse geocoding
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_geocode_requests_total",
			Help: "Reverse geocode provider calls by result",
		},
		[]string{"provider", "result"},
	)

	GeocodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthmap_geocode_duration_seconds",
			Help:    "Reverse geocode provider latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	GeocodeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_geocode_cache_hits_total",
			Help: "Reverse geocode cache hits by level",
		},
		[]string{"level"}, // memory, redis
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "healthmap_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "healthmap_websocket_connections_active",
			Help: "Connected dashboard clients",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_websocket_messages_sent_total",
			Help: "Messages broadcast to dashboard clients",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_websocket_messages_received_total",
			Help: "Frames received from dashboard clients; unrecognized types count as unknown",
		},
		[]string{"type"},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "healthmap_websocket_messages_dropped_total",
			Help: "Broadcasts dropped because the hub buffer was full",
		},
	)

	// Event stream
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_events_published_total",
			Help: "Events published to the outbound stream",
		},
		[]string{"type", "result"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "healthmap_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthmap_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordRefreshPass records the outcome of one refresh pass.
func RecordRefreshPass(duration time.Duration, result string) {
	RefreshPassDuration.Observe(duration.Seconds())
	RefreshPassesTotal.WithLabelValues(result).Inc()
}

// SetSnapshotRecords publishes the size of the latest snapshot.
func SetSnapshotRecords(alerts, telemetry int) {
	SnapshotRecords.WithLabelValues("alerts").Set(float64(alerts))
	SnapshotRecords.WithLabelValues("telemetry").Set(float64(telemetry))
}

// SetLayerFeatures publishes the feature count bound to a layer.
func SetLayerFeatures(tier string, n int) {
	LayerFeatures.WithLabelValues(tier).Set(float64(n))
}

// RecordGeocode records one provider call.
func RecordGeocode(provider string, duration time.Duration, err error) {
	GeocodeDuration.WithLabelValues(provider).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	GeocodeRequests.WithLabelValues(provider, result).Inc()
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
