// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/healthmap/internal/auth"
	"github.com/tomtom215/healthmap/internal/authz"
	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/middleware"
)

type routerOptions struct {
	access []func(http.Handler) http.Handler
}

// RouterOption customizes NewRouter.
type RouterOption func(*routerOptions)

// WithAccessControl requires a valid bearer token on every route except
// health, and checks the token's role against the enforcer.
func WithAccessControl(tokens *auth.Manager, policy *authz.Enforcer) RouterOption {
	return func(o *routerOptions) {
		o.access = append(o.access, tokens.Authenticate, policy.Authorize)
	}
}

// NewRouter builds the chi router for all endpoints.
func NewRouter(h *Handler, sec config.SecurityConfig, opts ...RouterOption) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(sec))
	r.Use(middleware.RequestLogger)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(securityHeaders)

		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			for _, mw := range o.access {
				r.Use(mw)
			}

			r.Get("/ws", h.WebSocket)

			r.Group(func(r chi.Router) {
				r.Use(rateLimit(sec))

				r.Get("/layers", h.Layers)
				r.Get("/selection", h.GetSelection)
				r.Put("/selection", h.PutSelection)
				r.Post("/map/click", h.Click)
				r.Get("/panel", h.GetPanel)
				r.Post("/panel/close", h.ClosePanel)
				r.Post("/refresh", h.Refresh)
				r.Get("/audit", h.Audit)
			})
		})
	})

	return r
}

func corsMiddleware(sec config.SecurityConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: sec.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})
}

func rateLimit(sec config.SecurityConfig) func(http.Handler) http.Handler {
	if sec.RateLimitDisabled || sec.RateLimitReqs <= 0 || sec.RateLimitWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		sec.RateLimitReqs,
		sec.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
