// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/healthmap/internal/api"
	"github.com/tomtom215/healthmap/internal/audit"
	"github.com/tomtom215/healthmap/internal/breaker"
	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/events"
	"github.com/tomtom215/healthmap/internal/geocode"
	"github.com/tomtom215/healthmap/internal/logging"
	"github.com/tomtom215/healthmap/internal/mapview"
	"github.com/tomtom215/healthmap/internal/models"
	"github.com/tomtom215/healthmap/internal/panel"
	"github.com/tomtom215/healthmap/internal/reconcile"
	"github.com/tomtom215/healthmap/internal/scheduler"
	"github.com/tomtom215/healthmap/internal/snapshot"
	"github.com/tomtom215/healthmap/internal/supervisor"
	"github.com/tomtom215/healthmap/internal/supervisor/services"
	"github.com/tomtom215/healthmap/internal/websocket"
)

func newServeCmd() *cobra.Command {
	var sel models.Selection

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync engine and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, sel)
		},
	}

	cmd.Flags().StringVar(&sel.DeptID, "dept", "", "Initial department filter")
	cmd.Flags().StringVar(&sel.UserID, "user", "", "Initial user filter")
	return cmd
}

// loadConfig loads configuration and initializes logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "healthmap",
	})
	return cfg, nil
}

func serve(parent context.Context, cfg *config.Config, sel models.Selection) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("version", version).Msg("Starting healthmap with supervisor tree")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	hub := websocket.NewHub()
	eventPub, closeEvents, err := events.NewFromConfig(cfg.Events)
	if err != nil {
		return fmt.Errorf("start event stream: %w", err)
	}
	defer closeEvents()
	out := events.NewTee(hub, eventPub)

	surface := mapview.NewSurface(out, mapview.OptionsFromConfig(cfg.Map))
	m, bindings, animator, err := mapview.Bootstrap(ctx, surface)
	if err != nil {
		return fmt.Errorf("bootstrap map: %w", err)
	}

	resolver, closeGeocoder := geocode.NewFromConfig(ctx, cfg.Geocode)
	defer closeGeocoder()

	selection := reconcile.NewSelectionStore(sel)
	state := reconcile.NewDashboardState(selection, bindings)

	var opts []reconcile.Option
	if locator := geocode.NewLocatorFromConfig(cfg.Map); locator != nil {
		opts = append(opts, reconcile.WithLocator(locator, cfg.Map.LocateTimeout))
	}
	reconciler := reconcile.NewReconciler(state, m, animator, opts...)

	fetcher := snapshot.NewBreakerClient(snapshot.NewClient(cfg.Backend), breaker.DefaultSettings())
	sched := scheduler.New(fetcher, state, reconciler, m.Ready(), out, cfg.Refresh)

	controller := panel.NewController(
		panel.NewOverlayDocument(out),
		bindings,
		resolver,
		panel.OptionsFromConfig(cfg.Panel, cfg.Geocode),
	)

	auditLog := audit.NewLogger(audit.NewMemoryStore(audit.DefaultMaxEvents))
	handler := api.NewHandler(api.Dependencies{
		Hub:            hub,
		Tiers:          state,
		Selection:      selection,
		Panel:          controller,
		Refresher:      sched,
		MapReady:       m.Ready(),
		Audit:          auditLog,
		AllowedOrigins: cfg.Security.CORSOrigins,
	})
	routerOpts, err := accessControl(cfg.Security, auditLog)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.NewRouter(handler, cfg.Security, routerOpts...),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddRefreshService(services.NewRefreshService(sched))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Dur("refresh_interval", cfg.Refresh.Interval).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for services to stop")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	controller.Wait()

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("healthmap stopped")
	return nil
}
