// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/tomtom215/healthmap/internal/api"
	"github.com/tomtom215/healthmap/internal/audit"
	"github.com/tomtom215/healthmap/internal/auth"
	"github.com/tomtom215/healthmap/internal/authz"
	"github.com/tomtom215/healthmap/internal/config"
	"github.com/tomtom215/healthmap/internal/logging"
)

var validRoles = map[string]bool{"viewer": true, "operator": true, "admin": true}

func newTokenCmd() *cobra.Command {
	var subject, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !validRoles[role] {
				return fmt.Errorf("unknown role %q (want viewer, operator or admin)", role)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Security.AuthEnabled() {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			tokens, err := auth.NewManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
			if err != nil {
				return err
			}
			token, err := tokens.Generate(subject, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "dashboard", "Token subject")
	cmd.Flags().StringVar(&role, "role", "viewer", "Role: viewer, operator or admin")
	return cmd
}

// accessControl returns the router options that enforce bearer tokens, or
// none when no secret is configured. Rejections go to the audit trail.
func accessControl(sec config.SecurityConfig, trail *audit.Logger) ([]api.RouterOption, error) {
	if !sec.AuthEnabled() {
		logging.Warn().Msg("JWT_SECRET not set; API is open to anyone who can reach it")
		return nil, nil
	}
	tokens, err := auth.NewManager(sec.JWTSecret, sec.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configure API auth: %w", err)
	}
	policy, err := authz.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("load access policy: %w", err)
	}
	tokens.OnFailure(func(r *http.Request, err error) {
		trail.Record(r, audit.EventTypeAuthFailure, audit.OutcomeFailure, "Rejected API token",
			map[string]string{"path": r.URL.Path, "error": err.Error()})
	})
	policy.OnDenied(func(r *http.Request, role string) {
		trail.Record(r, audit.EventTypeAuthzDenied, audit.OutcomeFailure, "Request denied by role policy",
			map[string]string{"path": r.URL.Path, "method": r.Method, "role": role})
	})
	logging.Info().Dur("token_ttl", sec.TokenTTL).Msg("API bearer token auth enabled")
	return []api.RouterOption{api.WithAccessControl(tokens, policy)}, nil
}
