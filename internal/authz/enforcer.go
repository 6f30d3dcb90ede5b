// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

// Package authz maps token roles to the API routes they may call.
//
// Roles form a chain. A viewer reads layers, selection, panel state and the
// WebSocket feed. An operator may also click the map, close the panel and
// change the selection. An admin may additionally force a refresh pass and
// read the audit trail.
package authz

import (
	"bufio"
	_ "embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/healthmap/internal/auth"
	"github.com/tomtom215/healthmap/internal/logging"
)

//go:embed model.conf
var modelConf string

//go:embed policy.csv
var policyCSV string

// Enforcer wraps a casbin SyncedEnforcer loaded with the built-in policy.
type Enforcer struct {
	e        *casbin.SyncedEnforcer
	onDenied func(r *http.Request, role string)
}

// NewEnforcer builds the enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("parse casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, policyCSV); err != nil {
		return nil, err
	}
	return &Enforcer{e: e}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, csv string) error {
	sc := bufio.NewScanner(strings.NewReader(csv))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		var err error
		switch {
		case parts[0] == "p" && len(parts) == 4:
			_, err = e.AddPolicy(parts[1], parts[2], parts[3])
		case parts[0] == "g" && len(parts) == 3:
			_, err = e.AddGroupingPolicy(parts[1], parts[2])
		default:
			err = fmt.Errorf("malformed policy line %q", line)
		}
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
	}
	return sc.Err()
}

// Allowed reports whether role may call method on path.
func (e *Enforcer) Allowed(role, path, method string) bool {
	ok, err := e.e.Enforce(role, path, method)
	if err != nil {
		logging.Warn().Err(err).Str("role", role).Str("path", path).Msg("Policy evaluation failed")
		return false
	}
	return ok
}

// OnDenied registers fn to be called for every refused request. It must be
// set before the enforcer serves requests.
func (e *Enforcer) OnDenied(fn func(r *http.Request, role string)) {
	e.onDenied = fn
}

// Authorize rejects authenticated requests whose role is not permitted with
// 403. It must run after auth.Manager.Authenticate.
func (e *Enforcer) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok || !e.Allowed(claims.Role, r.URL.Path, r.Method) {
			role := ""
			if ok {
				role = claims.Role
			}
			logging.Ctx(r.Context()).Debug().Str("role", role).Str("method", r.Method).
				Str("path", r.URL.Path).Msg("Request denied by policy")
			if e.onDenied != nil {
				e.onDenied(r, role)
			}
			auth.WriteForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
