// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewManager("short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestGenerateValidate(t *testing.T) {
	m := newTestManager(t)
	token, err := m.Generate("alice", "operator")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != "operator" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	m := newTestManager(t)

	other, err := NewManager(strings.Repeat("z", MinSecretLength), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	foreign, _ := other.Generate("mallory", "admin")

	expired := newTestManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Generate("bob", "viewer")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"wrong secret", foreign, ErrInvalidToken},
		{"expired", stale, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Validate(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	m := newTestManager(t)
	token, _ := m.Generate("alice", "viewer")

	var seen *Claims
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		target string
		want   int
	}{
		{"no token", "", "/api/v1/layers", http.StatusUnauthorized},
		{"header", "Bearer " + token, "/api/v1/layers", http.StatusOK},
		{"basic scheme ignores query", "Basic abc", "/api/v1/layers?token=" + token, http.StatusUnauthorized},
		{"query param", "", "/api/v1/ws?token=" + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen == nil || seen.Subject != "alice") {
				t.Errorf("claims not in context: %+v", seen)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestOnFailureHook(t *testing.T) {
	m := newTestManager(t)
	var got error
	m.OnFailure(func(_ *http.Request, err error) { got = err })

	h := m.Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/layers", nil))
	if !errors.Is(got, ErrMissingToken) {
		t.Errorf("hook err = %v, want ErrMissingToken", got)
	}
}
