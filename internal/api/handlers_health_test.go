// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var health HealthResponse
	dataField(t, decodeEnvelope(t, rec), &health)
	// No render cache is wired in this setup, so overall status is
	// degraded while the database reports ok.
	if health.Status != "degraded" {
		t.Errorf("status = %q, want degraded", health.Status)
	}
	if health.Version != "test" {
		t.Errorf("version = %q, want test", health.Version)
	}
	if health.Database != "ok" {
		t.Errorf("database = %q, want ok", health.Database)
	}
	if health.RenderCache != "unavailable" {
		t.Errorf("render cache = %q, want unavailable", health.RenderCache)
	}
}

func TestHealthUnhealthyWithoutDatabase(t *testing.T) {
	env := newTestEnv(t)
	env.handler.db = nil

	rec := env.doJSON(t, "GET", "/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var health HealthResponse
	dataField(t, decodeEnvelope(t, rec), &health)
	if health.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", health.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSecurityHeadersOnAPI(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, "GET", "/api/v1/viz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set on plain HTTP")
	}
}

func TestETagOnSuccess(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, "GET", "/api/v1/viz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("200 responses should carry an ETag")
	}
}

func TestWebSocketUnavailableWithoutHub(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, "GET", "/ws", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a hub, got %d", rec.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, "GET", "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
