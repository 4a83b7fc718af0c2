// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/models"
)

func seedAuditEvent(t *testing.T, env *testEnv, id string, eventType audit.EventType, outcome audit.Outcome) {
	t.Helper()

	event := &audit.Event{
		ID:        id,
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Severity:  audit.SeverityInfo,
		Outcome:   outcome,
		Actor:     audit.SystemActor(),
	}
	if err := env.store.Save(context.Background(), event); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestAuditEventsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	_, editorToken := env.createUser(t, "alice", models.RoleEditor)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	rec := env.doJSON(t, "GET", "/api/v1/audit/events", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}

	rec = env.doJSON(t, "GET", "/api/v1/audit/events", editorToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("editor: expected 403, got %d", rec.Code)
	}

	rec = env.doJSON(t, "GET", "/api/v1/audit/events", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestAuditEventsFiltering(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	for i := 0; i < 3; i++ {
		seedAuditEvent(t, env, fmt.Sprintf("viz-%d", i), audit.EventTypeVizCreated, audit.OutcomeSuccess)
	}
	seedAuditEvent(t, env, "auth-1", audit.EventTypeAuthFailure, audit.OutcomeFailure)

	rec := env.doJSON(t, "GET", "/api/v1/audit/events?type="+string(audit.EventTypeVizCreated), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var page AuditEventsResponse
	dataField(t, decodeEnvelope(t, rec), &page)
	if len(page.Events) != 3 {
		t.Errorf("type filter: expected 3 events, got %d", len(page.Events))
	}
	if page.TotalCount != 3 {
		t.Errorf("type filter: total = %d, want 3", page.TotalCount)
	}

	rec = env.doJSON(t, "GET", "/api/v1/audit/events?outcome=failure", adminToken, nil)
	dataField(t, decodeEnvelope(t, rec), &page)
	if len(page.Events) != 1 {
		t.Errorf("outcome filter: expected 1 event, got %d", len(page.Events))
	}

	rec = env.doJSON(t, "GET", "/api/v1/audit/events?limit=2", adminToken, nil)
	dataField(t, decodeEnvelope(t, rec), &page)
	if len(page.Events) != 2 {
		t.Errorf("limit: expected 2 events, got %d", len(page.Events))
	}
	if page.TotalCount != 4 {
		t.Errorf("limit: total = %d, want 4", page.TotalCount)
	}
}

func TestAuditGetEvent(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)
	seedAuditEvent(t, env, "lookup-me", audit.EventTypeVizShared, audit.OutcomeSuccess)

	rec := env.doJSON(t, "GET", "/api/v1/audit/events/lookup-me", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var event audit.Event
	dataField(t, decodeEnvelope(t, rec), &event)
	if event.ID != "lookup-me" {
		t.Errorf("id = %q, want lookup-me", event.ID)
	}

	rec = env.doJSON(t, "GET", "/api/v1/audit/events/no-such-event", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}
}

func TestAuditStats(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)
	seedAuditEvent(t, env, "s-1", audit.EventTypeVizCreated, audit.OutcomeSuccess)
	seedAuditEvent(t, env, "s-2", audit.EventTypeAuthFailure, audit.OutcomeFailure)

	rec := env.doJSON(t, "GET", "/api/v1/audit/stats", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var stats audit.Stats
	dataField(t, decodeEnvelope(t, rec), &stats)
	if stats.TotalEvents != 2 {
		t.Errorf("total events = %d, want 2", stats.TotalEvents)
	}
}

func TestAuditBadTimeFilter(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	rec := env.doJSON(t, "GET", "/api/v1/audit/events?start_time=yesterday", adminToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
