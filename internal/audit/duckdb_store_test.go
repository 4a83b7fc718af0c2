// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build integration

package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func sampleEvent(id string, eventType EventType) *Event {
	return &Event{
		ID:        id,
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Severity:  SeverityInfo,
		Outcome:   OutcomeSuccess,
		Actor: Actor{
			ID:         "user-123",
			Type:       "user",
			Name:       "alice",
			Roles:      []string{"editor"},
			AuthMethod: "jwt",
		},
		Target: &Target{
			ID:   "viz-1",
			Type: "visualization",
			Name: "bert-base-uncased",
		},
		Source: Source{
			IPAddress: "192.168.1.1",
			UserAgent: "test-agent",
			Hostname:  "localhost",
		},
		Action:      "create",
		Description: "Visualization created",
		Metadata:    json.RawMessage(`{"view_type":"head"}`),
		RequestID:   "req-1",
	}
}

func TestDuckDBStore_CreateTable(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	ctx := context.Background()

	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	var tableName string
	err := db.QueryRowContext(ctx, "SELECT table_name FROM information_schema.tables WHERE table_name = 'audit_events'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Table audit_events does not exist: %v", err)
	}
}

func TestDuckDBStore_SaveAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	ctx := context.Background()

	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	event := sampleEvent("event-1", EventTypeVizCreated)
	if err := store.Save(ctx, event); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "event-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Type != EventTypeVizCreated {
		t.Errorf("expected type viz.created, got %s", got.Type)
	}
	if got.Actor.Name != "alice" {
		t.Errorf("expected actor alice, got %s", got.Actor.Name)
	}
	if len(got.Actor.Roles) != 1 || got.Actor.Roles[0] != "editor" {
		t.Errorf("expected roles [editor], got %v", got.Actor.Roles)
	}
	if got.Target == nil || got.Target.ID != "viz-1" {
		t.Errorf("expected target viz-1, got %+v", got.Target)
	}

	var meta map[string]string
	if err := json.Unmarshal(got.Metadata, &meta); err != nil {
		t.Fatalf("metadata unmarshal failed: %v", err)
	}
	if meta["view_type"] != "head" {
		t.Errorf("expected view_type head in metadata, got %v", meta)
	}
}

func TestDuckDBStore_SaveNilEvent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	if err := store.Save(context.Background(), nil); err == nil {
		t.Error("expected error saving nil event")
	}
}

func TestDuckDBStore_GetNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	ctx := context.Background()
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	if _, err := store.Get(ctx, "missing"); err == nil {
		t.Error("expected error for missing event")
	}
}

func TestDuckDBStore_QueryAndCount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	ctx := context.Background()
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	if err := store.Save(ctx, sampleEvent("e1", EventTypeVizCreated)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, sampleEvent("e2", EventTypeVizCreated)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	failure := sampleEvent("e3", EventTypeAuthFailure)
	failure.Severity = SeverityWarning
	failure.Outcome = OutcomeFailure
	failure.Description = "Authentication failed: invalid password"
	if err := store.Save(ctx, failure); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	events, err := store.Query(ctx, QueryFilter{Types: []EventType{EventTypeVizCreated}})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 viz.created events, got %d", len(events))
	}

	count, err := store.Count(ctx, QueryFilter{Outcomes: []Outcome{OutcomeFailure}})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 failure, got %d", count)
	}

	// Text search on description
	found, err := store.Query(ctx, QueryFilter{SearchText: "invalid password"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(found) != 1 {
		t.Errorf("expected 1 text-search match, got %d", len(found))
	}
}

func TestDuckDBStore_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	ctx := context.Background()
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	old := sampleEvent("old", EventTypeVizCreated)
	old.Timestamp = time.Now().UTC().Add(-100 * 24 * time.Hour)
	if err := store.Save(ctx, old); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, sampleEvent("fresh", EventTypeVizCreated)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	deleted, err := store.Delete(ctx, time.Now().UTC().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	count, err := store.Count(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 remaining, got %d", count)
	}
}

func TestDuckDBStore_GetStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDuckDBStore(db)
	ctx := context.Background()
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	if err := store.Save(ctx, sampleEvent("s1", EventTypeVizCreated)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, sampleEvent("s2", EventTypeModelLoaded)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalEvents != 2 {
		t.Errorf("expected 2 total events, got %d", stats.TotalEvents)
	}
	if stats.EventsByType["viz.created"] != 1 {
		t.Errorf("expected 1 viz.created, got %d", stats.EventsByType["viz.created"])
	}
	if stats.OldestEvent == nil || stats.NewestEvent == nil {
		t.Error("expected oldest and newest event timestamps")
	}
}
