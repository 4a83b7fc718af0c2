// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/models"
)

// AuditStore is the query surface the audit API needs. Both the DuckDB
// store and the in-memory store satisfy it.
type AuditStore interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	Count(ctx context.Context, filter audit.QueryFilter) (int64, error)
	Get(ctx context.Context, id string) (*audit.Event, error)
	GetStats(ctx context.Context) (*audit.Stats, error)
}

// AuditHandlers serves the admin-only audit trail API.
type AuditHandlers struct {
	store AuditStore
}

// NewAuditHandlers creates handlers backed by the given store.
func NewAuditHandlers(store AuditStore) *AuditHandlers {
	return &AuditHandlers{store: store}
}

// AuditEventsResponse is a page of audit events.
type AuditEventsResponse struct {
	Events     []audit.Event `json:"events"`
	TotalCount int64         `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// parseAuditFilter builds a query filter from request parameters.
// Malformed time bounds are an error; silently dropping them would
// return far more events than the caller asked for.
func parseAuditFilter(r *http.Request) (audit.QueryFilter, error) {
	filter := audit.DefaultQueryFilter()
	q := r.URL.Query()

	if t := q.Get("type"); t != "" {
		filter.Types = []audit.EventType{audit.EventType(t)}
	}
	if s := q.Get("severity"); s != "" {
		filter.Severities = []audit.Severity{audit.Severity(s)}
	}
	if o := q.Get("outcome"); o != "" {
		filter.Outcomes = []audit.Outcome{audit.Outcome(o)}
	}
	filter.ActorID = q.Get("actor_id")
	filter.TargetID = q.Get("target_id")
	filter.SearchText = q.Get("search")

	if ts := q.Get("start_time"); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return filter, fmt.Errorf("invalid start_time: %w", err)
		}
		filter.StartTime = &parsed
	}
	if ts := q.Get("end_time"); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return filter, fmt.Errorf("invalid end_time: %w", err)
		}
		filter.EndTime = &parsed
	}

	if limit := getIntParam(r, "limit", filter.Limit); limit > 0 && limit <= 1000 {
		filter.Limit = limit
	}
	if offset := getIntParam(r, "offset", 0); offset > 0 {
		filter.Offset = offset
	}
	return filter, nil
}

// HandleListEvents returns audit events matching the query filters,
// newest first.
//
//	@Summary	Query audit events
//	@Tags		audit
//	@Produce	json
//	@Param		type		query		string	false	"Event type (e.g. auth.failure)"
//	@Param		severity	query		string	false	"Severity"
//	@Param		outcome		query		string	false	"Outcome"
//	@Param		actor_id	query		string	false	"Actor ID"
//	@Param		target_id	query		string	false	"Target ID"
//	@Param		search		query		string	false	"Text search"
//	@Param		start_time	query		string	false	"RFC3339 start of range"
//	@Param		end_time	query		string	false	"RFC3339 end of range"
//	@Param		limit		query		int		false	"Page size (max 1000)"
//	@Param		offset		query		int		false	"Page offset"
//	@Success	200			{object}	models.APIResponse{data=AuditEventsResponse}
//	@Security	BearerAuth
//	@Router		/api/v1/audit/events [get]
func (a *AuditHandlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		respondError(w, http.StatusServiceUnavailable, "AUDIT_UNAVAILABLE", "Audit trail is not configured", nil)
		return
	}

	filter, err := parseAuditFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Time filters must be RFC3339 timestamps", nil)
		return
	}
	start := time.Now()

	events, err := a.store.Query(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit events", err)
		return
	}
	total, err := a.store.Count(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count audit events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: AuditEventsResponse{
			Events:     events,
			TotalCount: total,
			Limit:      filter.Limit,
			Offset:     filter.Offset,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// HandleGetEvent returns a single audit event by ID.
//
//	@Summary	Get audit event
//	@Tags		audit
//	@Produce	json
//	@Param		id	path		string	true	"Event ID"
//	@Success	200	{object}	models.APIResponse{data=audit.Event}
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/audit/events/{id} [get]
func (a *AuditHandlers) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		respondError(w, http.StatusServiceUnavailable, "AUDIT_UNAVAILABLE", "Audit trail is not configured", nil)
		return
	}

	event, err := a.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Audit event not found", nil)
		return
	}
	respondData(w, http.StatusOK, event)
}

// HandleGetStats returns aggregate counts over the audit trail.
//
//	@Summary	Audit statistics
//	@Tags		audit
//	@Produce	json
//	@Success	200	{object}	models.APIResponse{data=audit.Stats}
//	@Security	BearerAuth
//	@Router		/api/v1/audit/stats [get]
func (a *AuditHandlers) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		respondError(w, http.StatusServiceUnavailable, "AUDIT_UNAVAILABLE", "Audit trail is not configured", nil)
		return
	}

	stats, err := a.store.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute audit statistics", err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
