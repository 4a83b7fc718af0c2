// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/eventprocessor"
	"github.com/nilskoch/attentia/internal/models"
	ws "github.com/nilskoch/attentia/internal/websocket"
)

// publishAnnotationEvent mirrors a local annotation broadcast onto the
// event stream so clients on other instances receive it too.
func (h *Handler) publishAnnotationEvent(ctx context.Context, eventType string, claims *auth.Claims, a *models.AnnotationWithUser) {
	if h.collabPub == nil {
		return
	}
	event := eventprocessor.NewCollaborationEvent(eventType)
	event.VisualizationID = a.VisualizationID.String()
	event.AnnotationID = a.ID.String()
	event.ActorID = claims.Subject
	event.ActorName = claims.Username
	if err := event.SetPayload(a); err != nil {
		return
	}
	h.publishCollab(ctx, event)
}

// HandleListAnnotations returns all annotations on a visualization with
// author usernames. Public so shared views can show annotations.
//
//	@Summary	List annotations
//	@Tags		annotations
//	@Produce	json
//	@Param		id	path		string	true	"Visualization ID"
//	@Success	200	{object}	models.APIResponse{data=[]models.AnnotationWithUser}
//	@Failure	404	{object}	models.APIResponse
//	@Router		/api/v1/viz/{id}/annotations [get]
func (h *Handler) HandleListAnnotations(w http.ResponseWriter, r *http.Request) {
	vizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
		return
	}

	if _, err := h.db.GetVisualization(r.Context(), vizID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load visualization", err)
		return
	}

	annotations, err := h.db.GetAnnotationsForVisualization(r.Context(), vizID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list annotations", err)
		return
	}
	if annotations == nil {
		annotations = []models.AnnotationWithUser{}
	}
	respondData(w, http.StatusOK, annotations)
}

// HandleCreateAnnotation anchors a new note to a token range of a
// visualization and broadcasts it to connected viewers.
//
//	@Summary	Create annotation
//	@Tags		annotations
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Visualization ID"
//	@Param		request	body		AnnotationCreateRequest	true	"Annotation"
//	@Success	201		{object}	models.APIResponse{data=models.AnnotationWithUser}
//	@Failure	400		{object}	models.APIResponse
//	@Failure	404		{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/viz/{id}/annotations [post]
func (h *Handler) HandleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return
	}

	vizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
		return
	}

	viz, err := h.db.GetVisualization(r.Context(), vizID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load visualization", err)
		return
	}

	var req AnnotationCreateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}
	if !tokenRangeValid(req.StartToken, req.EndToken, viz.TokenCount) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid token range", nil)
		return
	}

	annotation := &models.Annotation{
		ID:              uuid.New(),
		VisualizationID: vizID,
		UserID:          userID,
		Content:         req.Content,
		StartToken:      req.StartToken,
		EndToken:        req.EndToken,
	}
	if err := h.db.InsertAnnotation(r.Context(), annotation); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save annotation", err)
		return
	}

	withUser := &models.AnnotationWithUser{
		Annotation: *annotation,
		Username:   claims.Username,
	}
	if h.wsHub != nil {
		h.wsHub.BroadcastAnnotation(ws.MessageTypeAnnotationCreated, vizID.String(), withUser)
	}
	h.publishAnnotationEvent(r.Context(), eventprocessor.EventTypeAnnotationCreated, claims, withUser)
	if h.auditor != nil {
		h.auditor.LogAnnotationEvent(r.Context(), audit.EventTypeAnnotationCreated, auditActor(r),
			audit.SourceFromRequest(r), annotation.ID.String(), vizID.String())
	}

	respondData(w, http.StatusCreated, withUser)
}

// HandleUpdateAnnotation applies a partial edit. Only the author may
// edit; admins do not override collaborative authorship.
//
//	@Summary	Update annotation
//	@Tags		annotations
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Annotation ID"
//	@Param		request	body		AnnotationUpdateRequest	true	"Fields to change"
//	@Success	200		{object}	models.APIResponse{data=models.AnnotationWithUser}
//	@Failure	400		{object}	models.APIResponse
//	@Failure	403		{object}	models.APIResponse
//	@Failure	404		{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/annotations/{id} [patch]
func (h *Handler) HandleUpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
		return
	}

	annotation, err := h.db.GetAnnotation(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load annotation", err)
		return
	}
	if !annotation.IsAuthor(userID) {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "You can only edit your own annotations", nil)
		return
	}

	var req AnnotationUpdateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	if req.Content != nil {
		annotation.Content = *req.Content
	}
	if req.StartToken != nil {
		annotation.StartToken = *req.StartToken
	}
	if req.EndToken != nil {
		annotation.EndToken = *req.EndToken
	}

	tokenCount := 0
	if viz, err := h.db.GetVisualization(r.Context(), annotation.VisualizationID); err == nil {
		tokenCount = viz.TokenCount
	}
	if !tokenRangeValid(annotation.StartToken, annotation.EndToken, tokenCount) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid token range", nil)
		return
	}

	if err := h.db.UpdateAnnotation(r.Context(), annotation); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update annotation", err)
		return
	}

	withUser := &models.AnnotationWithUser{
		Annotation: *annotation,
		Username:   claims.Username,
	}
	if h.wsHub != nil {
		h.wsHub.BroadcastAnnotation(ws.MessageTypeAnnotationUpdated, annotation.VisualizationID.String(), withUser)
	}
	h.publishAnnotationEvent(r.Context(), eventprocessor.EventTypeAnnotationUpdated, claims, withUser)
	if h.auditor != nil {
		h.auditor.LogAnnotationEvent(r.Context(), audit.EventTypeAnnotationUpdated, auditActor(r),
			audit.SourceFromRequest(r), annotation.ID.String(), annotation.VisualizationID.String())
	}

	respondData(w, http.StatusOK, withUser)
}

// HandleDeleteAnnotation removes an annotation. Author-only, like edits.
//
//	@Summary	Delete annotation
//	@Tags		annotations
//	@Produce	json
//	@Param		id	path		string	true	"Annotation ID"
//	@Success	200	{object}	models.APIResponse
//	@Failure	403	{object}	models.APIResponse
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/annotations/{id} [delete]
func (h *Handler) HandleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
		return
	}

	annotation, err := h.db.GetAnnotation(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Annotation not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load annotation", err)
		return
	}
	if !annotation.IsAuthor(userID) {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "You can only delete your own annotations", nil)
		return
	}

	if err := h.db.DeleteAnnotation(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete annotation", err)
		return
	}

	withUser := &models.AnnotationWithUser{
		Annotation: *annotation,
		Username:   claims.Username,
	}
	if h.wsHub != nil {
		h.wsHub.BroadcastAnnotation(ws.MessageTypeAnnotationDeleted, annotation.VisualizationID.String(), withUser)
	}
	h.publishAnnotationEvent(r.Context(), eventprocessor.EventTypeAnnotationDeleted, claims, withUser)
	if h.auditor != nil {
		h.auditor.LogAnnotationEvent(r.Context(), audit.EventTypeAnnotationDeleted, auditActor(r),
			audit.SourceFromRequest(r), annotation.ID.String(), annotation.VisualizationID.String())
	}

	respondData(w, http.StatusOK, map[string]string{"detail": "Annotation deleted"})
}

// tokenRangeValid checks 0 <= start <= end, and caps end at the
// visualization's token count when one is known.
func tokenRangeValid(start, end, tokenCount int) bool {
	if start < 0 || end < start {
		return false
	}
	if tokenCount > 0 && end >= tokenCount {
		return false
	}
	return true
}
