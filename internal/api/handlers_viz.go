// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/eventprocessor"
	"github.com/nilskoch/attentia/internal/inference"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
	"github.com/nilskoch/attentia/internal/models"
	"github.com/nilskoch/attentia/internal/rendercache"
	"github.com/nilskoch/attentia/internal/web"
)

// defaultPromptText seeds the submission form for first-time visitors.
const defaultPromptText = "The cat sat on the mat."

// HandleIndex serves the submission form page.
//
//	@Summary	Submission form
//	@Tags		pages
//	@Produce	html
//	@Success	200
//	@Router		/ [get]
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := web.IndexData{
		DefaultModel: h.config.Inference.DefaultModel,
		DefaultText:  defaultPromptText,
	}
	if data.DefaultModel == "" {
		data.DefaultModel = "google/gemma-2b"
	}
	if h.session != nil {
		data.LoadedModel = h.session.Current()
	}
	if _, claims, ok := currentUser(r); ok {
		data.Username = claims.Username
	}
	h.renderPage(w, http.StatusOK, "index", data)
}

// HandleVisualize accepts a model/text submission, renders the attention
// view (from cache when possible), and persists the result. Browser form
// posts are redirected to the visualization page; API clients receive
// the stored record as JSON.
//
//	@Summary		Create visualization
//	@Tags			visualizations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VisualizeRequest	true	"Submission"
//	@Success		201		{object}	models.APIResponse{data=models.Visualization}
//	@Failure		400		{object}	models.APIResponse
//	@Failure		403		{object}	models.APIResponse
//	@Failure		413		{object}	models.APIResponse
//	@Failure		503		{object}	models.APIResponse
//	@Security		BearerAuth
//	@Router			/visualize [post]
func (h *Handler) HandleVisualize(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.visualizeError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return
	}

	req, err := decodeVisualizeRequest(r)
	if err != nil {
		h.visualizeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if req.ViewType == "" {
		req.ViewType = "head"
	}
	if apiErr := validateRequest(req); apiErr != nil {
		metrics.RecordRenderRejected(req.ViewType)
		h.visualizeError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	result, cacheHit, err := h.renderOrLookup(r, req)
	metrics.RecordRender(req.ViewType, time.Since(start), cacheHit, err)
	if err != nil {
		h.respondRenderFailure(w, r, req, err)
		return
	}

	viz := &models.Visualization{
		ID:         uuid.New(),
		UserID:     userID,
		ModelName:  req.ModelName,
		InputText:  req.InputText,
		ViewType:   req.ViewType,
		HTML:       result.HTML,
		TokenCount: result.TokenCount,
		Truncated:  result.Truncated,
	}
	if err := h.db.InsertVisualization(r.Context(), viz); err != nil {
		h.visualizeError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save visualization", err)
		return
	}

	if !cacheHit {
		h.renderCache.Set(req.ModelName, req.InputText, req.ViewType, &rendercache.Entry{
			HTML:       result.HTML,
			TokenCount: result.TokenCount,
			Truncated:  result.Truncated,
			ModelName:  req.ModelName,
			ViewType:   req.ViewType,
			RenderedAt: time.Now(),
		})
	}

	h.invalidateListCache()
	if h.wsHub != nil {
		h.wsHub.BroadcastVisualizationCreated(viz)
	}
	if h.collabPub != nil {
		event := eventprocessor.NewCollaborationEvent(eventprocessor.EventTypeVizCreated)
		event.VisualizationID = viz.ID.String()
		event.ActorID = userID.String()
		event.ModelName = viz.ModelName
		if err := event.SetPayload(viz); err == nil {
			h.publishCollab(r.Context(), event)
		}
	}
	if h.auditor != nil {
		h.auditor.LogVizEvent(r.Context(), audit.EventTypeVizCreated, auditActor(r), audit.SourceFromRequest(r),
			viz.ID.String(), viz.ModelName, "visualization created")
	}

	if wantsHTML(r) {
		http.Redirect(w, r, "/viz/"+viz.ID.String(), http.StatusSeeOther)
		return
	}
	respondData(w, http.StatusCreated, viz)
}

// renderOrLookup serves a submission from the render cache when the
// (model, text, view) triple was rendered before, otherwise drives the
// renderer session.
func (h *Handler) renderOrLookup(r *http.Request, req *VisualizeRequest) (*inference.RenderResult, bool, error) {
	if entry, ok := h.renderCache.Get(req.ModelName, req.InputText, req.ViewType); ok {
		return &inference.RenderResult{
			HTML:       entry.HTML,
			TokenCount: entry.TokenCount,
			Truncated:  entry.Truncated,
		}, true, nil
	}

	if h.session == nil {
		return nil, false, inference.ErrRendererUnavailable
	}
	result, err := h.session.Render(r.Context(), req.ModelName, req.InputText, req.ViewType)
	return result, false, err
}

// respondRenderFailure maps renderer and model-admission errors onto
// status codes and error codes.
func (h *Handler) respondRenderFailure(w http.ResponseWriter, r *http.Request, req *VisualizeRequest, err error) {
	var sizeErr *inference.ModelSizeError
	switch {
	case errors.As(err, &sizeErr):
		h.visualizeError(w, r, http.StatusRequestEntityTooLarge, "MODEL_TOO_LARGE", sizeErr.Error(), nil)
	case errors.Is(err, inference.ErrModelTooLarge):
		h.visualizeError(w, r, http.StatusRequestEntityTooLarge, "MODEL_TOO_LARGE",
			fmt.Sprintf("Model %s exceeds the configured size limit", req.ModelName), nil)
	case errors.Is(err, inference.ErrModelGated):
		h.visualizeError(w, r, http.StatusForbidden, "MODEL_ACCESS_DENIED",
			fmt.Sprintf("Model %s is gated; access must be granted on the hub", req.ModelName), nil)
	case errors.Is(err, inference.ErrModelNotFound):
		h.visualizeError(w, r, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("Model %s was not found on the hub", req.ModelName), nil)
	case errors.Is(err, inference.ErrRendererUnavailable):
		h.visualizeError(w, r, http.StatusServiceUnavailable, "RENDERER_ERROR",
			"The renderer is temporarily unavailable, try again shortly", err)
	default:
		h.visualizeError(w, r, http.StatusBadGateway, "RENDERER_ERROR", "Rendering failed", err)
	}
}

// visualizeError answers a failed submission: an error page for browser
// form posts, the JSON envelope otherwise.
func (h *Handler) visualizeError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("Visualization failed")
	}
	if wantsHTML(r) {
		title := http.StatusText(status)
		if code == "MODEL_ACCESS_DENIED" {
			title = "Access Denied"
		}
		h.renderErrorPage(w, status, title, message)
		return
	}
	respondError(w, status, code, message, nil)
}

// HandleVizPage serves the public visualization page.
//
//	@Summary	Visualization page
//	@Tags		pages
//	@Produce	html
//	@Success	200
//	@Failure	404
//	@Router		/viz/{id} [get]
func (h *Handler) HandleVizPage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderErrorPage(w, http.StatusNotFound, "Not Found", "Visualization not found")
		return
	}

	viz, err := h.db.GetVisualization(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.renderErrorPage(w, http.StatusNotFound, "Not Found", "Visualization not found")
			return
		}
		h.renderErrorPage(w, http.StatusInternalServerError, "Server Error", "Failed to load visualization")
		return
	}

	data := web.VizData{
		ID:         viz.ID.String(),
		ModelName:  viz.ModelName,
		InputText:  viz.InputText,
		ViewType:   viz.ViewType,
		TokenCount: viz.TokenCount,
		Truncated:  viz.Truncated,
		HTML:       template.HTML(viz.HTML),
		CreatedAt:  viz.CreatedAt,
		Shared:     viz.IsShared(),
	}
	if viz.ShareToken != nil {
		data.ShareToken = *viz.ShareToken
	}
	if _, claims, ok := currentUser(r); ok {
		data.Username = claims.Username
	}
	h.renderPage(w, http.StatusOK, "viz", data)
}

// HandleGetViz returns a single visualization including its HTML.
//
//	@Summary	Get visualization
//	@Tags		visualizations
//	@Produce	json
//	@Param		id	path		string	true	"Visualization ID"
//	@Success	200	{object}	models.APIResponse{data=models.Visualization}
//	@Failure	404	{object}	models.APIResponse
//	@Router		/api/v1/viz/{id} [get]
func (h *Handler) HandleGetViz(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
		return
	}

	viz, err := h.db.GetVisualization(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load visualization", err)
		return
	}
	respondData(w, http.StatusOK, viz)
}

// HandleListViz returns a cursor-paginated page of visualization
// summaries, newest first. ?mine=true restricts to the caller's own.
//
//	@Summary	List visualizations
//	@Tags		visualizations
//	@Produce	json
//	@Param		limit	query		int		false	"Page size (max 100)"
//	@Param		cursor	query		string	false	"Opaque pagination cursor"
//	@Param		mine	query		bool	false	"Only the caller's visualizations"
//	@Success	200		{object}	models.APIResponse{data=models.VisualizationsResponse}
//	@Router		/api/v1/viz [get]
func (h *Handler) HandleListViz(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if limit <= 0 {
		limit = 20
	}
	if max := h.config.API.MaxPageSize; max > 0 && limit > max {
		limit = max
	}

	var userFilter *uuid.UUID
	if r.URL.Query().Get("mine") == "true" {
		userID, _, ok := currentUser(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
			return
		}
		userFilter = &userID
	}

	cursor, err := decodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid pagination cursor", nil)
		return
	}

	cacheKey := fmt.Sprintf("viz:list:%s:%d:%v", r.URL.Query().Get("cursor"), limit, userFilter)
	if userFilter == nil && h.respCache != nil {
		if cached, ok := h.respCache.Get(cacheKey); ok {
			if resp, ok := cached.(*models.VisualizationsResponse); ok {
				respondJSON(w, http.StatusOK, &models.APIResponse{
					Status:   "success",
					Data:     resp,
					Metadata: models.Metadata{Timestamp: time.Now(), Cached: true},
				})
				return
			}
		}
	}

	start := time.Now()
	vizs, next, hasMore, err := h.db.GetVisualizationsWithCursor(r.Context(), userFilter, limit, cursor)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list visualizations", err)
		return
	}

	summaries := make([]models.Visualization, 0, len(vizs))
	for i := range vizs {
		summaries = append(summaries, vizs[i].Summary())
	}

	resp := &models.VisualizationsResponse{
		Visualizations: summaries,
		Pagination: models.PaginationInfo{
			Limit:   limit,
			HasMore: hasMore,
		},
	}
	if hasMore && next != nil {
		encoded := encodeCursor(next)
		resp.Pagination.NextCursor = &encoded
	}

	if userFilter == nil && h.respCache != nil {
		h.respCache.Set(cacheKey, resp)
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// HandleDeleteViz removes a visualization and everything hanging off it
// (annotations, share token). Only the owner or an admin may delete.
//
//	@Summary	Delete visualization
//	@Tags		visualizations
//	@Produce	json
//	@Param		id	path		string	true	"Visualization ID"
//	@Success	200	{object}	models.APIResponse
//	@Failure	403	{object}	models.APIResponse
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/viz/{id} [delete]
func (h *Handler) HandleDeleteViz(w http.ResponseWriter, r *http.Request) {
	userID, claims, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
		return
	}

	viz, err := h.db.GetVisualization(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load visualization", err)
		return
	}

	if viz.UserID != userID && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "You can only delete your own visualizations", nil)
		return
	}

	if err := h.db.DeleteVisualization(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete visualization", err)
		return
	}

	h.invalidateListCache()
	if h.auditor != nil {
		h.auditor.LogVizEvent(r.Context(), audit.EventTypeVizDeleted, auditActor(r), audit.SourceFromRequest(r),
			id.String(), viz.ModelName, "visualization deleted")
	}

	respondData(w, http.StatusOK, map[string]string{"detail": "Visualization deleted"})
}

// HandleUnloadModel frees the renderer's model slot and sends the
// browser back to the form page.
//
//	@Summary	Unload model
//	@Tags		visualizations
//	@Success	303
//	@Security	BearerAuth
//	@Router		/unload [get]
func (h *Handler) HandleUnloadModel(w http.ResponseWriter, r *http.Request) {
	if h.session != nil {
		unloaded := h.session.Current()
		if err := h.session.Unload(r.Context()); err != nil {
			logging.Warn().Err(err).Msg("Model unload failed")
		} else if unloaded != "" && h.auditor != nil {
			h.auditor.LogModelEvent(r.Context(), audit.EventTypeModelUnloaded, auditActor(r),
				audit.SourceFromRequest(r), unloaded, "unloaded via /unload")
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// invalidateListCache drops cached list pages after any write that
// changes the visualization set.
func (h *Handler) invalidateListCache() {
	if h.respCache != nil {
		h.respCache.Clear()
	}
}

// encodeCursor serializes a pagination cursor as opaque base64 JSON.
func encodeCursor(c *models.VisualizationCursor) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor parses an opaque cursor; empty input means first page.
func decodeCursor(raw string) (*models.VisualizationCursor, error) {
	if raw == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	var c models.VisualizationCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
