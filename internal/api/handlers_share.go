// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/metrics"
	"github.com/nilskoch/attentia/internal/models"
	"github.com/nilskoch/attentia/internal/web"
)

// shareTokenBytes is the entropy of a share link: 12 random bytes,
// hex-encoded to a 24-character token.
const shareTokenBytes = 12

// ShareResponse is returned when a share link is created or fetched.
type ShareResponse struct {
	ShareToken string `json:"share_token"`
	ShareURL   string `json:"share_url"`
}

func newShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// loadOwnedViz fetches a visualization and checks the caller may manage
// it. Admins pass the ownership check.
func (h *Handler) loadOwnedViz(w http.ResponseWriter, r *http.Request, verb string) (*models.Visualization, bool) {
	userID, claims, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
		return nil, false
	}

	viz, err := h.db.GetVisualization(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load visualization", err)
		return nil, false
	}

	if viz.UserID != userID && claims.Role != models.RoleAdmin {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR",
			fmt.Sprintf("You can only %s your own visualizations", verb), nil)
		return nil, false
	}
	return viz, true
}

// HandleCreateShare creates (or returns the existing) share link for a
// visualization. Idempotent: sharing twice yields the same token.
//
//	@Summary	Share visualization
//	@Tags		sharing
//	@Produce	json
//	@Param		id	path		string	true	"Visualization ID"
//	@Success	201	{object}	models.APIResponse{data=ShareResponse}
//	@Success	200	{object}	models.APIResponse{data=ShareResponse}
//	@Failure	403	{object}	models.APIResponse
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/viz/{id}/share [post]
func (h *Handler) HandleCreateShare(w http.ResponseWriter, r *http.Request) {
	viz, ok := h.loadOwnedViz(w, r, "share")
	if !ok {
		return
	}

	if viz.ShareToken != nil && *viz.ShareToken != "" {
		respondData(w, http.StatusOK, ShareResponse{
			ShareToken: *viz.ShareToken,
			ShareURL:   "/share/" + *viz.ShareToken,
		})
		return
	}

	token, err := newShareToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create share link", err)
		return
	}
	if err := h.db.SetShareToken(r.Context(), viz.ID, token); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create share link", err)
		return
	}

	metrics.RecordShareTokenCreated()
	if h.auditor != nil {
		h.auditor.LogVizEvent(r.Context(), audit.EventTypeVizShared, auditActor(r), audit.SourceFromRequest(r),
			viz.ID.String(), viz.ModelName, "share link created")
	}

	respondData(w, http.StatusCreated, ShareResponse{
		ShareToken: token,
		ShareURL:   "/share/" + token,
	})
}

// HandleRevokeShare removes the share link. Existing share URLs stop
// resolving immediately.
//
//	@Summary	Revoke share link
//	@Tags		sharing
//	@Produce	json
//	@Param		id	path		string	true	"Visualization ID"
//	@Success	200	{object}	models.APIResponse
//	@Failure	403	{object}	models.APIResponse
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/viz/{id}/share [delete]
func (h *Handler) HandleRevokeShare(w http.ResponseWriter, r *http.Request) {
	viz, ok := h.loadOwnedViz(w, r, "unshare")
	if !ok {
		return
	}

	if err := h.db.ClearShareToken(r.Context(), viz.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to revoke share link", err)
		return
	}

	if h.auditor != nil {
		h.auditor.LogVizEvent(r.Context(), audit.EventTypeVizUnshared, auditActor(r), audit.SourceFromRequest(r),
			viz.ID.String(), viz.ModelName, "share link revoked")
	}
	respondData(w, http.StatusOK, map[string]string{"detail": "Share link revoked"})
}

// HandleSharePage serves the public page behind a share link. No
// authentication; the token is the capability.
//
//	@Summary	Shared visualization page
//	@Tags		pages
//	@Produce	html
//	@Param		token	path	string	true	"Share token"
//	@Success	200
//	@Failure	404
//	@Router		/share/{token} [get]
func (h *Handler) HandleSharePage(w http.ResponseWriter, r *http.Request) {
	viz, err := h.db.GetVisualizationByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.renderErrorPage(w, http.StatusNotFound, "Not Found", "This share link does not exist or was revoked")
			return
		}
		h.renderErrorPage(w, http.StatusInternalServerError, "Server Error", "Failed to load visualization")
		return
	}

	metrics.RecordShareAccess()

	data := web.VizData{
		ID:         viz.ID.String(),
		ModelName:  viz.ModelName,
		InputText:  viz.InputText,
		ViewType:   viz.ViewType,
		TokenCount: viz.TokenCount,
		Truncated:  viz.Truncated,
		HTML:       template.HTML(viz.HTML),
		CreatedAt:  viz.CreatedAt,
	}
	h.renderPage(w, http.StatusOK, "viz", data)
}

// HandleGetShared returns the shared visualization as JSON.
//
//	@Summary	Shared visualization
//	@Tags		sharing
//	@Produce	json
//	@Param		token	path		string	true	"Share token"
//	@Success	200		{object}	models.APIResponse{data=models.Visualization}
//	@Failure	404		{object}	models.APIResponse
//	@Router		/api/v1/share/{token} [get]
func (h *Handler) HandleGetShared(w http.ResponseWriter, r *http.Request) {
	viz, err := h.db.GetVisualizationByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Share link not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load visualization", err)
		return
	}

	metrics.RecordShareAccess()
	respondData(w, http.StatusOK, viz)
}
