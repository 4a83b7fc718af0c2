// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/rendercache"
)

// HandleCacheStats reports render cache occupancy and hit rates.
//
//	@Summary	Render cache statistics
//	@Tags		admin
//	@Produce	json
//	@Success	200	{object}	models.APIResponse{data=rendercache.Stats}
//	@Security	BearerAuth
//	@Router		/api/v1/cache/stats [get]
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	var stats rendercache.Stats
	if h.renderCache != nil {
		stats = h.renderCache.Stats()
	}
	respondData(w, http.StatusOK, stats)
}

// HandleCacheClear drops every cached render. Admin-only and audited;
// the next submission for each triple goes back to the renderer.
//
//	@Summary	Clear render cache
//	@Tags		admin
//	@Produce	json
//	@Success	200	{object}	models.APIResponse
//	@Failure	503	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/cache/clear [post]
func (h *Handler) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	if h.renderCache == nil || !h.renderCache.Available() {
		respondError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "Render cache is not available", nil)
		return
	}

	removed := h.renderCache.Stats().KeysInCache
	if err := h.renderCache.Clear(); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear render cache", err)
		return
	}

	if h.auditor != nil {
		h.auditor.LogCacheCleared(r.Context(), auditActor(r), audit.SourceFromRequest(r), removed)
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"detail":       "Render cache cleared",
		"keys_removed": removed,
	})
}
