// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http"
	"time"
)

// HealthResponse reports component health for load balancers and humans.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Database      string `json:"database"`
	RenderCache   string `json:"render_cache"`
	Renderer      string `json:"renderer"`
	LoadedModel   string `json:"loaded_model,omitempty"`
}

// HandleHealth reports overall service health. Degraded components turn
// the status to "degraded" but keep the response at 200; only a dead
// database makes the endpoint fail, since nothing works without it.
//
//	@Summary	Health check
//	@Tags		operations
//	@Produce	json
//	@Success	200	{object}	models.APIResponse{data=HealthResponse}
//	@Failure	503	{object}	models.APIResponse{data=HealthResponse}
//	@Router		/health [get]
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime) / time.Second),
		Database:      "ok",
		RenderCache:   "ok",
		Renderer:      "unknown",
	}

	status := http.StatusOK
	if h.db == nil || h.db.Ping(r.Context()) != nil {
		resp.Database = "down"
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	if h.renderCache == nil || !h.renderCache.Available() {
		resp.RenderCache = "unavailable"
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}

	if h.renderer != nil {
		resp.Renderer = h.renderer.State()
		if resp.Renderer == "open" && resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}
	if h.session != nil {
		resp.LoadedModel = h.session.Current()
	}

	respondData(w, status, resp)
}
