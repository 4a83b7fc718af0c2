// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/logging"
)

// exportFilename builds a timestamped download name. Model names carry
// slashes ("google/gemma-2b") which would break Content-Disposition.
func exportFilename(modelName, ext string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "\"", "", " ", "_").Replace(modelName)
	return fmt.Sprintf("attention_%s_%s.%s", safe, time.Now().UTC().Format("20060102T150405Z"), ext)
}

// HandleExportHTML downloads a visualization's rendered HTML as a
// standalone file.
//
//	@Summary	Export visualization HTML
//	@Tags		export
//	@Produce	html
//	@Param		id	path	string	true	"Visualization ID"
//	@Success	200
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/export/viz/{id}/html [get]
func (h *Handler) HandleExportHTML(w http.ResponseWriter, r *http.Request) {
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

	if h.auditor != nil {
		h.auditor.LogDataExport(r.Context(), auditActor(r), audit.SourceFromRequest(r), "html", 1)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(viz.ModelName, "html")))
	if _, err := w.Write([]byte(viz.HTML)); err != nil {
		logging.Error().Err(err).Msg("Failed to write HTML export")
	}
}

// HandleExportJSON downloads a visualization together with its
// annotations and owner as a JSON bundle.
//
//	@Summary	Export visualization bundle
//	@Tags		export
//	@Produce	json
//	@Param		id	path		string	true	"Visualization ID"
//	@Success	200	{object}	models.APIResponse{data=database.ExportBundle}
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/export/viz/{id}/json [get]
func (h *Handler) HandleExportJSON(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
		return
	}

	bundle, err := h.db.GetExportBundle(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Visualization not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to build export", err)
		return
	}

	if h.auditor != nil {
		h.auditor.LogDataExport(r.Context(), auditActor(r), audit.SourceFromRequest(r), "json", 1+len(bundle.Annotations))
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(bundle.Visualization.ModelName, "json")))
	respondData(w, http.StatusOK, bundle)
}

// HandleExportAnnotationsCSV downloads a visualization's annotations as
// CSV, one row per annotation.
//
//	@Summary	Export annotations CSV
//	@Tags		export
//	@Produce	plain
//	@Param		viz_id	query	string	true	"Visualization ID"
//	@Success	200
//	@Failure	404	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/export/annotations.csv [get]
func (h *Handler) HandleExportAnnotationsCSV(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("viz_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "viz_id query parameter is required", nil)
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

	annotations, err := h.db.GetAnnotationsForVisualization(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load annotations", err)
		return
	}

	var b strings.Builder
	b.WriteString("id,visualization_id,username,start_token,end_token,content,created_at\n")
	for i := range annotations {
		a := &annotations[i]
		b.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%s,%s\n",
			a.ID, a.VisualizationID,
			escapeCSV(a.Username),
			a.StartToken, a.EndToken,
			escapeCSV(a.Content),
			a.CreatedAt.UTC().Format(time.RFC3339)))
	}

	if h.auditor != nil {
		h.auditor.LogDataExport(r.Context(), auditActor(r), audit.SourceFromRequest(r), "csv", len(annotations))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(viz.ModelName, "csv")))
	if _, err := w.Write([]byte(b.String())); err != nil {
		logging.Error().Err(err).Msg("Failed to write CSV export")
	}
}
