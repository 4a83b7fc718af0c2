// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package database provides database operations for the Attentia application.
//
// export.go - Visualization Export Queries
//
// Exports are assembled server-side and streamed over HTTP, so these queries
// return everything the export formats need in one bundle: the visualization
// with its stored HTML, the owner's username, and all annotations joined with
// their authors.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/models"
)

// ExportBundle carries a visualization and its annotations for export.
type ExportBundle struct {
	Visualization models.Visualization        `json:"visualization"`
	OwnerUsername string                      `json:"owner_username"`
	Annotations   []models.AnnotationWithUser `json:"annotations"`
}

// GetExportBundle loads a visualization with its HTML, the owner's username,
// and all annotations for export rendering.
func (db *DB) GetExportBundle(ctx context.Context, vizID uuid.UUID) (*ExportBundle, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT v.id, v.user_id, v.model_name, v.input_text, v.view_type,
			v.html_content, v.token_count, v.truncated, v.share_token, v.created_at,
			u.username
		FROM visualizations v
		JOIN users u ON v.user_id = u.id
		WHERE v.id = ?
	`

	var bundle ExportBundle
	var shareToken sql.NullString
	v := &bundle.Visualization
	err := db.conn.QueryRowContext(ctx, query, vizID).Scan(
		&v.ID, &v.UserID, &v.ModelName, &v.InputText, &v.ViewType,
		&v.HTML, &v.TokenCount, &v.Truncated, &shareToken, &v.CreatedAt,
		&bundle.OwnerUsername,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan export bundle: %w", err)
	}
	if shareToken.Valid {
		v.ShareToken = &shareToken.String
	}

	annotations, err := db.GetAnnotationsForVisualization(ctx, vizID)
	if err != nil {
		return nil, err
	}
	bundle.Annotations = annotations

	return &bundle, nil
}
