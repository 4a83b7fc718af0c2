// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package database provides database operations for the Attentia application.
//
// visualizations.go - Visualization Database Operations
//
// This file contains CRUD operations for visualizations, including
// cursor-based pagination for the list endpoint and share token management.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/models"
)

// InsertVisualization persists a rendered visualization.
func (db *DB) InsertVisualization(ctx context.Context, viz *models.Visualization) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO visualizations (
			id, user_id, model_name, input_text, view_type,
			html_content, token_count, truncated, share_token, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.ExecContext(ctx, query,
		viz.ID, viz.UserID, viz.ModelName, viz.InputText, viz.ViewType,
		viz.HTML, viz.TokenCount, viz.Truncated, viz.ShareToken, viz.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visualization: %w", err)
	}

	return nil
}

// GetVisualization retrieves a visualization by ID, including the HTML payload.
func (db *DB) GetVisualization(ctx context.Context, id uuid.UUID) (*models.Visualization, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, vizSelectColumns+`WHERE id = ?`, id)
	return scanVisualization(row)
}

// GetVisualizationByShareToken retrieves a visualization through its share link.
func (db *DB) GetVisualizationByShareToken(ctx context.Context, token string) (*models.Visualization, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, vizSelectColumns+`WHERE share_token = ?`, token)
	return scanVisualization(row)
}

// GetVisualizationsWithCursor retrieves visualizations using cursor-based pagination.
//
// Cursor-based pagination uses an index seek on (created_at, id) instead of
// scanning and skipping rows, so deep pages stay fast and concurrent inserts
// do not shift page boundaries. The HTML payload is excluded; fetch the
// detail row for it.
//
// When userID is non-nil, only that user's visualizations are returned.
// Returns the page, the cursor for the next page (nil on the last page),
// and whether more results exist.
func (db *DB) GetVisualizationsWithCursor(ctx context.Context, userID *uuid.UUID, limit int, cursor *models.VisualizationCursor) ([]models.Visualization, *models.VisualizationCursor, bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT id, user_id, model_name, input_text, view_type,
			token_count, truncated, share_token, created_at
		FROM visualizations
		WHERE 1=1`
	var args []interface{}

	if userID != nil {
		query += ` AND user_id = ?`
		args = append(args, *userID)
	}

	if cursor != nil {
		if _, err := uuid.Parse(cursor.ID); err != nil {
			return nil, nil, false, fmt.Errorf("invalid cursor ID format: %w", err)
		}

		// Explicit CAST to UUID because the DuckDB driver passes uuid.UUID as
		// VARCHAR in tuple comparisons, causing type mismatch errors
		query += ` AND (created_at, id) < (?, CAST(? AS UUID))`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	args = append(args, fetchLimit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to query visualizations: %w", err)
	}
	defer rows.Close()

	var vizzes []models.Visualization
	for rows.Next() {
		var v models.Visualization
		var shareToken sql.NullString
		err := rows.Scan(
			&v.ID, &v.UserID, &v.ModelName, &v.InputText, &v.ViewType,
			&v.TokenCount, &v.Truncated, &shareToken, &v.CreatedAt,
		)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to scan visualization: %w", err)
		}
		if shareToken.Valid {
			v.ShareToken = &shareToken.String
		}
		vizzes = append(vizzes, v)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, false, fmt.Errorf("error iterating visualizations: %w", err)
	}

	hasMore := len(vizzes) > limit
	if hasMore {
		vizzes = vizzes[:limit]
	}

	var nextCursor *models.VisualizationCursor
	if hasMore && len(vizzes) > 0 {
		last := vizzes[len(vizzes)-1]
		nextCursor = &models.VisualizationCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID.String(),
		}
	}

	return vizzes, nextCursor, hasMore, nil
}

// DeleteVisualization removes a visualization and all of its annotations.
// Both deletes run in a single transaction so a crash cannot orphan
// annotations.
func (db *DB) DeleteVisualization(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE visualization_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete annotations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM visualizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visualization: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

// SetShareToken attaches a share token to a visualization.
func (db *DB) SetShareToken(ctx context.Context, id uuid.UUID, token string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE visualizations SET share_token = ? WHERE id = ?`, token, id)
	if err != nil {
		return fmt.Errorf("failed to set share token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ClearShareToken revokes a visualization's share link.
func (db *DB) ClearShareToken(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE visualizations SET share_token = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to clear share token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// CountVisualizationsByUser returns how many visualizations a user owns.
func (db *DB) CountVisualizationsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visualizations WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visualizations: %w", err)
	}
	return count, nil
}

const vizSelectColumns = `
	SELECT id, user_id, model_name, input_text, view_type,
		html_content, token_count, truncated, share_token, created_at
	FROM visualizations
`

// scanVisualization scans a full visualization row including HTML.
func scanVisualization(row *sql.Row) (*models.Visualization, error) {
	var v models.Visualization
	var shareToken sql.NullString

	err := row.Scan(
		&v.ID, &v.UserID, &v.ModelName, &v.InputText, &v.ViewType,
		&v.HTML, &v.TokenCount, &v.Truncated, &shareToken, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan visualization: %w", err)
	}

	if shareToken.Valid {
		v.ShareToken = &shareToken.String
	}

	return &v, nil
}
