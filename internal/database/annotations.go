// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package database provides database operations for the Attentia application.
//
// annotations.go - Annotation Database Operations
//
// This file contains CRUD operations for annotations. List queries join the
// users table so responses carry the author's username without a second
// round trip.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/models"
)

// InsertAnnotation persists a new annotation.
func (db *DB) InsertAnnotation(ctx context.Context, a *models.Annotation) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO annotations (
			id, visualization_id, user_id, content,
			start_token, end_token, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.conn.ExecContext(ctx, query,
		a.ID, a.VisualizationID, a.UserID, a.Content,
		a.StartToken, a.EndToken, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}

	return nil
}

// GetAnnotation retrieves an annotation by ID.
func (db *DB) GetAnnotation(ctx context.Context, id uuid.UUID) (*models.Annotation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, visualization_id, user_id, content,
			start_token, end_token, created_at, updated_at
		FROM annotations
		WHERE id = ?
	`

	var a models.Annotation
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.VisualizationID, &a.UserID, &a.Content,
		&a.StartToken, &a.EndToken, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan annotation: %w", err)
	}

	return &a, nil
}

// GetAnnotationsForVisualization returns all annotations on a visualization
// in creation order, each joined with the author's username.
func (db *DB) GetAnnotationsForVisualization(ctx context.Context, vizID uuid.UUID) ([]models.AnnotationWithUser, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT a.id, a.visualization_id, a.user_id, a.content,
			a.start_token, a.end_token, a.created_at, a.updated_at,
			u.username
		FROM annotations a
		JOIN users u ON a.user_id = u.id
		WHERE a.visualization_id = ?
		ORDER BY a.created_at ASC, a.id ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, vizID)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var annotations []models.AnnotationWithUser
	for rows.Next() {
		var a models.AnnotationWithUser
		err := rows.Scan(
			&a.ID, &a.VisualizationID, &a.UserID, &a.Content,
			&a.StartToken, &a.EndToken, &a.CreatedAt, &a.UpdatedAt,
			&a.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating annotations: %w", err)
	}

	if annotations == nil {
		annotations = []models.AnnotationWithUser{}
	}

	return annotations, nil
}

// UpdateAnnotation updates an annotation's content and token range,
// bumping updated_at.
func (db *DB) UpdateAnnotation(ctx context.Context, a *models.Annotation) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	a.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE annotations SET content = ?, start_token = ?, end_token = ?, updated_at = ? WHERE id = ?`,
		a.Content, a.StartToken, a.EndToken, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update annotation: %w", err)
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

// DeleteAnnotation removes an annotation.
func (db *DB) DeleteAnnotation(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
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

// CountAnnotationsForVisualization returns the number of annotations on a
// visualization.
func (db *DB) CountAnnotationsForVisualization(ctx context.Context, vizID uuid.UUID) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM annotations WHERE visualization_id = ?`, vizID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count annotations: %w", err)
	}
	return count, nil
}
