// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
database_schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management.

Tables:
  - users: Accounts with bcrypt password hashes and role assignments
  - visualizations: Rendered attention visualizations with their input parameters
  - annotations: Collaborative notes anchored to token ranges
  - audit_events: Append-only audit trail (written by internal/audit)

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statements. After the
first public release, schema changes go through versioned migrations in
migrations.go instead.

Index Strategy:
Indexes are created for:
  - Login lookups (username, email, OIDC subject)
  - The visualization list (user_id + created_at for cursor pagination)
  - Share link resolution (share_token)
  - Annotation listing (visualization_id)
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	queries := []string{
		// Users table. The unique constraints back the duplicate checks
		// during signup; provider/subject identify OIDC-provisioned accounts.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'viewer',
			provider TEXT NOT NULL DEFAULT 'local',
			subject TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Visualizations table. The rendered HTML is persisted alongside the
		// input parameters so pages survive renderer restarts and model swaps.
		`CREATE TABLE IF NOT EXISTS visualizations (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			model_name TEXT NOT NULL,
			input_text TEXT NOT NULL,
			view_type TEXT NOT NULL,
			html_content TEXT NOT NULL,
			token_count INTEGER NOT NULL DEFAULT 0,
			truncated BOOLEAN NOT NULL DEFAULT false,
			share_token TEXT UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Annotations table. Token indices are zero-based and inclusive.
		`CREATE TABLE IF NOT EXISTS annotations (
			id UUID PRIMARY KEY,
			visualization_id UUID NOT NULL,
			user_id UUID NOT NULL,
			content TEXT NOT NULL,
			start_token INTEGER NOT NULL,
			end_token INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Audit events table. Written by internal/audit; details is a JSON
		// document stored as TEXT to keep the schema extension-free.
		`CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			event_type TEXT NOT NULL,
			user_id TEXT,
			username TEXT,
			ip_address TEXT,
			resource_type TEXT,
			resource_id TEXT,
			success BOOLEAN NOT NULL DEFAULT true,
			details TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}

	return queries
}

// createIndexes creates indexes for common query patterns.
// Skips index creation if cfg.SkipIndexes is true (for fast test setup).
func (db *DB) createIndexes() error {
	if db.cfg != nil && db.cfg.SkipIndexes {
		return nil
	}

	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		// Login and provisioning lookups
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
		`CREATE INDEX IF NOT EXISTS idx_users_subject ON users(provider, subject);`,

		// Visualization list (cursor pagination orders by created_at DESC, id)
		`CREATE INDEX IF NOT EXISTS idx_viz_user_created ON visualizations(user_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_viz_created ON visualizations(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_viz_share_token ON visualizations(share_token);`,

		// Annotation listing and cascade deletes
		`CREATE INDEX IF NOT EXISTS idx_annotations_viz ON annotations(visualization_id);`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_user ON annotations(user_id);`,

		// Audit queries filter by time, event type, and actor
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_events(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_event_type ON audit_events(event_type);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_events(user_id);`,
	}

	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}

	return nil
}
