// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package database provides database operations for the Attentia application.
//
// users.go - User Account Database Operations
//
// This file contains CRUD operations for user accounts.
//
// Security:
//   - Password hashes are stored, never plaintext passwords
//   - All operations are parameterized (SQL injection safe)
//   - Duplicate usernames/emails surface as typed sentinel errors so the
//     API layer can answer with the exact signup error strings
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/models"
)

// CreateUser inserts a new user account.
// Returns ErrDuplicateUsername or ErrDuplicateEmail when the unique
// constraints reject the insert.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	// Pre-check both constraints to report which field collided; the insert
	// below still races, so its error is translated as a fallback.
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM users WHERE username = ?`, user.Username).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return ErrDuplicateUsername
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM users WHERE email = ?`, user.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrDuplicateEmail
	}

	query := `
		INSERT INTO users (
			id, username, email, password_hash, role, provider, subject, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.conn.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.Role, user.Provider, nullableString(user.Subject), user.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, userSelectColumns+`WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, userSelectColumns+`WHERE username = ?`, username)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, userSelectColumns+`WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserBySubject retrieves an OIDC-provisioned user by issuer subject.
func (db *DB) GetUserBySubject(ctx context.Context, subject string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, userSelectColumns+`WHERE provider = 'oidc' AND subject = ?`, subject)
	return scanUser(row)
}

// UpdateUserRole changes a user's role.
func (db *DB) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if !models.IsValidRole(role) {
		return fmt.Errorf("invalid role: %s", role)
	}

	result, err := db.conn.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
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

// CountUsers returns the total number of accounts.
func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

const userSelectColumns = `
	SELECT id, username, email, password_hash, role, provider, subject, created_at
	FROM users
`

// scanUser scans a single user row, translating sql.ErrNoRows to ErrNotFound.
func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var subject sql.NullString

	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.Provider, &subject, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if subject.Valid {
		user.Subject = subject.String
	}

	return &user, nil
}

// nullableString converts an empty string to a SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
