// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz.
const (
	// RoleViewer is the default role with read-only access.
	RoleViewer = "viewer"

	// RoleEditor can create visualizations and annotations, and inherits viewer permissions.
	RoleEditor = "editor"

	// RoleAdmin has full access including audit queries and cache administration,
	// and inherits editor permissions.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleEditor, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an account in the system.
//
// Accounts are created either through self-service signup (granted the
// configured signup role, editor by default) or provisioned via OIDC on
// first login. The password hash is bcrypt and never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`

	// Provider records how the account authenticates: "local" or "oidc".
	Provider string `json:"provider"`

	// Subject is the OIDC subject claim for externally provisioned accounts.
	// Empty for local accounts.
	Subject string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanWrite reports whether the user may create or modify content.
func (u *User) CanWrite() bool {
	return u.Role == RoleEditor || u.Role == RoleAdmin
}
