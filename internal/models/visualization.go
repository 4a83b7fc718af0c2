// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package models

import (
	"time"

	"github.com/google/uuid"
)

// View type constants define the supported attention view layouts.
const (
	// ViewTypeHead renders per-head attention patterns for a selected layer.
	ViewTypeHead = "head"

	// ViewTypeModel renders a model-wide overview across all layers and heads.
	ViewTypeModel = "model"
)

// ValidViewTypes contains all valid view type names for validation.
var ValidViewTypes = []string{ViewTypeHead, ViewTypeModel}

// IsValidViewType checks if a view type name is valid.
func IsValidViewType(viewType string) bool {
	for _, v := range ValidViewTypes {
		if v == viewType {
			return true
		}
	}
	return false
}

// Visualization represents a rendered attention visualization.
//
// The HTML payload is produced by the renderer sidecar from the model name,
// input text, and view type, then persisted so the page can be served without
// re-running the model. TokenCount and Truncated record what the tokenizer
// actually processed: inputs longer than the configured token limit are cut
// and flagged so the UI can tell the user.
//
// ShareToken is nil until the owner creates a share link. Once set it is a
// stable, unguessable token granting read-only access without authentication.
type Visualization struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ModelName  string    `json:"model_name"`
	InputText  string    `json:"input_text"`
	ViewType   string    `json:"view_type"`
	HTML       string    `json:"html,omitempty"`
	TokenCount int       `json:"token_count"`
	Truncated  bool      `json:"truncated"`
	ShareToken *string   `json:"share_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns a copy without the HTML payload for list responses.
// Rendered HTML runs to hundreds of kilobytes and is only needed on the
// detail page.
func (v *Visualization) Summary() Visualization {
	s := *v
	s.HTML = ""
	return s
}

// IsShared reports whether a share link exists for this visualization.
func (v *Visualization) IsShared() bool {
	return v.ShareToken != nil && *v.ShareToken != ""
}
