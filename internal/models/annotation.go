// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package models

import (
	"time"

	"github.com/google/uuid"
)

// Annotation represents a collaborative note anchored to a token range
// of a visualization.
//
// StartToken and EndToken are zero-based indices into the tokenized input,
// inclusive on both ends. A single-token annotation has StartToken equal to
// EndToken. The range is validated against 0 <= start <= end at the API
// boundary; the upper bound is checked against the visualization's token
// count where one is known.
type Annotation struct {
	ID              uuid.UUID `json:"id"`
	VisualizationID uuid.UUID `json:"visualization_id"`
	UserID          uuid.UUID `json:"user_id"`
	Content         string    `json:"content"`
	StartToken      int       `json:"start_token"`
	EndToken        int       `json:"end_token"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAuthor reports whether the given user wrote this annotation.
// Only the author may edit or delete an annotation.
func (a *Annotation) IsAuthor(userID uuid.UUID) bool {
	return a.UserID == userID
}

// TokenRangeValid reports whether the token range is internally consistent.
func (a *Annotation) TokenRangeValid() bool {
	return a.StartToken >= 0 && a.StartToken <= a.EndToken
}

// AnnotationWithUser joins the author's username onto an annotation for
// list responses, so clients need not resolve user IDs separately.
type AnnotationWithUser struct {
	Annotation
	Username string `json:"username"`
}
