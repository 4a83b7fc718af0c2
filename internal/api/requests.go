// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import "net/http"

// SignupRequest creates a local account.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest authenticates a local account.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=254"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// VisualizeRequest submits text for attention rendering. ViewType
// defaults to "head" when omitted.
type VisualizeRequest struct {
	ModelName string `json:"model_name" validate:"required,model_id"`
	InputText string `json:"input_text" validate:"required,min=1,max=2000,prompt_text"`
	ViewType  string `json:"view_type"  validate:"omitempty,oneof=head model"`
}

// AnnotationCreateRequest anchors a note to a token range.
// The start<=end ordering is checked in the handler so the error message
// can name the range explicitly.
type AnnotationCreateRequest struct {
	Content    string `json:"content"     validate:"required,min=1,max=2000"`
	StartToken int    `json:"start_token" validate:"min=0"`
	EndToken   int    `json:"end_token"   validate:"min=0"`
}

// AnnotationUpdateRequest carries a partial annotation edit. Nil fields
// keep their current values.
type AnnotationUpdateRequest struct {
	Content    *string `json:"content"     validate:"omitempty,min=1,max=2000"`
	StartToken *int    `json:"start_token" validate:"omitempty,min=0"`
	EndToken   *int    `json:"end_token"   validate:"omitempty,min=0"`
}

// decodeVisualizeRequest reads a submission from either a browser form
// post or a JSON body.
func decodeVisualizeRequest(r *http.Request) (*VisualizeRequest, error) {
	if wantsHTML(r) {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return &VisualizeRequest{
			ModelName: r.PostFormValue("model_name"),
			InputText: r.PostFormValue("input_text"),
			ViewType:  r.PostFormValue("view_type"),
		}, nil
	}

	var req VisualizeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
