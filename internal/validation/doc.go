// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with custom validators and user-friendly error
// messages. It integrates with the application's API error format for consistent
// error responses.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Comprehensive error translation to human-readable messages
//   - APIError conversion matching the application's error format
//   - Built-in validator support (email, uuid, oneof, etc.)
//   - Future v11 compatibility with WithRequiredStructEnabled
//
// # Custom Validators
//
// Two domain-specific validators are registered:
//
//   - model_id: hub model identifiers ("google/gemma-2b", "gpt2").
//     Letters, digits, slash, dot, underscore, hyphen only. No "..",
//     no leading "/", at most 256 characters.
//   - prompt_text: free-form prompt text. Rejects SQL comment markers,
//     script tags, javascript: URLs, and template expansion syntax.
//
// # Quick Start
//
//	type VisualizeRequest struct {
//	    ModelName string `validate:"required,model_id"`
//	    Text      string `validate:"required,min=1,max=2000,prompt_text"`
//	    ViewType  string `validate:"required,oneof=head model"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req VisualizeRequest
//	    if err := json.Decode(r.Body, &req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n: Minimum length n characters
//   - max=n: Maximum length n characters
//   - email: Valid email format
//   - uuid: Valid UUID format
//   - oneof=a b: Value must be one of the listed options
//
// Numeric validations:
//   - gte=n: Greater than or equal to n
//   - lte=n: Less than or equal to n
//   - min=n: Minimum value n
//   - max=n: Maximum value n
//
// # Thread Safety
//
// The singleton validator caches struct metadata and is safe for concurrent
// use. Custom validators are registered exactly once under sync.Once.
package validation
