// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/models"
	"github.com/nilskoch/attentia/internal/validation"
	"github.com/nilskoch/attentia/internal/web"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection. Newlines, carriage returns and other control characters could
// otherwise forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if status == http.StatusOK {
		w.Header().Set("ETag", generateETag(data))
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondData wraps a payload in the success envelope.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError carrying the
// VALIDATION_ERROR code and per-field details.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// escapeCSV escapes a string for CSV output: values containing a comma,
// quote, or newline are wrapped in quotes with internal quotes doubled.
func escapeCSV(s string) string {
	needsQuotes := strings.ContainsAny(s, ",\"\n\r")
	if !needsQuotes {
		return s
	}
	return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
}

// maxRequestBodySize caps JSON request bodies at 1 MiB. The largest
// legitimate payload is a 2000-character prompt.
const maxRequestBodySize = 1 << 20

// decodeJSONBody decodes a JSON request body with a size cap.
func decodeJSONBody(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// wantsHTML reports whether the request came from a browser form
// navigation rather than an API client. Form posts are answered with
// redirects, API calls with JSON.
func wantsHTML(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// currentUser resolves the authenticated user's ID and claims from the
// request context. Returns ok=false when the request is unauthenticated
// or the token subject is malformed.
func currentUser(r *http.Request) (uuid.UUID, *auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, nil, false
	}
	return id, claims, true
}

// auditActor builds the audit actor for the request, falling back to the
// system actor for unauthenticated requests.
func auditActor(r *http.Request) audit.Actor {
	if _, claims, ok := currentUser(r); ok {
		return audit.ActorFromUser(claims.Subject, claims.Username, []string{claims.Role}, "jwt")
	}
	return audit.SystemActor()
}

// renderPage executes an HTML page template, falling back to a plain
// 500 when templates are unavailable or execution fails midway.
func (h *Handler) renderPage(w http.ResponseWriter, status int, name string, data interface{}) {
	if h.pages == nil {
		http.Error(w, "page templates unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages.Render(w, name, data); err != nil {
		logging.Error().Err(err).Str("template", name).Msg("Failed to render page")
	}
}

// renderErrorPage shows the error page for browser navigations.
func (h *Handler) renderErrorPage(w http.ResponseWriter, status int, title, message string) {
	h.renderPage(w, status, "error", web.ErrorData{
		Status:  status,
		Title:   title,
		Message: message,
	})
}
