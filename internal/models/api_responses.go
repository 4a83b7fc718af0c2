// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all JSON
// endpoints. It provides consistent structure for both successful and error
// responses, with metadata for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"id": "7f9c...", "model_name": "google/gemma-2b"},
//	  "metadata": {
//	    "timestamp": "2026-08-26T12:00:00Z",
//	    "query_time_ms": 12,
//	    "cached": false
//	  }
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339)
//   - QueryTimeMS: Database query execution time in milliseconds (0 if cached)
//   - Cached: Whether the response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - DATABASE_ERROR: Query execution failure
//   - AUTHENTICATION_ERROR: Invalid/missing credentials
//   - AUTHORIZATION_ERROR: Insufficient permissions
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - RENDERER_ERROR: The renderer sidecar failed or refused the request
//   - MODEL_TOO_LARGE: Requested model exceeds the configured size limit
//   - MODEL_ACCESS_DENIED: Requested model is gated on the hub
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo contains cursor-based pagination metadata.
//
// Cursor format: base64-encoded JSON with timestamp + ID for stable sorting.
// Cursors are opaque to clients and survive concurrent inserts without
// shifting pages the way OFFSET does.
type PaginationInfo struct {
	Limit      int     `json:"limit"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
	TotalCount *int    `json:"total_count,omitempty"`
}

// VisualizationCursor encodes the position in the visualization list using
// created_at + ID for stable sorting. Encoded as base64 JSON for opaque
// client usage.
type VisualizationCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// VisualizationsResponse wraps a page of visualizations with pagination info.
type VisualizationsResponse struct {
	Visualizations []Visualization `json:"visualizations"`
	Pagination     PaginationInfo  `json:"pagination"`
}

// TokenResponse is returned by signup and login on success.
// TokenType is always "bearer".
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
}
