// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/config"
)

// maxErrorBodySize limits the response body read for error reporting
// so a misbehaving sidecar cannot force unbounded allocation.
const maxErrorBodySize = 64 * 1024

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// RenderRequest is the payload sent to the sidecar's render endpoint.
type RenderRequest struct {
	ModelName string `json:"model_name"`
	InputText string `json:"input_text"`
	ViewType  string `json:"view_type"`
	MaxTokens int    `json:"max_tokens"`
}

// RenderResult is the sidecar's response to a render call.
type RenderResult struct {
	HTML       string `json:"html"`
	TokenCount int    `json:"token_count"`
	Truncated  bool   `json:"truncated"`
}

// SidecarHealth is the sidecar's health endpoint payload, surfaced
// through this service's own /health response.
type SidecarHealth struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	ModelName   string `json:"model_name,omitempty"`
	Version     string `json:"version,omitempty"`
}

// sidecarError is the error envelope the sidecar returns on non-200s.
type sidecarError struct {
	Detail string `json:"detail"`
}

// Renderer is the sidecar operation set. Implemented by Client for
// production, wrapped by CircuitBreakerRenderer for resilience, and
// mocked in tests.
//
// All methods are safe for concurrent use, but the sidecar itself holds
// at most one model, so Load/Render/Unload are serialized by Session.
type Renderer interface {
	Health(ctx context.Context) (*SidecarHealth, error)
	Load(ctx context.Context, modelName string) error
	Unload(ctx context.Context) error
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
}

// Client talks HTTP to the renderer sidecar.
//
// The sidecar exposes a small flat API:
//   - GET  /health  → SidecarHealth
//   - POST /load    → {model_name}
//   - POST /unload  → (no body)
//   - POST /render  → RenderRequest / RenderResult
//
// Render timeouts are generous (model load plus a forward pass can take
// minutes on CPU) and governed by the configured timeout plus the
// caller's context.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a sidecar client from the inference configuration.
func NewClient(cfg *config.InferenceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.RendererURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Health checks sidecar liveness and reports its loaded model.
func (c *Client) Health(ctx context.Context) (*SidecarHealth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("renderer health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer health check returned HTTP %d: %s",
			resp.StatusCode, readBodyForError(resp.Body))
	}

	var health SidecarHealth
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &health, nil
}

// Load asks the sidecar to load a model into memory. The sidecar frees
// any previously loaded model first.
func (c *Client) Load(ctx context.Context, modelName string) error {
	payload := struct {
		ModelName string `json:"model_name"`
	}{ModelName: modelName}

	return c.post(ctx, "/load", payload, nil)
}

// Unload asks the sidecar to free its loaded model.
func (c *Client) Unload(ctx context.Context) error {
	return c.post(ctx, "/unload", nil, nil)
}

// Render tokenizes the input and produces attention-visualization HTML
// for the currently loaded model.
func (c *Client) Render(ctx context.Context, renderReq *RenderRequest) (*RenderResult, error) {
	var result RenderResult
	if err := c.post(ctx, "/render", renderReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post sends a JSON POST and optionally decodes the response into out.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("renderer %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw := readBodyForError(resp.Body)
		var apiErr sidecarError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("renderer %s returned HTTP %d: %s", path, resp.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("renderer %s returned HTTP %d: %s", path, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
