// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/config"
)

// Model admission errors. Handlers map these to user-facing pages:
// gated → 403 Access Denied, too large → 413, not found → 404.
var (
	ErrModelGated    = errors.New("model is gated and requires access approval")
	ErrModelNotFound = errors.New("model not found on the hub")
	ErrModelTooLarge = errors.New("model exceeds the size limit")
)

// ModelSizeError carries the measured size for the too-large error page.
type ModelSizeError struct {
	ModelName  string
	SizeBytes  int64
	LimitBytes int64
}

func (e *ModelSizeError) Error() string {
	return fmt.Sprintf("model %s is %.2f GB (limit: %.2f GB)",
		e.ModelName,
		float64(e.SizeBytes)/(1<<30),
		float64(e.LimitBytes)/(1<<30))
}

// Unwrap lets errors.Is(err, ErrModelTooLarge) match.
func (e *ModelSizeError) Unwrap() error { return ErrModelTooLarge }

// hubModelInfo is the subset of the hub's model-info response we read.
type hubModelInfo struct {
	Siblings []hubSibling `json:"siblings"`
}

// hubSibling is one repository file entry. Size is a pointer because
// the hub omits it for some file types.
type hubSibling struct {
	Rfilename string `json:"rfilename"`
	Size      *int64 `json:"size"`
}

// HubClient queries the Hugging Face hub API for model weight sizes.
// It never downloads weights; only file metadata.
type HubClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHubClient creates a hub metadata client. The optional token lets
// size checks see gated models the deployment has access to.
func NewHubClient(cfg *config.InferenceConfig) *HubClient {
	baseURL := strings.TrimSuffix(cfg.HFHubURL, "/")
	if baseURL == "" {
		baseURL = "https://huggingface.co"
	}
	return &HubClient{
		baseURL: baseURL,
		token:   cfg.HFToken,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ModelSize returns the total weight size in bytes for a model.
//
// Weights are summed from .safetensors files when any exist, otherwise
// from .bin files, matching how the hub stores a model in exactly one
// of the two formats (safetensors preferred).
//
// Returns ErrModelGated on 401/403 and ErrModelNotFound on 404.
func (h *HubClient) ModelSize(ctx context.Context, modelName string) (int64, error) {
	// Escape per path segment: model names are org/name and the slash
	// must survive.
	segments := strings.Split(modelName, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	reqURL := fmt.Sprintf("%s/api/models/%s?blobs=true", h.baseURL, strings.Join(segments, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create hub request: %w", err)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("hub model lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return 0, fmt.Errorf("%w: %s", ErrModelGated, modelName)
	case http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", ErrModelNotFound, modelName)
	default:
		return 0, fmt.Errorf("hub returned HTTP %d for %s: %s",
			resp.StatusCode, modelName, readBodyForError(resp.Body))
	}

	var info hubModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return 0, fmt.Errorf("decode hub response: %w", err)
	}

	hasSafetensors := false
	for _, f := range info.Siblings {
		if strings.HasSuffix(f.Rfilename, ".safetensors") {
			hasSafetensors = true
			break
		}
	}

	var total int64
	for _, f := range info.Siblings {
		if f.Size == nil {
			continue
		}
		if hasSafetensors {
			if strings.HasSuffix(f.Rfilename, ".safetensors") {
				total += *f.Size
			}
		} else if strings.HasSuffix(f.Rfilename, ".bin") {
			total += *f.Size
		}
	}
	return total, nil
}
