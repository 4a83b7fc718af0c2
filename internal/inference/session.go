// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
)

// StatusHub broadcasts model lifecycle events to WebSocket clients.
// Implemented by the websocket hub; optional (can be nil).
type StatusHub interface {
	BroadcastModelStatus(modelName, status, reason string)
}

// SizeChecker looks up model weight sizes before a load is attempted.
// Implemented by HubClient; mocked in tests.
type SizeChecker interface {
	ModelSize(ctx context.Context, modelName string) (int64, error)
}

// Session serializes access to the sidecar's single model slot.
//
// The sidecar holds at most one model in memory. Session memoizes which
// model that is and only issues load calls when the requested model
// differs, so back-to-back renders against the same model skip the
// expensive load entirely. The admission size check runs only on a
// switch: a model that is already loaded was already admitted.
//
// All methods are safe for concurrent use; render calls for different
// models queue behind the mutex rather than thrashing the slot.
type Session struct {
	renderer Renderer
	sizes    SizeChecker
	hub      StatusHub

	maxModelBytes int64
	maxTokens     int

	mu      sync.Mutex
	current string // loaded model name, "" when the slot is free
}

// NewSession creates the model session guard.
func NewSession(renderer Renderer, sizes SizeChecker, hub StatusHub, cfg *config.InferenceConfig) *Session {
	maxBytes := cfg.MaxModelBytes
	if maxBytes <= 0 {
		maxBytes = 6 << 30
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 50
	}
	return &Session{
		renderer:      renderer,
		sizes:         sizes,
		hub:           hub,
		maxModelBytes: maxBytes,
		maxTokens:     maxTokens,
	}
}

// Render ensures modelName occupies the slot, then renders. The
// returned result carries the attention HTML plus token metadata.
func (s *Session) Render(ctx context.Context, modelName, inputText, viewType string) (*RenderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, modelName); err != nil {
		return nil, err
	}

	result, err := s.renderer.Render(ctx, &RenderRequest{
		ModelName: modelName,
		InputText: inputText,
		ViewType:  viewType,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("render with %s: %w", modelName, err)
	}

	metrics.RecordRenderedInput(result.TokenCount, result.Truncated)
	return result, nil
}

// ensureLoadedLocked performs the load-if-different dance. Caller holds
// the mutex.
func (s *Session) ensureLoadedLocked(ctx context.Context, modelName string) error {
	if s.current == modelName {
		logging.Debug().Str("model", modelName).Msg("Model already loaded, reusing slot")
		return nil
	}

	if err := s.admitLocked(ctx, modelName); err != nil {
		return err
	}

	if s.current != "" {
		logging.Info().Str("from", s.current).Str("to", modelName).Msg("Switching model slot")
		if err := s.renderer.Unload(ctx); err != nil {
			// The sidecar frees the old model on load anyway; log and
			// continue.
			logging.Warn().Err(err).Str("model", s.current).Msg("Unload before switch failed")
		} else {
			metrics.RecordModelUnload()
			s.broadcast(s.current, "unloaded", "")
		}
		s.current = ""
	}

	start := time.Now()
	err := s.renderer.Load(ctx, modelName)
	metrics.RecordModelLoad(time.Since(start), err)
	if err != nil {
		s.broadcast(modelName, "load_failed", err.Error())
		return fmt.Errorf("load model %s: %w", modelName, err)
	}

	s.current = modelName
	logging.Info().Str("model", modelName).Dur("duration", time.Since(start)).Msg("Model loaded")
	s.broadcast(modelName, "loaded", "")
	return nil
}

// admitLocked runs the hub size check for a model about to enter the
// slot. Rejections are counted by reason.
func (s *Session) admitLocked(ctx context.Context, modelName string) error {
	size, err := s.sizes.ModelSize(ctx, modelName)
	if err != nil {
		switch {
		case errors.Is(err, ErrModelGated):
			metrics.RecordModelRejection("gated")
		case errors.Is(err, ErrModelNotFound):
			metrics.RecordModelRejection("not_found")
		default:
			metrics.RecordModelRejection("metadata_error")
		}
		return err
	}

	if size > s.maxModelBytes {
		metrics.RecordModelRejection("too_large")
		return &ModelSizeError{
			ModelName:  modelName,
			SizeBytes:  size,
			LimitBytes: s.maxModelBytes,
		}
	}
	return nil
}

// Unload frees the model slot.
func (s *Session) Unload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return nil
	}

	if err := s.renderer.Unload(ctx); err != nil {
		return fmt.Errorf("unload model %s: %w", s.current, err)
	}

	metrics.RecordModelUnload()
	s.broadcast(s.current, "unloaded", "")
	logging.Info().Str("model", s.current).Msg("Model slot freed")
	s.current = ""
	return nil
}

// Current returns the loaded model name, or "" when the slot is free.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) broadcast(modelName, status, reason string) {
	if s.hub != nil {
		s.hub.BroadcastModelStatus(modelName, status, reason)
	}
}
