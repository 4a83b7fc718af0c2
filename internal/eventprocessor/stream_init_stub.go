// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build !nats

package eventprocessor

import (
	"context"
)

// StreamInitializer is a stub when NATS dependencies are not available.
// Build with -tags=nats to enable JetStream stream management.
type StreamInitializer struct {
	config StreamConfig
}

// NewStreamInitializer returns an error when NATS dependencies are not available.
func NewStreamInitializer(js interface{}, cfg *StreamConfig) (*StreamInitializer, error) {
	return nil, ErrNATSNotEnabled
}

// EnsureStream is a stub that returns an error.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (interface{}, error) {
	return nil, ErrNATSNotEnabled
}

// IsHealthy always returns false for the stub.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	return false
}

// Config returns the current stream configuration.
func (s *StreamInitializer) Config() StreamConfig {
	return s.config
}
