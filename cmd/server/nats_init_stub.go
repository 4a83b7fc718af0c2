// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build !nats

package main

import (
	"context"

	"github.com/nilskoch/attentia/internal/api"
	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/logging"
	ws "github.com/nilskoch/attentia/internal/websocket"
)

// NATSComponents is a stub for builds without the nats tag.
type NATSComponents struct{}

// InitNATS is a no-op for builds without NATS support. Warns when the
// configuration requests NATS so a misconfigured deployment is visible.
func InitNATS(cfg *config.Config, _ *ws.Hub, _ *api.Handler) (*NATSComponents, error) {
	if cfg.NATS.Enabled {
		logging.Warn().Msg("NATS_ENABLED=true but binary was built without NATS support")
		logging.Warn().Msg("Rebuild with: go build -tags nats ./cmd/server")
	}
	return nil, nil
}

// Start is a no-op for builds without NATS support.
func (n *NATSComponents) Start(_ context.Context) error { return nil }

// Shutdown is a no-op for builds without NATS support.
func (n *NATSComponents) Shutdown(_ context.Context) {}

// IsRunning always returns false for builds without NATS support.
func (n *NATSComponents) IsRunning() bool { return false }
