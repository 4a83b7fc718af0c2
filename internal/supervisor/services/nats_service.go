// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package services

import (
	"context"
	"fmt"
	"time"
)

// NATSComponentsRunner matches the NATS collaboration components lifecycle.
//
// This interface allows the NATSComponentsService to work with the
// components assembled in cmd/server/nats_init.go without importing the
// main package, avoiding circular dependencies:
//   - Start(ctx context.Context) error - starts the Watermill router and subscribers
//   - Shutdown(ctx context.Context) - stops the router and all components
//   - IsRunning() bool - returns running state
type NATSComponentsRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// NATSComponentsService wraps the NATS collaboration components as a
// supervised service.
//
// It adapts the Start/Shutdown lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin all NATS components
//  2. Waits for context cancellation
//  3. Calls Shutdown(ctx) for graceful cleanup
//
// The service manages multiple NATS subsystems including:
//   - Embedded NATS server (if configured)
//   - JetStream connection and publisher
//   - Watermill Router (fans annotation and render events out to WebSocket clients)
//   - Health checker
//
// Example usage:
//
//	natsComponents, _ := InitNATS(cfg, wsHub, handler)
//	svc := services.NewNATSComponentsService(natsComponents)
//	tree.AddCollaborationService(svc)
type NATSComponentsService struct {
	components      NATSComponentsRunner
	shutdownTimeout time.Duration
	name            string
}

// NewNATSComponentsService creates a new NATS components service wrapper
// with a default shutdown timeout of 10 seconds.
func NewNATSComponentsService(components NATSComponentsRunner) *NATSComponentsService {
	return &NATSComponentsService{
		components:      components,
		shutdownTimeout: 10 * time.Second,
		name:            "nats-components",
	}
}

// NewNATSComponentsServiceWithTimeout creates a NATS service with custom shutdown timeout.
func NewNATSComponentsServiceWithTimeout(components NATSComponentsRunner, shutdownTimeout time.Duration) *NATSComponentsService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &NATSComponentsService{
		components:      components,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-components",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *NATSComponentsService) Serve(ctx context.Context) error {
	if err := s.components.Start(ctx); err != nil {
		return fmt.Errorf("NATS components start failed: %w", err)
	}

	<-ctx.Done()

	// Shutdown with timeout - use fresh context since original is canceled
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.components.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *NATSComponentsService) String() string {
	return s.name
}
