// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package main

import (
	"context"
	"testing"
	"time"

	"github.com/nilskoch/attentia/internal/config"
)

func TestInitNATSDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.NATS.Enabled = false

	components, err := InitNATS(cfg, nil, nil)
	if err != nil {
		t.Fatalf("InitNATS with NATS disabled returned error: %v", err)
	}
	if components != nil {
		t.Error("expected nil components when NATS is disabled")
	}
}

func TestNATSComponentsNilSafety(t *testing.T) {
	var components *NATSComponents

	t.Run("Start on nil components", func(t *testing.T) {
		if err := components.Start(context.Background()); err != nil {
			t.Errorf("Start on nil components returned error: %v", err)
		}
	})

	t.Run("Shutdown on nil components", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		components.Shutdown(ctx) // must not panic
	})

	t.Run("IsRunning on nil components", func(t *testing.T) {
		if components.IsRunning() {
			t.Error("nil components reported running")
		}
	})
}

func TestNATSComponentsShutdownIdempotent(t *testing.T) {
	components := &NATSComponents{}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	components.Shutdown(ctx)
	components.Shutdown(ctx) // second call must be a no-op

	if components.IsRunning() {
		t.Error("components reported running after shutdown")
	}
}
