// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package eventprocessor

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test-breaker")
	cfg.FailureThreshold = 3
	cb := NewCircuitBreaker(cfg)

	if got := CircuitBreakerState(cb); got != "closed" {
		t.Fatalf("initial state = %s, want closed", got)
	}

	failing := func() (interface{}, error) {
		return nil, errors.New("publish failed")
	}

	for i := 0; i < 3; i++ {
		_, _ = ExecuteWithBreaker(cb, failing)
	}

	if got := CircuitBreakerState(cb); got != "open" {
		t.Errorf("state after %d failures = %s, want open", 3, got)
	}

	// Calls while open fail fast without invoking the function
	called := false
	_, err := ExecuteWithBreaker(cb, func() (interface{}, error) {
		called = true
		return nil, nil
	})
	if err == nil {
		t.Error("expected error while breaker is open")
	}
	if called {
		t.Error("function should not run while breaker is open")
	}
}

func TestCircuitBreakerStaysClosedOnSuccess(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("test-breaker")
	cfg.Timeout = 10 * time.Millisecond
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 10; i++ {
		if _, err := ExecuteWithBreaker(cb, func() (interface{}, error) {
			return "ok", nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := CircuitBreakerState(cb); got != "closed" {
		t.Errorf("state = %s, want closed", got)
	}
}
