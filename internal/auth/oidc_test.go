// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package auth

import (
	"testing"
	"time"

	"github.com/zitadel/oidc/v3/pkg/oidc"
)

func newTestFlow() *OIDCFlow {
	return &OIDCFlow{
		usernameClaims: []string{"preferred_username", "name", "email"},
		defaultRole:    "editor",
		states:         make(map[string]time.Time),
	}
}

func TestOIDCFlow_ConsumeState(t *testing.T) {
	f := newTestFlow()

	state, err := generateState()
	if err != nil {
		t.Fatalf("generateState failed: %v", err)
	}
	f.states[state] = time.Now().Add(stateTTL)

	if err := f.consumeState(state); err != nil {
		t.Errorf("expected valid state to be consumed, got %v", err)
	}

	// States are single-use
	if err := f.consumeState(state); err == nil {
		t.Error("expected error on state reuse")
	}
}

func TestOIDCFlow_ConsumeState_Expired(t *testing.T) {
	f := newTestFlow()
	f.states["old-state"] = time.Now().Add(-time.Minute)

	if err := f.consumeState("old-state"); err == nil {
		t.Error("expected error for expired state")
	}
}

func TestOIDCFlow_ConsumeState_Unknown(t *testing.T) {
	f := newTestFlow()

	if err := f.consumeState(""); err == nil {
		t.Error("expected error for empty state")
	}
	if err := f.consumeState("never-issued"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestOIDCFlow_PruneExpiredStates(t *testing.T) {
	f := newTestFlow()
	f.states["expired"] = time.Now().Add(-time.Minute)
	f.states["live"] = time.Now().Add(stateTTL)

	f.mu.Lock()
	f.pruneLocked()
	f.mu.Unlock()

	if _, ok := f.states["expired"]; ok {
		t.Error("expected expired state to be pruned")
	}
	if _, ok := f.states["live"]; !ok {
		t.Error("expected live state to survive pruning")
	}
}

func TestOIDCFlow_ResolveUsername(t *testing.T) {
	f := newTestFlow()

	tests := []struct {
		name     string
		claims   *oidc.IDTokenClaims
		expected string
	}{
		{
			name: "preferred_username wins",
			claims: &oidc.IDTokenClaims{
				UserInfoProfile: oidc.UserInfoProfile{PreferredUsername: "alice", Name: "Alice A"},
				UserInfoEmail:   oidc.UserInfoEmail{Email: "alice@example.com"},
			},
			expected: "alice",
		},
		{
			name: "falls back to name",
			claims: &oidc.IDTokenClaims{
				UserInfoProfile: oidc.UserInfoProfile{Name: "Alice A"},
				UserInfoEmail:   oidc.UserInfoEmail{Email: "alice@example.com"},
			},
			expected: "Alice A",
		},
		{
			name: "falls back to email",
			claims: &oidc.IDTokenClaims{
				UserInfoEmail: oidc.UserInfoEmail{Email: "alice@example.com"},
			},
			expected: "alice@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.resolveUsername(tt.claims); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestOIDCFlow_DefaultRole(t *testing.T) {
	f := newTestFlow()
	if got := f.DefaultRole(); got != "editor" {
		t.Errorf("expected editor, got %s", got)
	}

	f.defaultRole = ""
	if got := f.DefaultRole(); got != "editor" {
		t.Errorf("expected editor fallback, got %s", got)
	}
}

func TestGenerateState_Unique(t *testing.T) {
	a, err := generateState()
	if err != nil {
		t.Fatalf("generateState failed: %v", err)
	}
	b, err := generateState()
	if err != nil {
		t.Fatalf("generateState failed: %v", err)
	}
	if a == b {
		t.Error("expected unique states")
	}
	if len(a) < 30 {
		t.Errorf("state too short: %d chars", len(a))
	}
}
