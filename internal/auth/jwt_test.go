// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nilskoch/attentia/internal/config"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      "test-secret-key-that-is-at-least-32-chars",
		SessionTimeout: 24 * time.Hour,
	}
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTSecret = ""
	if _, err := NewJWTManager(cfg); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	userID := uuid.New()
	token, err := manager.GenerateToken(userID, "alice", "editor")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %s", claims.Username)
	}
	if claims.Role != "editor" {
		t.Errorf("expected role editor, got %s", claims.Role)
	}

	gotID, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID failed: %v", err)
	}
	if gotID != userID {
		t.Errorf("expected user ID %s, got %s", userID, gotID)
	}
}

func TestJWTManager_RejectsTamperedToken(t *testing.T) {
	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := manager.GenerateToken(uuid.New(), "alice", "editor")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	// Flip characters in the signature segment
	tampered := token[:len(token)-2] + "xx"
	if _, err := manager.ValidateToken(tampered); err == nil {
		t.Error("expected error for tampered token")
	}
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.SessionTimeout = -1 * time.Hour
	manager, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	token, err := manager.GenerateToken(uuid.New(), "alice", "editor")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestJWTManager_RejectsWrongAlgorithm(t *testing.T) {
	manager, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager failed: %v", err)
	}

	// Tokens signed with the "none" algorithm must be rejected
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Username: "alice",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := manager.ValidateToken(tokenString); err == nil {
		t.Error("expected error for none-algorithm token")
	}
}

func TestClaims_UserID_InvalidSubject(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "not-a-uuid"},
	}
	if _, err := claims.UserID(); err == nil {
		t.Error("expected error for invalid subject")
	}
}
