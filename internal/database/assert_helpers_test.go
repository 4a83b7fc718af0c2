// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package database

import (
	"errors"
	"testing"
)

// Test assertion helpers with "check" prefix to avoid conflicts with existing helpers.
// Using t.Helper() ensures error messages point to the calling line.

// checkNoError fails the test if err is not nil
func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// checkErrorIs fails the test unless errors.Is(err, want)
func checkErrorIs(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected error %v, got %v", want, err)
	}
}

// checkStringEqual checks that got equals want
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkTrue checks that the condition holds
func checkTrue(t *testing.T, name string, cond bool) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", name)
	}
}

// checkFalse checks that the condition does not hold
func checkFalse(t *testing.T, name string, cond bool) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", name)
	}
}
