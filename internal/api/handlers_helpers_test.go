// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nilskoch/attentia/internal/models"
)

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"comma", "a,b", "\"a,b\""},
		{"quote", "say \"hi\"", "\"say \"\"hi\"\"\""},
		{"newline", "line1\nline2", "\"line1\nline2\""},
		{"carriage return", "a\rb", "\"a\rb\""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeCSV(tt.input); got != tt.want {
				t.Errorf("escapeCSV(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "normal text", "normal text"},
		{"newline injection", "user\nFAKE LOG", "user\\x0aFAKE LOG"},
		{"carriage return", "a\rb", "a\\x0db"},
		{"tab", "a\tb", "a\\x09b"},
		{"unicode preserved", "modèle café", "modèle café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogValue(tt.input); got != tt.want {
				t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateETagDeterministic(t *testing.T) {
	a := generateETag([]byte("payload"))
	b := generateETag([]byte("payload"))
	c := generateETag([]byte("different"))

	if a != b {
		t.Errorf("same payload produced different ETags: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different payloads produced the same ETag")
	}
}

func TestWantsHTML(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		accept      string
		want        bool
	}{
		{"form post", "application/x-www-form-urlencoded", "", true},
		{"json api", "application/json", "application/json", false},
		{"browser navigation", "", "text/html,application/xhtml+xml", true},
		{"json preferred", "", "text/html,application/json", false},
		{"no headers", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", nil)
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := wantsHTML(r); got != tt.want {
				t.Errorf("wantsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := &models.VisualizationCursor{
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ID:        "4e8a8cc4-9a3c-4c1b-a9b8-2f1f0a3d7e61",
	}

	encoded := encodeCursor(cursor)
	if encoded == "" {
		t.Fatal("encodeCursor returned empty string")
	}
	if strings.ContainsAny(encoded, "{}\" ") {
		t.Errorf("cursor is not opaque: %q", encoded)
	}

	decoded, err := decodeCursor(encoded)
	if err != nil {
		t.Fatalf("decodeCursor error: %v", err)
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) || decoded.ID != cursor.ID {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, cursor)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	cursor, err := decodeCursor("")
	if err != nil {
		t.Fatalf("empty cursor should not error: %v", err)
	}
	if cursor != nil {
		t.Errorf("empty cursor should decode to nil, got %+v", cursor)
	}
}

func TestDecodeCursorGarbage(t *testing.T) {
	if _, err := decodeCursor("not-base64!!!"); err == nil {
		t.Error("invalid base64 should fail to decode")
	}
	if _, err := decodeCursor("aGVsbG8"); err == nil {
		t.Error("non-JSON cursor payload should fail to decode")
	}
}

func TestTokenRangeValid(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		tokenCount int
		want       bool
	}{
		{"single token", 0, 0, 10, true},
		{"full range", 0, 9, 10, true},
		{"negative start", -1, 3, 10, false},
		{"end before start", 5, 2, 10, false},
		{"end past token count", 0, 10, 10, false},
		{"unknown token count", 0, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenRangeValid(tt.start, tt.end, tt.tokenCount); got != tt.want {
				t.Errorf("tokenRangeValid(%d, %d, %d) = %v, want %v",
					tt.start, tt.end, tt.tokenCount, got, tt.want)
			}
		})
	}
}

func TestExportFilename(t *testing.T) {
	name := exportFilename("google/gemma-2b", "html")
	if strings.Contains(name, "/") {
		t.Errorf("filename contains slash: %q", name)
	}
	if !strings.HasPrefix(name, "attention_google_gemma-2b_") {
		t.Errorf("unexpected filename prefix: %q", name)
	}
	if !strings.HasSuffix(name, ".html") {
		t.Errorf("unexpected extension: %q", name)
	}
}
