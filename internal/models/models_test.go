// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"viewer", true},
		{"editor", true},
		{"admin", true},
		{"", false},
		{"superuser", false},
		{"Viewer", false},
	}

	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestUserPermissions(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	if !admin.IsAdmin() {
		t.Error("admin.IsAdmin() should be true")
	}
	if !admin.CanWrite() {
		t.Error("admin.CanWrite() should be true")
	}

	editor := &User{Role: RoleEditor}
	if editor.IsAdmin() {
		t.Error("editor.IsAdmin() should be false")
	}
	if !editor.CanWrite() {
		t.Error("editor.CanWrite() should be true")
	}

	viewer := &User{Role: RoleViewer}
	if viewer.CanWrite() {
		t.Error("viewer.CanWrite() should be false")
	}
}

// TestUserJSONNeverLeaksSecrets verifies the password hash and OIDC subject
// are excluded from every serialized user.
func TestUserJSONNeverLeaksSecrets(t *testing.T) {
	user := User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
		Role:         RoleEditor,
		Provider:     "local",
		Subject:      "oidc-subject-value",
		CreatedAt:    time.Now(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if strings.Contains(string(data), "$2a$12$") {
		t.Error("serialized user must not contain the password hash")
	}
	if strings.Contains(string(data), "oidc-subject-value") {
		t.Error("serialized user must not contain the OIDC subject")
	}
	if !strings.Contains(string(data), `"username":"alice"`) {
		t.Errorf("serialized user missing username: %s", data)
	}
}

func TestIsValidViewType(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"head", true},
		{"model", true},
		{"", false},
		{"neuron", false},
		{"HEAD", false},
	}

	for _, tt := range tests {
		if got := IsValidViewType(tt.viewType); got != tt.want {
			t.Errorf("IsValidViewType(%q) = %v, want %v", tt.viewType, got, tt.want)
		}
	}
}

func TestVisualizationSummary(t *testing.T) {
	viz := Visualization{
		ID:         uuid.New(),
		ModelName:  "google/gemma-2b",
		InputText:  "The cat sat on the mat.",
		ViewType:   ViewTypeHead,
		HTML:       "<html><body>large payload</body></html>",
		TokenCount: 8,
	}

	summary := viz.Summary()
	if summary.HTML != "" {
		t.Error("Summary() should strip the HTML payload")
	}
	if summary.ID != viz.ID {
		t.Error("Summary() should preserve the ID")
	}
	if viz.HTML == "" {
		t.Error("Summary() must not mutate the original")
	}
}

func TestVisualizationIsShared(t *testing.T) {
	viz := Visualization{}
	if viz.IsShared() {
		t.Error("IsShared() should be false without a token")
	}

	empty := ""
	viz.ShareToken = &empty
	if viz.IsShared() {
		t.Error("IsShared() should be false for an empty token")
	}

	token := "a1b2c3d4e5f60718293a4b5c"
	viz.ShareToken = &token
	if !viz.IsShared() {
		t.Error("IsShared() should be true with a token")
	}
}

func TestAnnotationTokenRangeValid(t *testing.T) {
	tests := []struct {
		name  string
		start int
		end   int
		want  bool
	}{
		{"single token", 3, 3, true},
		{"range", 0, 7, true},
		{"negative start", -1, 3, false},
		{"inverted", 5, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Annotation{StartToken: tt.start, EndToken: tt.end}
			if got := a.TokenRangeValid(); got != tt.want {
				t.Errorf("TokenRangeValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnnotationIsAuthor(t *testing.T) {
	author := uuid.New()
	other := uuid.New()
	a := Annotation{UserID: author}

	if !a.IsAuthor(author) {
		t.Error("IsAuthor should be true for the author")
	}
	if a.IsAuthor(other) {
		t.Error("IsAuthor should be false for another user")
	}
}

func TestAnnotationWithUserJSON(t *testing.T) {
	a := AnnotationWithUser{
		Annotation: Annotation{
			ID:         uuid.New(),
			Content:    "interesting head",
			StartToken: 2,
			EndToken:   4,
		},
		Username: "alice",
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	// Embedded fields flatten into the same object
	if !strings.Contains(string(data), `"username":"alice"`) {
		t.Errorf("expected flattened username, got %s", data)
	}
	if !strings.Contains(string(data), `"content":"interesting head"`) {
		t.Errorf("expected flattened content, got %s", data)
	}
}

func TestVisualizationCursorRoundTrip(t *testing.T) {
	cursor := VisualizationCursor{
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ID:        uuid.New().String(),
	}

	data, err := json.Marshal(cursor)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded VisualizationCursor
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.CreatedAt.Equal(cursor.CreatedAt) || decoded.ID != cursor.ID {
		t.Errorf("round trip mismatch: %+v != %+v", decoded, cursor)
	}
}
