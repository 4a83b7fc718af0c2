// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http"
	"testing"

	"github.com/nilskoch/attentia/internal/models"
)

func TestCreateAnnotation(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "alice", models.RoleEditor)
	viz := env.createViz(t, user.ID)

	rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
		Content:    "strong attention between subject and verb",
		StartToken: 1,
		EndToken:   3,
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var ann models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &ann)
	if ann.Username != "alice" {
		t.Errorf("username = %q, want alice", ann.Username)
	}
	if ann.StartToken != 1 || ann.EndToken != 3 {
		t.Errorf("token range = [%d, %d], want [1, 3]", ann.StartToken, ann.EndToken)
	}
	if ann.VisualizationID != viz.ID {
		t.Errorf("visualization_id = %s, want %s", ann.VisualizationID, viz.ID)
	}
}

func TestCreateAnnotationInvalidRange(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "bob", models.RoleEditor)
	viz := env.createViz(t, user.ID) // 7 tokens

	tests := []struct {
		name       string
		start, end int
	}{
		{"end before start", 4, 2},
		{"end past token count", 0, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
				Content:    "x",
				StartToken: tt.start,
				EndToken:   tt.end,
			})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Error == nil || resp.Error.Message != "Invalid token range" {
				t.Errorf("unexpected error: %+v", resp.Error)
			}
		})
	}
}

func TestCreateAnnotationVizNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "carol", models.RoleEditor)

	rec := env.doJSON(t, "POST", "/api/v1/viz/4e8a8cc4-9a3c-4c1b-a9b8-2f1f0a3d7e61/annotations", token, AnnotationCreateRequest{
		Content:    "orphan",
		StartToken: 0,
		EndToken:   1,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListAnnotations(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "dave", models.RoleEditor)
	viz := env.createViz(t, user.ID)

	// Empty list is [] rather than null.
	rec := env.doJSON(t, "GET", "/api/v1/viz/"+viz.ID.String()+"/annotations", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var anns []models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &anns)
	if anns == nil || len(anns) != 0 {
		t.Errorf("expected empty slice, got %v", anns)
	}

	for i := 0; i < 2; i++ {
		env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
			Content:    "note",
			StartToken: i,
			EndToken:   i + 1,
		})
	}

	rec = env.doJSON(t, "GET", "/api/v1/viz/"+viz.ID.String()+"/annotations", "", nil)
	dataField(t, decodeEnvelope(t, rec), &anns)
	if len(anns) != 2 {
		t.Errorf("expected 2 annotations, got %d", len(anns))
	}
}

func TestUpdateAnnotation(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "erin", models.RoleEditor)
	viz := env.createViz(t, user.ID)

	rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
		Content:    "first draft",
		StartToken: 0,
		EndToken:   1,
	})
	var ann models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &ann)

	newContent := "revised note"
	rec = env.doJSON(t, "PATCH", "/api/v1/annotations/"+ann.ID.String(), token, AnnotationUpdateRequest{
		Content: &newContent,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var updated models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &updated)
	if updated.Content != "revised note" {
		t.Errorf("content = %q, want revised note", updated.Content)
	}
	// Untouched fields keep their values.
	if updated.StartToken != 0 || updated.EndToken != 1 {
		t.Errorf("token range changed: [%d, %d]", updated.StartToken, updated.EndToken)
	}
}

func TestUpdateAnnotationAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "frank", models.RoleEditor)
	_, otherToken := env.createUser(t, "grace", models.RoleEditor)
	viz := env.createViz(t, user.ID)

	rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
		Content:    "mine",
		StartToken: 0,
		EndToken:   1,
	})
	var ann models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &ann)

	newContent := "hijacked"
	rec = env.doJSON(t, "PATCH", "/api/v1/annotations/"+ann.ID.String(), otherToken, AnnotationUpdateRequest{
		Content: &newContent,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error == nil || resp.Error.Message != "You can only edit your own annotations" {
		t.Errorf("unexpected error: %+v", resp.Error)
	}
}

func TestUpdateAnnotationRangeRevalidated(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "heidi", models.RoleEditor)
	viz := env.createViz(t, user.ID) // 7 tokens

	rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
		Content:    "note",
		StartToken: 0,
		EndToken:   1,
	})
	var ann models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &ann)

	badEnd := 99
	rec = env.doJSON(t, "PATCH", "/api/v1/annotations/"+ann.ID.String(), token, AnnotationUpdateRequest{
		EndToken: &badEnd,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestDeleteAnnotation(t *testing.T) {
	env := newTestEnv(t)
	user, token := env.createUser(t, "ivan", models.RoleEditor)
	_, otherToken := env.createUser(t, "judy", models.RoleEditor)
	viz := env.createViz(t, user.ID)

	rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", token, AnnotationCreateRequest{
		Content:    "ephemeral",
		StartToken: 0,
		EndToken:   1,
	})
	var ann models.AnnotationWithUser
	dataField(t, decodeEnvelope(t, rec), &ann)

	rec = env.doJSON(t, "DELETE", "/api/v1/annotations/"+ann.ID.String(), otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other user delete: expected 403, got %d", rec.Code)
	}

	rec = env.doJSON(t, "DELETE", "/api/v1/annotations/"+ann.ID.String(), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("author delete: expected 200, got %d", rec.Code)
	}
	var detail map[string]string
	dataField(t, decodeEnvelope(t, rec), &detail)
	if detail["detail"] != "Annotation deleted" {
		t.Errorf("unexpected detail: %q", detail["detail"])
	}

	rec = env.doJSON(t, "DELETE", "/api/v1/annotations/"+ann.ID.String(), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double delete: expected 404, got %d", rec.Code)
	}
}

func TestAnnotationWritesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "kate", models.RoleEditor)
	viz := env.createViz(t, user.ID)

	rec := env.doJSON(t, "POST", "/api/v1/viz/"+viz.ID.String()+"/annotations", "", AnnotationCreateRequest{
		Content:    "anon",
		StartToken: 0,
		EndToken:   1,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
