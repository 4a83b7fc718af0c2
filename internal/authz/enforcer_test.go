// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package authz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		name    string
		subject string
		object  string
		action  string
		want    bool
	}{
		{"viewer reads visualization list", "viewer", "/api/v1/visualizations", "read", true},
		{"viewer reads single visualization", "viewer", "/api/v1/visualizations/abc-123", "read", true},
		{"viewer reads annotations", "viewer", "/api/v1/visualizations/abc-123/annotations", "read", true},
		{"viewer reads export", "viewer", "/api/v1/visualizations/abc-123/export", "read", true},
		{"viewer cannot create visualization", "viewer", "/api/v1/visualizations", "write", false},
		{"viewer cannot annotate", "viewer", "/api/v1/visualizations/abc-123/annotations", "write", false},
		{"viewer cannot reach audit trail", "viewer", "/api/v1/audit/events", "read", false},
		{"editor inherits viewer read", "editor", "/api/v1/visualizations/abc-123", "read", true},
		{"editor creates visualization", "editor", "/api/v1/visualizations", "write", true},
		{"editor annotates", "editor", "/api/v1/visualizations/abc-123/annotations", "write", true},
		{"editor edits annotation", "editor", "/api/v1/annotations/def-456", "write", true},
		{"editor deletes annotation", "editor", "/api/v1/annotations/def-456", "delete", true},
		{"editor shares visualization", "editor", "/api/v1/visualizations/abc-123/share", "write", true},
		{"editor revokes share", "editor", "/api/v1/visualizations/abc-123/share", "delete", true},
		{"editor deletes own visualization", "editor", "/api/v1/visualizations/abc-123", "delete", true},
		{"editor cannot reach audit trail", "editor", "/api/v1/audit/events", "read", false},
		{"editor cannot clear cache", "editor", "/api/v1/cache/clear", "write", false},
		{"admin reads audit trail", "admin", "/api/v1/audit/events", "read", true},
		{"admin clears cache", "admin", "/api/v1/cache/clear", "write", true},
		{"admin deletes any visualization", "admin", "/api/v1/visualizations/abc-123", "delete", true},
		{"admin inherits editor write", "admin", "/api/v1/visualizations", "write", true},
		{"unknown role denied", "ghost", "/api/v1/visualizations", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Enforce(tt.subject, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s) = %v, want %v",
					tt.subject, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforcer_EnforceWithRole(t *testing.T) {
	e := newTestEnforcer(t)

	// Role carries the permission
	allowed, err := e.EnforceWithRole("user-1", "editor", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("EnforceWithRole() error = %v", err)
	}
	if !allowed {
		t.Error("editor role should allow creating visualizations")
	}

	// Unknown role falls through to deny
	allowed, err = e.EnforceWithRole("user-2", "ghost", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("EnforceWithRole() error = %v", err)
	}
	if allowed {
		t.Error("unknown role should not allow writes")
	}

	// Empty role falls back to the default role (viewer)
	allowed, err = e.EnforceWithRole("user-3", "", "/api/v1/visualizations", "read")
	if err != nil {
		t.Fatalf("EnforceWithRole() error = %v", err)
	}
	if !allowed {
		t.Error("default role should allow reads")
	}

	allowed, err = e.EnforceWithRole("user-3", "", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("EnforceWithRole() error = %v", err)
	}
	if allowed {
		t.Error("default role should not allow writes")
	}
}

func TestEnforcer_DirectSubjectPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	if _, err := e.AddPolicy("user-42", "/api/v1/special", "read"); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	allowed, err := e.EnforceWithRole("user-42", "ghost", "/api/v1/special", "read")
	if err != nil {
		t.Fatalf("EnforceWithRole() error = %v", err)
	}
	if !allowed {
		t.Error("direct subject policy should allow access regardless of role")
	}

	if _, err := e.RemovePolicy("user-42", "/api/v1/special", "read"); err != nil {
		t.Fatalf("RemovePolicy() error = %v", err)
	}

	allowed, err = e.Enforce("user-42", "/api/v1/special", "read")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if allowed {
		t.Error("access should be denied after policy removal")
	}
}

func TestEnforcer_RoleAssignment(t *testing.T) {
	e := newTestEnforcer(t)

	added, err := e.AddRoleForUser("user-7", "editor")
	if err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}
	if !added {
		t.Error("role assignment should report added")
	}

	allowed, err := e.Enforce("user-7", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !allowed {
		t.Error("user with editor role should create visualizations")
	}

	roles, err := e.GetRolesForUser("user-7")
	if err != nil {
		t.Fatalf("GetRolesForUser() error = %v", err)
	}
	if len(roles) != 1 || roles[0] != "editor" {
		t.Errorf("GetRolesForUser() = %v, want [editor]", roles)
	}

	removed, err := e.DeleteRoleForUser("user-7", "editor")
	if err != nil {
		t.Fatalf("DeleteRoleForUser() error = %v", err)
	}
	if !removed {
		t.Error("role removal should report removed")
	}

	allowed, err = e.Enforce("user-7", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if allowed {
		t.Error("access should be denied after role removal")
	}
}

func TestEnforcer_CacheInvalidation(t *testing.T) {
	e, err := NewEnforcer(context.Background(), &EnforcerConfig{
		DefaultRole:  "viewer",
		CacheEnabled: true,
		CacheTTL:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	// Prime the cache with a denial
	allowed, err := e.Enforce("user-9", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if allowed {
		t.Fatal("expected denial before role assignment")
	}
	if e.cache.len() == 0 {
		t.Fatal("decision should be cached")
	}

	// Role assignment must invalidate the cached denial
	if _, err := e.AddRoleForUser("user-9", "editor"); err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}

	allowed, err = e.Enforce("user-9", "/api/v1/visualizations", "write")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !allowed {
		t.Error("cached denial should be invalidated by role assignment")
	}
}

func TestEnforcer_EmbeddedPolicyRejectsSaveLoad(t *testing.T) {
	e := newTestEnforcer(t)

	if err := e.SavePolicy(); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("SavePolicy() error = %v, want ErrNoAdapter", err)
	}
	if err := e.LoadPolicy(); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("LoadPolicy() error = %v, want ErrNoAdapter", err)
	}
}

func TestEnforcer_FilePolicy(t *testing.T) {
	tmpDir := t.TempDir()
	policyPath := filepath.Join(tmpDir, "policy.csv")
	policy := "p, analyst, /api/v1/visualizations, read\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	e, err := NewEnforcer(context.Background(), &EnforcerConfig{
		PolicyPath:  policyPath,
		DefaultRole: "viewer",
	})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	allowed, err := e.Enforce("analyst", "/api/v1/visualizations", "read")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !allowed {
		t.Error("file policy rule should grant access")
	}

	// File-backed enforcer does not contain embedded rules
	allowed, err = e.Enforce("viewer", "/api/v1/visualizations", "read")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if allowed {
		t.Error("embedded rules should not apply with a file policy")
	}

	if err := e.LoadPolicy(); err != nil {
		t.Errorf("LoadPolicy() with file adapter error = %v", err)
	}
}

func TestEnforcerConfigFromApp(t *testing.T) {
	ec := EnforcerConfigFromApp(nil)
	if ec.DefaultRole != "viewer" {
		t.Errorf("DefaultRole = %q, want viewer", ec.DefaultRole)
	}
	if !ec.CacheEnabled {
		t.Error("cache should be enabled by default")
	}
}

func TestDecisionCache(t *testing.T) {
	c := newDecisionCache(50 * time.Millisecond)
	defer c.stop()

	c.set("u1", "/a", "read", true)
	c.set("u1", "/b", "read", false)
	c.set("u2", "/a", "read", true)

	if allowed, ok := c.get("u1", "/a", "read"); !ok || !allowed {
		t.Error("expected cached allow for u1:/a")
	}
	if allowed, ok := c.get("u1", "/b", "read"); !ok || allowed {
		t.Error("expected cached deny for u1:/b")
	}

	c.invalidateSubject("u1")
	if _, ok := c.get("u1", "/a", "read"); ok {
		t.Error("u1 entries should be invalidated")
	}
	if _, ok := c.get("u2", "/a", "read"); !ok {
		t.Error("u2 entries should survive u1 invalidation")
	}

	time.Sleep(100 * time.Millisecond)
	if _, ok := c.get("u2", "/a", "read"); ok {
		t.Error("entries should expire after TTL")
	}
}
