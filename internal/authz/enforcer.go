// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package authz

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/nilskoch/attentia/internal/config"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to a Casbin model file.
	// If empty, the embedded model is used.
	ModelPath string

	// PolicyPath is the path to a Casbin policy file.
	// If empty, the embedded policy is used.
	PolicyPath string

	// AutoReload enables automatic policy reload from PolicyPath.
	AutoReload bool

	// ReloadInterval is how often to check for policy changes.
	ReloadInterval time.Duration

	// DefaultRole is assumed for users without explicit roles.
	DefaultRole string

	// CacheEnabled enables enforcement decision caching.
	CacheEnabled bool

	// CacheTTL is how long to cache decisions.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		AutoReload:     false,
		ReloadInterval: 30 * time.Second,
		DefaultRole:    "viewer",
		CacheEnabled:   true,
		CacheTTL:       5 * time.Minute,
	}
}

// EnforcerConfigFromApp builds an EnforcerConfig from application config.
func EnforcerConfigFromApp(cfg *config.CasbinConfig) *EnforcerConfig {
	ec := DefaultEnforcerConfig()
	if cfg == nil {
		return ec
	}
	ec.ModelPath = cfg.ModelPath
	ec.PolicyPath = cfg.PolicyPath
	ec.AutoReload = cfg.AutoReload
	if cfg.ReloadInterval > 0 {
		ec.ReloadInterval = cfg.ReloadInterval
	}
	if cfg.DefaultRole != "" {
		ec.DefaultRole = cfg.DefaultRole
	}
	ec.CacheEnabled = cfg.CacheEnabled
	if cfg.CacheTTL > 0 {
		ec.CacheTTL = cfg.CacheTTL
	}
	return ec
}

// Enforcer wraps the Casbin enforcer with decision caching.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer creates a new authorization enforcer.
//
// The embedded model uses keyMatch2 matching so policy objects may
// contain path parameters (e.g. /api/v1/visualizations/:id), and a
// policy action of "*" matches any action.
func NewEnforcer(ctx context.Context, cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = DefaultEnforcerConfig()
	}

	var m model.Model
	var err error

	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer

	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		adapter := fileadapter.NewAdapter(cfg.PolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if cfg.AutoReload && cfg.PolicyPath != "" {
		enforcer.StartAutoLoadPolicy(cfg.ReloadInterval)
	}

	e := &Enforcer{
		config:   cfg,
		enforcer: enforcer,
	}

	if cfg.CacheEnabled {
		e.cache = newDecisionCache(cfg.CacheTTL)
	}

	return e, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		rule := parts[1:]
		switch parts[0] {
		case "p":
			if len(rule) >= 3 {
				if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", rule, err)
				}
			}
		case "g":
			if len(rule) >= 2 {
				if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
					return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
				}
			}
		}
	}
	return nil
}

// Enforce checks if the subject can perform the action on the object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	start := time.Now()

	if e.cache != nil {
		if allowed, ok := e.cache.get(subject, object, action); ok {
			RecordCacheHit()
			RecordDecision(subject, action, allowed, time.Since(start), true)
			return allowed, nil
		}
		RecordCacheMiss()
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(subject, object, action, allowed)
	}

	RecordDecision(subject, action, allowed, time.Since(start), false)
	return allowed, nil
}

// EnforceWithRole checks the subject directly, then their role, then the
// configured default role when no role is known.
func (e *Enforcer) EnforceWithRole(subject, role, object, action string) (bool, error) {
	if allowed, err := e.Enforce(subject, object, action); err != nil {
		return false, err
	} else if allowed {
		return true, nil
	}

	if role != "" {
		return e.Enforce(role, object, action)
	}

	if e.config.DefaultRole != "" {
		return e.Enforce(e.config.DefaultRole, object, action)
	}

	return false, nil
}

// AddRoleForUser assigns a role to a user.
func (e *Enforcer) AddRoleForUser(user, role string) (bool, error) {
	added, err := e.enforcer.AddGroupingPolicy(user, role)
	if err != nil {
		return false, fmt.Errorf("failed to add role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateSubject(user)
	}
	return added, nil
}

// DeleteRoleForUser removes a role from a user.
func (e *Enforcer) DeleteRoleForUser(user, role string) (bool, error) {
	removed, err := e.enforcer.RemoveGroupingPolicy(user, role)
	if err != nil {
		return false, fmt.Errorf("failed to remove role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateSubject(user)
	}
	return removed, nil
}

// GetRolesForUser returns all roles for a user.
func (e *Enforcer) GetRolesForUser(user string) ([]string, error) {
	return e.enforcer.GetRolesForUser(user)
}

// AddPolicy adds a new policy rule.
func (e *Enforcer) AddPolicy(subject, object, action string) (bool, error) {
	added, err := e.enforcer.AddPolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to add policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return added, nil
}

// RemovePolicy removes a policy rule.
func (e *Enforcer) RemovePolicy(subject, object, action string) (bool, error) {
	removed, err := e.enforcer.RemovePolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("failed to remove policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return removed, nil
}

// GetPolicy returns all policy rules.
func (e *Enforcer) GetPolicy() [][]string {
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// GetGroupingPolicy returns all role inheritance rules.
func (e *Enforcer) GetGroupingPolicy() [][]string {
	policies, _ := e.enforcer.GetGroupingPolicy()
	return policies
}

// ErrNoAdapter is returned when SavePolicy or LoadPolicy is called
// while the embedded policy is in use.
var ErrNoAdapter = errors.New("no policy adapter configured; using embedded policy")

// LoadPolicy reloads the policy from the configured file.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// SavePolicy persists the policy to the configured file.
func (e *Enforcer) SavePolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	return e.enforcer.SavePolicy()
}

// Close stops the enforcer and cleans up resources.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
	if e.cache != nil {
		e.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
