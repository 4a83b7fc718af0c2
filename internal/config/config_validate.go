// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package config

import (
	"fmt"
	"strings"
)

// Rate limit bounds protect against misconfiguration.
const (
	minRateLimitReqs = 1
	maxRateLimitReqs = 10000
)

// validAuthModes defines the accepted values for AUTH_MODE.
var validAuthModes = map[string]bool{
	"local": true,
	"oidc":  true,
	"none":  true,
}

// validSignupRoles defines the roles a new signup may be granted.
var validSignupRoles = map[string]bool{
	"viewer": true,
	"editor": true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It is called automatically by LoadWithKoanf after unmarshaling.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateRenderCache(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateAudit(); err != nil {
		return err
	}
	return c.validateLogging()
}

// IsProduction returns true when the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// IsDevelopment returns true when the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HTTP_HOST cannot be empty")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	env := strings.ToLower(c.Server.Environment)
	if env != "development" && env != "production" {
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH cannot be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS cannot be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateInference() error {
	if err := validateHTTPURL(c.Inference.RendererURL, "RENDERER_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Inference.HFHubURL, "HF_HUB_URL"); err != nil {
		return err
	}
	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("RENDERER_TIMEOUT must be positive, got %v", c.Inference.Timeout)
	}
	if c.Inference.MaxModelBytes <= 0 {
		return fmt.Errorf("INFERENCE_MAX_MODEL_BYTES must be positive, got %d", c.Inference.MaxModelBytes)
	}
	if c.Inference.MaxTokens < 1 || c.Inference.MaxTokens > 512 {
		return fmt.Errorf("INFERENCE_MAX_TOKENS must be between 1 and 512, got %d", c.Inference.MaxTokens)
	}
	if c.Inference.DefaultModel == "" {
		return fmt.Errorf("INFERENCE_DEFAULT_MODEL cannot be empty")
	}
	return nil
}

func (c *Config) validateRenderCache() error {
	if !c.RenderCache.Enabled {
		return nil
	}
	if c.RenderCache.Path == "" {
		return fmt.Errorf("RENDER_CACHE_PATH cannot be empty when the render cache is enabled")
	}
	if c.RenderCache.TTL <= 0 {
		return fmt.Errorf("RENDER_CACHE_TTL must be positive, got %v", c.RenderCache.TTL)
	}
	if c.RenderCache.GCInterval <= 0 {
		return fmt.Errorf("RENDER_CACHE_GC_INTERVAL must be positive, got %v", c.RenderCache.GCInterval)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer {
		if err := validateNATSURL(c.NATS.URL); err != nil {
			return err
		}
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR cannot be empty when the embedded server is enabled")
	}
	if c.NATS.MaxMemory < 0 {
		return fmt.Errorf("NATS_MAX_MEMORY cannot be negative, got %d", c.NATS.MaxMemory)
	}
	if c.NATS.MaxStore < 0 {
		return fmt.Errorf("NATS_MAX_STORE cannot be negative, got %d", c.NATS.MaxStore)
	}
	if c.NATS.CloseTimeout <= 0 {
		return fmt.Errorf("NATS_CLOSE_TIMEOUT must be positive, got %v", c.NATS.CloseTimeout)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) cannot be smaller than API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.ResponseCacheTTL < 0 {
		return fmt.Errorf("API_RESPONSE_CACHE_TTL cannot be negative, got %v", c.API.ResponseCacheTTL)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	mode := strings.ToLower(c.Security.AuthMode)
	if !validAuthModes[mode] {
		return fmt.Errorf("AUTH_MODE must be local, oidc, or none, got %q", c.Security.AuthMode)
	}

	if mode != "none" {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	}

	if mode == "oidc" {
		if err := c.validateOIDC(); err != nil {
			return err
		}
	}

	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got %v", c.Security.SessionTimeout)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < minRateLimitReqs || c.Security.RateLimitReqs > maxRateLimitReqs {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d, got %d",
				minRateLimitReqs, maxRateLimitReqs, c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
		}
	}

	if c.Security.SignupEnabled && !validSignupRoles[c.Security.SignupRole] {
		return fmt.Errorf("SIGNUP_ROLE must be viewer or editor, got %q", c.Security.SignupRole)
	}

	// Wildcard CORS origins in production defeat the purpose of CORS
	if c.IsProduction() {
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain a wildcard in production")
			}
		}
	}

	return c.validateCasbin()
}

// validateJWTSecret ensures the JWT signing secret is present and strong enough.
// A weak or placeholder secret makes every issued token forgeable.
func (c *Config) validateJWTSecret() error {
	secret := c.Security.JWTSecret
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is not none")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(secret))
	}
	if containsPlaceholder(secret) {
		return fmt.Errorf("JWT_SECRET appears to be a placeholder value, generate a real secret")
	}
	return nil
}

// containsPlaceholder detects common placeholder patterns in secrets.
func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	placeholders := []string{
		"changeme",
		"change-me",
		"change_me",
		"placeholder",
		"your-secret",
		"your_secret",
		"example",
		"secret-key-here",
		"insert-",
		"xxxxxx",
	}
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (c *Config) validateOIDC() error {
	if err := validateOIDCIssuerURL(c.Security.OIDC.IssuerURL); err != nil {
		return err
	}
	if c.Security.OIDC.ClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID cannot be empty when auth mode is oidc")
	}
	if c.Security.OIDC.RedirectURL == "" {
		return fmt.Errorf("OIDC_REDIRECT_URL cannot be empty when auth mode is oidc")
	}
	if err := validateHTTPURL(c.Security.OIDC.RedirectURL, "OIDC_REDIRECT_URL"); err != nil {
		return err
	}
	if len(c.Security.OIDC.Scopes) == 0 {
		return fmt.Errorf("OIDC_SCOPES cannot be empty when auth mode is oidc")
	}
	hasOpenID := false
	for _, s := range c.Security.OIDC.Scopes {
		if s == "openid" {
			hasOpenID = true
			break
		}
	}
	if !hasOpenID {
		return fmt.Errorf("OIDC_SCOPES must include the openid scope")
	}
	if c.Security.OIDC.Timeout <= 0 {
		return fmt.Errorf("OIDC_TIMEOUT must be positive, got %v", c.Security.OIDC.Timeout)
	}
	return nil
}

func (c *Config) validateCasbin() error {
	cb := c.Security.Casbin
	// Model and policy paths are optional; empty means use the embedded defaults.
	// When one is provided, both must be.
	if (cb.ModelPath == "") != (cb.PolicyPath == "") {
		return fmt.Errorf("CASBIN_MODEL_PATH and CASBIN_POLICY_PATH must be set together")
	}
	if cb.DefaultRole == "" {
		return fmt.Errorf("CASBIN_DEFAULT_ROLE cannot be empty")
	}
	if cb.AutoReload && cb.ReloadInterval <= 0 {
		return fmt.Errorf("CASBIN_RELOAD_INTERVAL must be positive when auto reload is enabled, got %v", cb.ReloadInterval)
	}
	if cb.CacheEnabled && cb.CacheTTL <= 0 {
		return fmt.Errorf("CASBIN_CACHE_TTL must be positive when the decision cache is enabled, got %v", cb.CacheTTL)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.RetentionDays < 1 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be at least 1, got %d", c.Audit.RetentionDays)
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1, got %d", c.Audit.BufferSize)
	}
	if c.Audit.CleanupInterval <= 0 {
		return fmt.Errorf("AUDIT_CLEANUP_INTERVAL must be positive, got %v", c.Audit.CleanupInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "warning": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
