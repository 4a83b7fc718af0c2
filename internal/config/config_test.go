// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	os.Clearenv()
	os.Setenv("AUTH_MODE", "none")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty host", func(c *Config) { c.Server.Host = "" }, true},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }, true},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }, true},
		{"production environment", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.CORSOrigins = []string{"https://viz.example.com"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.AuthMode = "none"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateInference(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty renderer url", func(c *Config) { c.Inference.RendererURL = "" }, "RENDERER_URL"},
		{"renderer url with query", func(c *Config) { c.Inference.RendererURL = "http://r:8501?x=1" }, "RENDERER_URL"},
		{"bad hub url", func(c *Config) { c.Inference.HFHubURL = "not a url" }, "HF_HUB_URL"},
		{"zero model bytes", func(c *Config) { c.Inference.MaxModelBytes = 0 }, "INFERENCE_MAX_MODEL_BYTES"},
		{"negative model bytes", func(c *Config) { c.Inference.MaxModelBytes = -1 }, "INFERENCE_MAX_MODEL_BYTES"},
		{"tokens too high", func(c *Config) { c.Inference.MaxTokens = 1000 }, "INFERENCE_MAX_TOKENS"},
		{"empty default model", func(c *Config) { c.Inference.DefaultModel = "" }, "INFERENCE_DEFAULT_MODEL"},
		{"zero timeout", func(c *Config) { c.Inference.Timeout = 0 }, "RENDERER_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.AuthMode = "none"
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() should fail for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRenderCache(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.RenderCache.TTL = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for zero render cache TTL")
	}

	// Disabled cache skips cache validation entirely
	cfg = defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.RenderCache.Enabled = false
	cfg.RenderCache.TTL = 0
	cfg.RenderCache.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil when cache disabled", err)
	}
}

func TestValidateNATS(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips checks", func(c *Config) {
			c.NATS.Enabled = false
			c.NATS.URL = "garbage"
		}, false},
		{"external requires valid url", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.EmbeddedServer = false
			c.NATS.URL = "http://wrong-scheme:4222"
		}, true},
		{"embedded requires store dir", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.EmbeddedServer = true
			c.NATS.StoreDir = ""
		}, true},
		{"valid embedded", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.EmbeddedServer = true
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.AuthMode = "none"
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "abc123", true},
		{"placeholder changeme", "changeme-changeme-changeme-changeme-1234", true},
		{"placeholder your-secret", "your-secret-goes-right-here-placeholder1", true},
		{"strong secret", "kX9mP2vL8qR5tY7wZ3nB6cF1dG4hJ0aS", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.AuthMode = "local"
			cfg.Security.JWTSecret = tt.secret
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateOIDC(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Security.AuthMode = "oidc"
		cfg.Security.JWTSecret = "kX9mP2vL8qR5tY7wZ3nB6cF1dG4hJ0aS"
		cfg.Security.OIDC.IssuerURL = "https://idp.example.com/realms/viz"
		cfg.Security.OIDC.ClientID = "attentia-web"
		cfg.Security.OIDC.RedirectURL = "https://viz.example.com/auth/oidc/callback"
		return cfg
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Validate() error = %v for valid OIDC config", err)
	}

	cfg := base()
	cfg.Security.OIDC.IssuerURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for empty issuer URL")
	}

	cfg = base()
	cfg.Security.OIDC.IssuerURL = "https://idp.example.com/realms/viz/"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for trailing slash in issuer URL")
	}

	cfg = base()
	cfg.Security.OIDC.ClientID = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for empty client ID")
	}

	cfg = base()
	cfg.Security.OIDC.Scopes = []string{"profile", "email"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when openid scope missing")
	}
}

func TestValidateRateLimits(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for zero rate limit requests")
	}

	cfg = defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Security.RateLimitReqs = 20000
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for excessive rate limit requests")
	}

	// Disabled rate limiting skips bounds checks
	cfg = defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil when rate limiting disabled", err)
	}
}

func TestValidateCORSProduction(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Server.Environment = "production"
	cfg.Security.CORSOrigins = []string{"*"}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject wildcard CORS origins in production")
	}

	cfg.Security.CORSOrigins = []string{"https://viz.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v for explicit origins in production", err)
	}
}

func TestValidateCasbin(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Security.Casbin.ModelPath = "/etc/attentia/model.conf"
	cfg.Security.Casbin.PolicyPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail when only one casbin path is set")
	}

	cfg.Security.Casbin.PolicyPath = "/etc/attentia/policy.csv"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v when both casbin paths set", err)
	}
}

func TestValidateAudit(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Audit.RetentionDays = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for zero audit retention")
	}

	cfg = defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Audit.Enabled = false
	cfg.Audit.RetentionDays = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil when audit disabled", err)
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "warning", "error"}
	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.AuthMode = "none"
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() error = %v for log level %q", err, level)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	cfg := defaultConfig()
	if cfg.IsProduction() {
		t.Error("IsProduction() should be false for default config")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be true for default config")
	}

	cfg.Server.Environment = "Production"
	if !cfg.IsProduction() {
		t.Error("IsProduction() should be case-insensitive")
	}
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://localhost:8501", false},
		{"valid https", "https://renderer.example.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:8501", true},
		{"ftp scheme", "ftp://host:21", true},
		{"with query", "http://host:8501?key=val", true},
		{"with fragment", "http://host:8501#frag", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPURL(tt.url, "TEST_URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNATSURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid nats", "nats://127.0.0.1:4222", false},
		{"valid tls", "tls://nats.example.com:4222", false},
		{"valid websocket", "ws://nats.example.com:8080", false},
		{"empty", "", true},
		{"http scheme", "http://127.0.0.1:4222", true},
		{"no host", "nats://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNATSURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateNATSURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestContainsPlaceholder(t *testing.T) {
	if !containsPlaceholder("please-changeme-now") {
		t.Error("containsPlaceholder should detect changeme")
	}
	if containsPlaceholder("kX9mP2vL8qR5tY7wZ3nB6cF1dG4hJ0aS") {
		t.Error("containsPlaceholder should not flag random secrets")
	}
}

func TestSessionTimeout(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = "none"
	cfg.Security.SessionTimeout = -time.Hour
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should fail for negative session timeout")
	}
}
