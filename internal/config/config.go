// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components including
// the HTTP server, database, inference sidecar, render cache, security, audit, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Inference.RendererURL, cfg.Database.Path, etc. are now populated
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Inference   InferenceConfig   `koanf:"inference"`
	RenderCache RenderCacheConfig `koanf:"render_cache"`
	NATS        NATSConfig        `koanf:"nats"`     // Optional: event streaming with Watermill/NATS JetStream
	API         APIConfig         `koanf:"api"`
	Security    SecurityConfig    `koanf:"security"`
	Audit       AuditConfig       `koanf:"audit"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8000)
//   - HTTP_HOST: Listen address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: "development", "staging", "production" (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/attentia.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
//   - DUCKDB_THREADS: Number of DuckDB threads (0 = use NumCPU)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // Whether to preserve insertion order (default true)
	SkipIndexes            bool   `koanf:"skip_indexes"`             // Skip index creation (for fast test setup)
}

// InferenceConfig holds renderer sidecar and model session settings.
// The renderer sidecar is an external HTTP service that loads transformer
// models, tokenizes input, and produces attention-visualization HTML. This
// application never executes models itself.
//
// Environment Variables:
//   - RENDERER_URL: Base URL of the renderer sidecar (default: http://127.0.0.1:8501)
//   - RENDERER_TIMEOUT: HTTP timeout for render calls (default: 120s)
//   - INFERENCE_MAX_MODEL_BYTES: Max model size before a load is refused (default: 6442450944 = 6.0GB)
//   - INFERENCE_MAX_TOKENS: Token truncation limit for input text (default: 50)
//   - INFERENCE_DEFAULT_MODEL: Model preselected in the submit form (default: google/gemma-2b)
//   - HF_HUB_URL: Hugging Face hub API base URL for model size lookups (default: https://huggingface.co)
//   - HF_TOKEN: Optional Hugging Face access token for gated model metadata
type InferenceConfig struct {
	RendererURL   string        `koanf:"renderer_url"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxModelBytes int64         `koanf:"max_model_bytes"`
	MaxTokens     int           `koanf:"max_tokens"`
	DefaultModel  string        `koanf:"default_model"`
	HFHubURL      string        `koanf:"hf_hub_url"`
	HFToken       string        `koanf:"hf_token"`
}

// RenderCacheConfig holds the BadgerDB-backed render cache settings.
// The cache stores rendered attention HTML keyed by (model, text, view)
// so repeat submissions skip the sidecar entirely.
//
// Environment Variables:
//   - RENDER_CACHE_ENABLED: Enable the persistent render cache (default: true)
//   - RENDER_CACHE_PATH: BadgerDB directory (default: /data/rendercache)
//   - RENDER_CACHE_TTL: Entry time-to-live (default: 1h)
//   - RENDER_CACHE_GC_INTERVAL: Value-log GC interval (default: 10m)
type RenderCacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Path       string        `koanf:"path"`
	TTL        time.Duration `koanf:"ttl"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// NATSConfig holds optional NATS JetStream event streaming settings.
// Only effective in builds compiled with -tags nats.
//
// Environment Variables:
//   - NATS_ENABLED: Enable event streaming (default: false)
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: Run an embedded JetStream server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory (default: /data/nats/jetstream)
type NATSConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// APIConfig holds API pagination and response settings.
type APIConfig struct {
	DefaultPageSize  int           `koanf:"default_page_size"`
	MaxPageSize      int           `koanf:"max_page_size"`
	ResponseCacheTTL time.Duration `koanf:"response_cache_ttl"` // TTL for the in-memory JSON response cache
}

// SecurityConfig holds authentication and authorization settings.
//
// Environment Variables:
//   - AUTH_MODE: "local", "oidc", or "none" (default: local)
//   - JWT_SECRET: HMAC secret for access tokens (required unless AUTH_MODE=none)
//   - SESSION_TIMEOUT: Access token lifetime (default: 24h)
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW / DISABLE_RATE_LIMIT
//   - CORS_ORIGINS: Comma-separated allowed origins
//   - TRUSTED_PROXIES: Comma-separated CIDRs whose X-Forwarded-For is honored
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`

	// SignupEnabled controls whether POST /api/v1/auth/signup is open.
	// Disable for closed deployments where an admin provisions accounts.
	SignupEnabled bool `koanf:"signup_enabled"`

	// SignupRole is the role granted to self-registered users (default: editor).
	SignupRole string `koanf:"signup_role"`

	OIDC   OIDCConfig   `koanf:"oidc"`   // OIDC/OAuth 2.0 authentication
	Casbin CasbinConfig `koanf:"casbin"` // Casbin RBAC authorization
}

// OIDCConfig holds OIDC/OAuth 2.0 authentication settings.
//
// Environment Variables:
//   - OIDC_ISSUER_URL: OIDC provider issuer URL (required for oidc auth mode)
//   - OIDC_CLIENT_ID: OAuth 2.0 client ID (required for oidc auth mode)
//   - OIDC_CLIENT_SECRET: OAuth 2.0 client secret (optional for public clients)
//   - OIDC_REDIRECT_URL: OAuth callback URL (required for oidc auth mode)
//   - OIDC_SCOPES: Comma-separated list of OAuth scopes (default: openid,profile,email)
//   - OIDC_PKCE_ENABLED: Enable PKCE for public clients (default: true)
type OIDCConfig struct {
	IssuerURL      string        `koanf:"issuer_url"`
	ClientID       string        `koanf:"client_id"`
	ClientSecret   string        `koanf:"client_secret"`
	RedirectURL    string        `koanf:"redirect_url"`
	Scopes         []string      `koanf:"scopes"`
	PKCEEnabled    bool          `koanf:"pkce_enabled"`
	DefaultRole    string        `koanf:"default_role"`
	UsernameClaims []string      `koanf:"username_claims"`
	Timeout        time.Duration `koanf:"timeout"`
}

// CasbinConfig holds Casbin RBAC authorization settings.
//
// Environment Variables:
//   - CASBIN_MODEL_PATH: Path to Casbin model file (default: embedded)
//   - CASBIN_POLICY_PATH: Path to Casbin policy file (default: embedded)
//   - CASBIN_DEFAULT_ROLE: Default role for users without explicit role (default: viewer)
//   - CASBIN_CACHE_ENABLED: Enable authorization decision caching (default: true)
//   - CASBIN_CACHE_TTL: Authorization cache TTL (default: 5m)
type CasbinConfig struct {
	ModelPath      string        `koanf:"model_path"`
	PolicyPath     string        `koanf:"policy_path"`
	DefaultRole    string        `koanf:"default_role"`
	AutoReload     bool          `koanf:"auto_reload"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
	CacheEnabled   bool          `koanf:"cache_enabled"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
}

// AuditConfig holds audit trail settings.
//
// Environment Variables:
//   - AUDIT_ENABLED: Enable the audit trail (default: true)
//   - AUDIT_RETENTION_DAYS: Days before events are purged (default: 90)
//   - AUDIT_BUFFER_SIZE: Async writer buffer size (default: 1000)
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	RetentionDays   int           `koanf:"retention_days"`
	BufferSize      int           `koanf:"buffer_size"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	LogToStdout     bool          `koanf:"log_to_stdout"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// Load loads configuration using the layered Koanf pipeline.
// This is the entry point used by cmd/server.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
