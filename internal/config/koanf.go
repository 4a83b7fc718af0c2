// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/attentia/config.yaml",
	"/etc/attentia/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development", // Set ENVIRONMENT=production for production checks
		},
		Database: DatabaseConfig{
			Path:                   "/data/attentia.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			PreserveInsertionOrder: true,
		},
		Inference: InferenceConfig{
			RendererURL:   "http://127.0.0.1:8501",
			Timeout:       120 * time.Second,
			MaxModelBytes: 6 << 30, // 6.0GB: largest model the render host can hold
			MaxTokens:     50,
			DefaultModel:  "google/gemma-2b",
			HFHubURL:      "https://huggingface.co",
			HFToken:       "",
		},
		RenderCache: RenderCacheConfig{
			Enabled:    true,
			Path:       "/data/rendercache",
			TTL:        time.Hour,
			GCInterval: 10 * time.Minute,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			DurableName:    "viz-processor",
			QueueGroup:     "processors",
			CloseTimeout:   30 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize:  20,
			MaxPageSize:      100,
			ResponseCacheTTL: time.Minute,
		},
		Security: SecurityConfig{
			AuthMode:          "local",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			TrustedProxies:    []string{},
			SignupEnabled:     true,
			SignupRole:        "editor",
			OIDC: OIDCConfig{
				IssuerURL:      "",
				ClientID:       "",
				ClientSecret:   "",
				RedirectURL:    "",
				Scopes:         []string{"openid", "profile", "email"},
				PKCEEnabled:    true,
				DefaultRole:    "editor",
				UsernameClaims: []string{"preferred_username", "name", "email"},
				Timeout:        30 * time.Second,
			},
			Casbin: CasbinConfig{
				ModelPath:      "",
				PolicyPath:     "",
				DefaultRole:    "viewer",
				AutoReload:     true,
				ReloadInterval: 30 * time.Second,
				CacheEnabled:   true,
				CacheTTL:       5 * time.Minute,
			},
		},
		Audit: AuditConfig{
			Enabled:         true,
			RetentionDays:   90,
			BufferSize:      1000,
			CleanupInterval: 24 * time.Hour,
			LogToStdout:     false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// RENDERER_URL -> inference.renderer_url
	// DUCKDB_PATH -> database.path
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"security.oidc.scopes",
	"security.oidc.username_claims",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - RENDERER_URL -> inference.renderer_url
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - JWT_SECRET -> security.jwt_secret
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Inference mappings
		"renderer_url":              "inference.renderer_url",
		"renderer_timeout":          "inference.timeout",
		"inference_max_model_bytes": "inference.max_model_bytes",
		"inference_max_tokens":      "inference.max_tokens",
		"inference_default_model":   "inference.default_model",
		"hf_hub_url":                "inference.hf_hub_url",
		"hf_token":                  "inference.hf_token",

		// Render cache mappings
		"render_cache_enabled":     "render_cache.enabled",
		"render_cache_path":        "render_cache.path",
		"render_cache_ttl":         "render_cache.ttl",
		"render_cache_gc_interval": "render_cache.gc_interval",

		// NATS mappings
		"nats_enabled":       "nats.enabled",
		"nats_url":           "nats.url",
		"nats_embedded":      "nats.embedded_server",
		"nats_store_dir":     "nats.store_dir",
		"nats_max_memory":    "nats.max_memory",
		"nats_max_store":     "nats.max_store",
		"nats_durable_name":  "nats.durable_name",
		"nats_queue_group":   "nats.queue_group",
		"nats_close_timeout": "nats.close_timeout",

		// API mappings
		"api_default_page_size":  "api.default_page_size",
		"api_max_page_size":      "api.max_page_size",
		"api_response_cache_ttl": "api.response_cache_ttl",

		// Security mappings
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"session_timeout":     "security.session_timeout",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"trusted_proxies":     "security.trusted_proxies",
		"signup_enabled":      "security.signup_enabled",
		"signup_role":         "security.signup_role",

		// OIDC mappings
		"oidc_issuer_url":      "security.oidc.issuer_url",
		"oidc_client_id":       "security.oidc.client_id",
		"oidc_client_secret":   "security.oidc.client_secret",
		"oidc_redirect_url":    "security.oidc.redirect_url",
		"oidc_scopes":          "security.oidc.scopes",
		"oidc_pkce_enabled":    "security.oidc.pkce_enabled",
		"oidc_default_role":    "security.oidc.default_role",
		"oidc_username_claims": "security.oidc.username_claims",
		"oidc_timeout":         "security.oidc.timeout",

		// Casbin mappings
		"casbin_model_path":      "security.casbin.model_path",
		"casbin_policy_path":     "security.casbin.policy_path",
		"casbin_default_role":    "security.casbin.default_role",
		"casbin_auto_reload":     "security.casbin.auto_reload",
		"casbin_reload_interval": "security.casbin.reload_interval",
		"casbin_cache_enabled":   "security.casbin.cache_enabled",
		"casbin_cache_ttl":       "security.casbin.cache_ttl",

		// Audit mappings
		"audit_enabled":          "audit.enabled",
		"audit_retention_days":   "audit.retention_days",
		"audit_buffer_size":      "audit.buffer_size",
		"audit_cleanup_interval": "audit.cleanup_interval",
		"audit_log_to_stdout":    "audit.log_to_stdout",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	// Start watching the file for changes
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
