// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nilskoch/attentia/docs" // generated swagger spec
	"github.com/nilskoch/attentia/internal/api"
	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/authz"
	"github.com/nilskoch/attentia/internal/cache"
	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/inference"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/rendercache"
	"github.com/nilskoch/attentia/internal/supervisor"
	"github.com/nilskoch/attentia/internal/supervisor/services"
	"github.com/nilskoch/attentia/internal/web"
	ws "github.com/nilskoch/attentia/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=v1.2.3".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", version).Msg("Starting Attentia with supervisor tree")
	logging.Info().
		Str("renderer_url", cfg.Inference.RendererURL).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Context for graceful shutdown; canceled on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// The hub must exist before the inference session and API handler,
	// both of which broadcast through it.
	wsHub := ws.NewHub()

	// === AUTHENTICATION ===

	var jwtManager *auth.JWTManager
	var oidcFlow *auth.OIDCFlow

	switch cfg.Security.AuthMode {
	case "local", "oidc":
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Str("mode", cfg.Security.AuthMode).Msg("Authentication enabled")

		if cfg.Security.AuthMode == "oidc" {
			oidcFlow, err = auth.NewOIDCFlow(ctx, &cfg.Security.OIDC)
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to initialize OIDC flow")
			}
			logging.Info().Str("issuer", cfg.Security.OIDC.IssuerURL).Msg("OIDC login enabled")
		}
	case "none":
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
		logging.Warn().Msg("This should only be used for local development and CI!")
	}

	// === AUDIT TRAIL ===

	var auditor *audit.Logger
	var auditHandlers *api.AuditHandlers
	if cfg.Audit.Enabled {
		auditStore := audit.NewDuckDBStore(db.Conn())
		if err := auditStore.CreateTable(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to create audit events table - audit trail disabled")
		} else {
			auditor = audit.NewLogger(auditStore, &audit.Config{
				Enabled:         true,
				RetentionDays:   cfg.Audit.RetentionDays,
				CleanupInterval: cfg.Audit.CleanupInterval,
				BufferSize:      cfg.Audit.BufferSize,
				LogToStdout:     cfg.Audit.LogToStdout,
			})
			defer func() {
				if err := auditor.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing audit logger")
				}
			}()

			auditHandlers = api.NewAuditHandlers(auditStore)
			tree.AddStorageService(services.NewAuditRetentionService(auditor))
			logging.Info().
				Int("retention_days", cfg.Audit.RetentionDays).
				Msg("Audit trail initialized with DuckDB persistence")
		}
	} else {
		logging.Info().Msg("Audit trail disabled (AUDIT_ENABLED=false)")
	}

	// === AUTHORIZATION (Casbin RBAC) ===

	var authzMW *authz.Middleware
	enforcer, err := authz.NewEnforcer(ctx, authz.EnforcerConfigFromApp(&cfg.Security.Casbin))
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to initialize Casbin enforcer - admin routes fall back to role check")
	} else {
		authzMW = authz.NewMiddleware(enforcer, auditor)
		logging.Info().Msg("Casbin authorization enabled")
	}

	// === RENDER CACHE ===

	renderCache := rendercache.Open(&cfg.RenderCache)
	if renderCache != nil {
		defer func() {
			if err := renderCache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing render cache")
			}
		}()
		tree.AddStorageService(rendercache.NewGCService(renderCache, cfg.RenderCache.GCInterval))
	}

	// === RENDERER SIDECAR ===

	client := inference.NewClient(&cfg.Inference)
	renderer := inference.NewCircuitBreakerRenderer(client)
	hubClient := inference.NewHubClient(&cfg.Inference)
	session := inference.NewSession(renderer, hubClient, wsHub, &cfg.Inference)
	logging.Info().
		Str("url", cfg.Inference.RendererURL).
		Str("default_model", cfg.Inference.DefaultModel).
		Msg("Renderer sidecar client initialized")

	if _, err := client.Health(ctx); err != nil {
		logging.Warn().Err(err).Msg("Renderer sidecar unreachable at startup (will retry per request)")
	}

	// === HTTP HANDLER AND ROUTER ===

	pages, err := web.New()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse page templates")
	}

	handler := api.NewHandler(api.HandlerDeps{
		DB:          db,
		Config:      cfg,
		JWTManager:  jwtManager,
		OIDCFlow:    oidcFlow,
		WSHub:       wsHub,
		Session:     session,
		Renderer:    renderer,
		RenderCache: renderCache,
		RespCache:   cache.New(cfg.API.ResponseCacheTTL),
		Auditor:     auditor,
		Pages:       pages,
		Version:     version,
	})

	// NATS event streaming (optional - requires build with -tags nats).
	// Fans collaboration events out to other instances' WebSocket clients.
	natsComponents, err := InitNATS(cfg, wsHub, handler)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	AddNATSToSupervisor(tree, natsComponents)

	authMW := auth.NewMiddleware(
		jwtManager,
		cfg.Security.AuthMode,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
		cfg.Security.CORSOrigins,
		cfg.Security.TrustedProxies,
	)
	chiMW := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)

	router := api.NewRouter(handler, auditHandlers, authMW, authzMW, chiMW)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree.AddCollaborationService(services.NewWebSocketHubService(wsHub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished).
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
