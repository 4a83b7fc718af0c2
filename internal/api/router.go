// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/authz"
	"github.com/nilskoch/attentia/internal/middleware"
	"github.com/nilskoch/attentia/internal/models"
)

// Router wires handlers, authentication, authorization and the
// middleware factories into one chi route tree.
type Router struct {
	handler       *Handler
	auditHandlers *AuditHandlers
	middleware    *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. auditHandlers and authzMW may be nil: the
// audit API then reports unavailable, and admin routes fall back to the
// JWT role check alone.
func NewRouter(handler *Handler, auditHandlers *AuditHandlers, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		auditHandlers: auditHandlers,
		middleware:    authMW,
		authz:         authzMW,
		chiMiddleware: chiMW,
	}
}

// admin chains authentication, the admin role check, and (when
// configured) a Casbin decision for an admin-only endpoint.
func (router *Router) admin(object, action string, next http.HandlerFunc) http.HandlerFunc {
	if router.authz != nil {
		next = router.authz.Authorize(object, action, next)
	}
	return router.middleware.RequireRole(models.RoleAdmin, next)
}

// Setup builds the complete route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight works everywhere
	r.Use(middleware.Compression)

	// Operational endpoints. Permissive rate limiting so monitoring
	// can probe frequently without the endpoint becoming a target.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/health", router.handler.HandleHealth)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
	))

	// Browser pages. Optional authentication personalizes the header
	// but anonymous visitors see everything public.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
		r.Use(middleware.PrometheusMetrics)
		r.Use(chiMiddleware(router.middleware.Optional))
		r.Get("/", router.handler.HandleIndex)
		r.Get("/viz/{id}", router.handler.HandleVizPage)
		r.Get("/share/{token}", router.handler.HandleSharePage)
	})

	// Submission and model management. Rendering is the expensive path,
	// so /visualize carries the tightest rate limit in the app.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitVisualize))
		r.Use(middleware.PrometheusMetrics)
		r.Use(chiMiddleware(router.middleware.Authenticate))
		r.Post("/visualize", router.handler.HandleVisualize)
		r.Get("/unload", router.handler.HandleUnloadModel)
	})

	// Live collaboration socket.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket))
		r.Use(chiMiddleware(router.middleware.Optional))
		r.Get("/ws", router.handler.HandleWebSocket)
	})

	// Authentication endpoints: strict limits against brute force,
	// login strictest of all.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAuth))
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitLogin)).Post("/login", router.handler.HandleLogin)
		r.Post("/signup", router.handler.HandleSignup)
		r.Get("/logout", chiHandler(router.middleware.Optional, router.handler.HandleLogout))
		r.Post("/logout", chiHandler(router.middleware.Optional, router.handler.HandleLogout))
		r.Get("/me", chiHandler(router.middleware.Authenticate, router.handler.HandleMe))
		r.Get("/oidc/login", router.handler.HandleOIDCLogin)
		r.Get("/oidc/callback", router.handler.HandleOIDCCallback)
	})

	// Core API. Reads are public; shared views depend on that.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAPI))
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(chiMiddleware(router.middleware.Optional))

		r.Get("/viz", router.handler.HandleListViz)
		r.Get("/viz/{id}", router.handler.HandleGetViz)
		r.Get("/viz/{id}/annotations", router.handler.HandleListAnnotations)
		r.Get("/share/{token}", router.handler.HandleGetShared)

		// Mutations require authentication and the write budget.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWrite))
			r.Use(chiMiddleware(router.middleware.Authenticate))

			r.Delete("/viz/{id}", router.handler.HandleDeleteViz)
			r.Post("/viz/{id}/annotations", router.handler.HandleCreateAnnotation)
			r.Patch("/annotations/{id}", router.handler.HandleUpdateAnnotation)
			r.Delete("/annotations/{id}", router.handler.HandleDeleteAnnotation)
			r.Post("/viz/{id}/share", router.handler.HandleCreateShare)
			r.Delete("/viz/{id}/share", router.handler.HandleRevokeShare)
		})

		// Exports are authenticated and resource-limited.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitExport))
			r.Use(chiMiddleware(router.middleware.Authenticate))

			r.Get("/export/viz/{id}/html", router.handler.HandleExportHTML)
			r.Get("/export/viz/{id}/json", router.handler.HandleExportJSON)
			r.Get("/export/annotations.csv", router.handler.HandleExportAnnotationsCSV)
		})

		// Admin surface: audit trail and render cache management.
		r.Get("/cache/stats", chiHandler(router.middleware.Authenticate, router.handler.HandleCacheStats))
		r.Post("/cache/clear", router.admin("cache", "write", router.handler.HandleCacheClear))

		if router.auditHandlers != nil {
			r.Get("/audit/events", router.admin("audit", "read", router.auditHandlers.HandleListEvents))
			r.Get("/audit/events/{id}", router.admin("audit", "read", router.auditHandlers.HandleGetEvent))
			r.Get("/audit/stats", router.admin("audit", "read", router.auditHandlers.HandleGetStats))
		}
	})

	return r
}

// chiHandler applies a HandlerFunc-wrapping middleware to a single route.
func chiHandler(mw func(http.HandlerFunc) http.HandlerFunc, h http.HandlerFunc) http.HandlerFunc {
	return mw(h)
}
