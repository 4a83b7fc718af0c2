// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/cache"
	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/eventprocessor"
	"github.com/nilskoch/attentia/internal/inference"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/rendercache"
	"github.com/nilskoch/attentia/internal/web"
	ws "github.com/nilskoch/attentia/internal/websocket"
)

// CollabPublisher publishes collaboration events for cross-instance
// WebSocket fan-out. Implemented by eventprocessor.Publisher in builds
// compiled with the nats tag; nil otherwise.
type CollabPublisher interface {
	PublishEvent(ctx context.Context, event *eventprocessor.CollaborationEvent) error
}

// Handler carries the dependencies shared by all HTTP handlers.
type Handler struct {
	db          *database.DB
	config      *config.Config
	jwtManager  *auth.JWTManager
	oidcFlow    *auth.OIDCFlow
	wsHub       *ws.Hub
	session     *inference.Session
	renderer    *inference.CircuitBreakerRenderer
	renderCache *rendercache.Store
	respCache   *cache.Cache
	auditor     *audit.Logger
	pages       *web.Templates
	collabPub   CollabPublisher
	version     string
	startTime   time.Time
}

// HandlerDeps bundles the constructor arguments for NewHandler.
// oidcFlow, wsHub, session, renderer, renderCache, respCache, and
// auditor may be nil; the affected endpoints degrade or 404.
type HandlerDeps struct {
	DB          *database.DB
	Config      *config.Config
	JWTManager  *auth.JWTManager
	OIDCFlow    *auth.OIDCFlow
	WSHub       *ws.Hub
	Session     *inference.Session
	Renderer    *inference.CircuitBreakerRenderer
	RenderCache *rendercache.Store
	RespCache   *cache.Cache
	Auditor     *audit.Logger
	Pages       *web.Templates
	Version     string
}

// NewHandler creates the handler set backing the router.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		db:          deps.DB,
		config:      deps.Config,
		jwtManager:  deps.JWTManager,
		oidcFlow:    deps.OIDCFlow,
		wsHub:       deps.WSHub,
		session:     deps.Session,
		renderer:    deps.Renderer,
		renderCache: deps.RenderCache,
		respCache:   deps.RespCache,
		auditor:     deps.Auditor,
		pages:       deps.Pages,
		version:     deps.Version,
		startTime:   time.Now(),
	}
}

// SetCollabPublisher wires an event publisher so mutations on this
// instance reach WebSocket clients connected to other instances. Local
// clients are always served by the hub directly; the publisher only
// carries the event outward.
func (h *Handler) SetCollabPublisher(pub CollabPublisher) {
	h.collabPub = pub
}

// publishCollab best-effort publishes a collaboration event. Publish
// failures are logged, never surfaced to the client: the local broadcast
// has already happened and the write is committed.
func (h *Handler) publishCollab(ctx context.Context, event *eventprocessor.CollaborationEvent) {
	if h.collabPub == nil {
		return
	}
	if err := h.collabPub.PublishEvent(ctx, event); err != nil {
		logging.Warn().Err(err).Str("event_type", event.Type).Msg("Failed to publish collaboration event")
	}
}

// getUpgrader builds the WebSocket upgrader with origin checking tied
// to the configured CORS origins.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin validates the Origin header against the allowed
// CORS origins. Requests without an Origin header (non-browser clients)
// are allowed; browsers always send one for WebSocket upgrades.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("Rejected WebSocket origin")
	return false
}
