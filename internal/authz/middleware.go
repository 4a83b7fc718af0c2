// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package authz

import (
	"net/http"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/logging"
)

// Middleware enforces authorization on HTTP requests using Casbin.
// Denied requests are recorded in the audit trail when an audit
// logger is configured.
type Middleware struct {
	enforcer *Enforcer
	auditor  *audit.Logger
}

// NewMiddleware creates authorization middleware.
// auditor may be nil to disable audit logging of denials.
func NewMiddleware(enforcer *Enforcer, auditor *audit.Logger) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		auditor:  auditor,
	}
}

// Authorize enforces authorization for a specific object and action.
func (m *Middleware) Authorize(object, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.enforce(w, r, object, action, next)
	}
}

// AuthorizeRequest derives the action from the HTTP method and the
// object from the request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.enforce(w, r, r.URL.Path, methodToAction(r.Method), next.ServeHTTP)
	})
}

func (m *Middleware) enforce(w http.ResponseWriter, r *http.Request, object, action string, next http.HandlerFunc) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Forbidden: no authentication context", http.StatusForbidden)
		return
	}

	allowed, err := m.enforcer.EnforceWithRole(claims.Subject, claims.Role, object, action)
	if err != nil {
		logging.Error().Err(err).
			Str("subject", claims.Subject).
			Str("object", object).
			Str("action", action).
			Msg("Authorization error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !allowed {
		RecordDenial(claims.Role, action)
		if m.auditor != nil {
			actor := audit.ActorFromUser(claims.Subject, claims.Username, []string{claims.Role}, "jwt")
			m.auditor.LogAuthzDenied(r.Context(), actor, audit.SourceFromRequest(r), object, action)
		}
		logging.Warn().
			Str("subject", claims.Subject).
			Str("role", claims.Role).
			Str("object", object).
			Str("action", action).
			Msg("Authorization denied")
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	next(w, r)
}

// methodToAction maps HTTP methods to policy actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
