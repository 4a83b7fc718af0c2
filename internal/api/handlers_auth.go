// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/models"
)

// tokenCookieName is the session cookie consumed by the auth middleware
// for browser navigations.
const tokenCookieName = "token"

// setTokenCookie attaches the session cookie. HttpOnly keeps it away
// from scripts; SameSite=Strict stops cross-site form posts from riding
// the session.
func (h *Handler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwtManager.Timeout() / time.Second),
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// clearTokenCookie expires the session cookie.
func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// HandleSignup creates a local account.
//
//	@Summary		Create account
//	@Description	Registers a local user and returns an access token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SignupRequest	true	"Account details"
//	@Success		201		{object}	models.APIResponse{data=models.TokenResponse}
//	@Failure		400		{object}	models.APIResponse
//	@Failure		403		{object}	models.APIResponse
//	@Router			/api/v1/auth/signup [post]
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if !h.config.Security.SignupEnabled {
		respondError(w, http.StatusForbidden, "AUTHORIZATION_ERROR", "Signup is disabled", nil)
		return
	}

	var req SignupRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", err)
		return
	}

	role := h.config.Security.SignupRole
	if !models.IsValidRole(role) {
		role = models.RoleEditor
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Provider:     "local",
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateUsername):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Username already exists", nil)
		case errors.Is(err, database.ErrDuplicateEmail):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email already exists", nil)
		default:
			respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create account", err)
		}
		return
	}

	if h.auditor != nil {
		actor := audit.ActorFromUser(user.ID.String(), user.Username, []string{user.Role}, "local")
		h.auditor.LogUserCreated(r.Context(), actor, audit.SourceFromRequest(r), "local")
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}
	h.setTokenCookie(w, token)

	respondData(w, http.StatusCreated, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID.String(),
	})
}

// HandleLogin authenticates a local account and issues the session
// cookie alongside the bearer token.
//
//	@Summary		Log in
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	models.APIResponse{data=models.TokenResponse}
//	@Failure		401		{object}	models.APIResponse
//	@Router			/api/v1/auth/login [post]
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    apiErr,
		})
		return
	}

	source := audit.SourceFromRequest(r)

	user, err := h.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if h.auditor != nil {
			h.auditor.LogAuthFailure(r.Context(), "", req.Username, source, "unknown username")
		}
		// Burn a hash comparison so unknown usernames take as long as
		// wrong passwords.
		auth.VerifyPassword("$2a$10$000000000000000000000u0000000000000000000000000000000", req.Password)
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Incorrect username or password", nil)
		return
	}

	if user.Provider != "local" || user.PasswordHash == "" {
		if h.auditor != nil {
			h.auditor.LogAuthFailure(r.Context(), user.ID.String(), user.Username, source, "password login not available for account")
		}
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Incorrect username or password", nil)
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.auditor != nil {
			h.auditor.LogAuthFailure(r.Context(), user.ID.String(), user.Username, source, "wrong password")
		}
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Incorrect username or password", nil)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	if h.auditor != nil {
		actor := audit.ActorFromUser(user.ID.String(), user.Username, []string{user.Role}, "local")
		h.auditor.LogAuthSuccess(r.Context(), actor, source, "local")
	}

	h.setTokenCookie(w, token)
	respondData(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      user.ID.String(),
	})
}

// HandleLogout clears the session cookie. Browser navigations are sent
// back to the form page; API clients get a JSON acknowledgment.
//
//	@Summary	Log out
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	models.APIResponse
//	@Router		/api/v1/auth/logout [get]
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if h.auditor != nil {
		if _, claims, ok := currentUser(r); ok {
			actor := audit.ActorFromUser(claims.Subject, claims.Username, []string{claims.Role}, "jwt")
			h.auditor.LogLogout(r.Context(), actor, audit.SourceFromRequest(r))
		}
	}

	h.clearTokenCookie(w)

	if wantsHTML(r) || r.Method == http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"detail": "Logged out"})
}

// HandleMe returns the authenticated user's profile.
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	models.APIResponse{data=models.User}
//	@Failure	401	{object}	models.APIResponse
//	@Security	BearerAuth
//	@Router		/api/v1/auth/me [get]
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Not authenticated", nil)
		return
	}

	user, err := h.db.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Account no longer exists", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user", err)
		return
	}

	respondData(w, http.StatusOK, user)
}

// HandleOIDCLogin starts the OIDC authorization code flow.
//
//	@Summary	Start OIDC login
//	@Tags		auth
//	@Success	302
//	@Failure	404	{object}	models.APIResponse
//	@Router		/api/v1/auth/oidc/login [get]
func (h *Handler) HandleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	if h.oidcFlow == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "OIDC is not configured", nil)
		return
	}

	authURL, err := h.oidcFlow.AuthorizationURL()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start OIDC flow", err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleOIDCCallback completes the OIDC flow: exchanges the code,
// provisions the user on first login, and issues the session cookie.
//
//	@Summary	OIDC callback
//	@Tags		auth
//	@Success	303
//	@Failure	401	{object}	models.APIResponse
//	@Router		/api/v1/auth/oidc/callback [get]
func (h *Handler) HandleOIDCCallback(w http.ResponseWriter, r *http.Request) {
	if h.oidcFlow == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "OIDC is not configured", nil)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	source := audit.SourceFromRequest(r)

	identity, err := h.oidcFlow.HandleCallback(r.Context(), code, state)
	if err != nil {
		if h.auditor != nil {
			h.auditor.LogAuthFailure(r.Context(), "", "", source, "OIDC callback rejected")
		}
		respondError(w, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "OIDC login failed", err)
		return
	}

	user, err := h.oidcUser(r, identity, source)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to provision user", err)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err)
		return
	}

	if h.auditor != nil {
		actor := audit.ActorFromUser(user.ID.String(), user.Username, []string{user.Role}, "oidc")
		h.auditor.LogAuthSuccess(r.Context(), actor, source, "oidc")
	}

	h.setTokenCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// oidcUser resolves or provisions the local account for an OIDC identity.
// Subjects are matched first; otherwise a verified email links to an
// existing local account, else a fresh account is created with the
// flow's default role.
func (h *Handler) oidcUser(r *http.Request, identity *auth.OIDCIdentity, source audit.Source) (*models.User, error) {
	ctx := r.Context()

	if user, err := h.db.GetUserBySubject(ctx, identity.Subject); err == nil {
		return user, nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	if identity.Email != "" {
		if user, err := h.db.GetUserByEmail(ctx, identity.Email); err == nil {
			logging.Info().Str("username", sanitizeLogValue(user.Username)).Msg("Linked OIDC identity to existing account by email")
			return user, nil
		} else if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: identity.Username,
		Email:    identity.Email,
		Role:     h.oidcFlow.DefaultRole(),
		Provider: "oidc",
		Subject:  identity.Subject,
	}
	if err := h.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if h.auditor != nil {
		actor := audit.ActorFromUser(user.ID.String(), user.Username, []string{user.Role}, "oidc")
		h.auditor.LogUserCreated(ctx, actor, source, "oidc")
	}
	return user, nil
}
