// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nilskoch/attentia/internal/config"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"
)

// OIDCIdentity is the subset of OIDC claims Attentia needs to provision
// or link a local user after a successful code exchange.
type OIDCIdentity struct {
	// Subject is the stable user identifier at the provider.
	Subject string

	// Issuer is the provider issuer URL, stored alongside Subject so a
	// subject is only ever matched against its own provider.
	Issuer string

	// Email from the email claim. Used to link to an existing local user.
	Email string

	// Username resolved from the configured username claims, first
	// non-empty wins.
	Username string
}

// OIDCFlow drives the authorization code flow against a single OIDC
// provider using the certified zitadel relying party client.
//
// State parameters are held in an in-memory store with a TTL; each
// state is single-use and consumed on callback. A restart invalidates
// in-flight logins, which is acceptable for a browser redirect flow.
type OIDCFlow struct {
	rp             rp.RelyingParty
	usernameClaims []string
	defaultRole    string

	mu     sync.Mutex
	states map[string]time.Time
}

// stateTTL bounds how long a login redirect may take before the state
// expires.
const stateTTL = 10 * time.Minute

// NewOIDCFlow performs OIDC discovery and initializes the relying
// party. The context bounds the discovery request.
func NewOIDCFlow(ctx context.Context, cfg *config.OIDCConfig) (*OIDCFlow, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("oidc issuer_url is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("oidc client_id is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("oidc redirect_url is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	options := []rp.Option{
		rp.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.PKCEEnabled {
		options = append(options, rp.WithPKCE(nil))
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.IssuerURL,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.RedirectURL,
		scopes,
		options...,
	)
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}

	usernameClaims := cfg.UsernameClaims
	if len(usernameClaims) == 0 {
		usernameClaims = []string{"preferred_username", "name", "email"}
	}

	return &OIDCFlow{
		rp:             relyingParty,
		usernameClaims: usernameClaims,
		defaultRole:    cfg.DefaultRole,
		states:         make(map[string]time.Time),
	}, nil
}

// AuthorizationURL creates a fresh single-use state and returns the
// provider URL to redirect the browser to.
func (f *OIDCFlow) AuthorizationURL() (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	f.mu.Lock()
	f.pruneLocked()
	f.states[state] = time.Now().Add(stateTTL)
	f.mu.Unlock()

	return rp.AuthURL(state, f.rp), nil
}

// HandleCallback validates the state, exchanges the authorization code
// for tokens, and maps the verified ID token claims to an identity.
func (f *OIDCFlow) HandleCallback(ctx context.Context, code, state string) (*OIDCIdentity, error) {
	if err := f.consumeState(state); err != nil {
		return nil, err
	}

	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, f.rp)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	claims := tokens.IDTokenClaims
	if claims == nil {
		return nil, fmt.Errorf("token response contained no ID token claims")
	}

	return &OIDCIdentity{
		Subject:  claims.Subject,
		Issuer:   claims.Issuer,
		Email:    claims.Email,
		Username: f.resolveUsername(claims),
	}, nil
}

// DefaultRole returns the role assigned to newly provisioned OIDC users.
func (f *OIDCFlow) DefaultRole() string {
	if f.defaultRole == "" {
		return "editor"
	}
	return f.defaultRole
}

// consumeState validates and removes a state parameter.
func (f *OIDCFlow) consumeState(state string) error {
	if state == "" {
		return fmt.Errorf("missing state parameter")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	expiry, ok := f.states[state]
	if !ok {
		return fmt.Errorf("unknown state parameter")
	}
	delete(f.states, state)

	if time.Now().After(expiry) {
		return fmt.Errorf("expired state parameter")
	}
	return nil
}

// pruneLocked drops expired states. Caller holds f.mu.
func (f *OIDCFlow) pruneLocked() {
	now := time.Now()
	for state, expiry := range f.states {
		if now.After(expiry) {
			delete(f.states, state)
		}
	}
}

// resolveUsername picks the first configured claim with a value.
func (f *OIDCFlow) resolveUsername(claims *oidc.IDTokenClaims) string {
	for _, claim := range f.usernameClaims {
		switch claim {
		case "preferred_username":
			if claims.PreferredUsername != "" {
				return claims.PreferredUsername
			}
		case "name":
			if claims.Name != "" {
				return claims.Name
			}
		case "email":
			if claims.Email != "" {
				return claims.Email
			}
		}
	}
	return claims.Subject
}

// generateState returns a cryptographically random state parameter.
func generateState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
