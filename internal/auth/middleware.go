// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nilskoch/attentia/internal/logging"
	"golang.org/x/time/rate"
)

type contextKey string

// ClaimsContextKey carries validated JWT claims through the request context.
const ClaimsContextKey contextKey = "claims"

// Middleware provides authentication, rate limiting, CORS, and security
// header middleware for the HTTP layer.
type Middleware struct {
	jwtManager        *JWTManager
	authMode          string
	rateLimiter       *RateLimiter
	rateLimitDisabled bool
	corsOrigins       []string
	trustedProxies    map[string]bool
}

// NewMiddleware creates the authentication middleware.
//
// authMode is one of "none", "jwt", or "oidc". OIDC logins still end in
// a locally issued JWT, so token validation is identical for the last
// two modes; "none" disables authentication entirely (development only).
func NewMiddleware(jwtManager *JWTManager, authMode string, reqsPerWindow int, window time.Duration, rateLimitDisabled bool, corsOrigins, trustedProxies []string) *Middleware {
	trustedMap := make(map[string]bool)
	for _, proxy := range trustedProxies {
		trustedMap[proxy] = true
	}

	m := &Middleware{
		jwtManager:        jwtManager,
		authMode:          authMode,
		rateLimiter:       NewRateLimiter(reqsPerWindow, window),
		rateLimitDisabled: rateLimitDisabled,
		corsOrigins:       corsOrigins,
		trustedProxies:    trustedMap,
	}

	if !rateLimitDisabled {
		go m.rateLimiter.startCleanup(5 * time.Minute)
	}

	return m
}

// Authenticate is middleware that enforces authentication.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			next(w, r)
			return
		}

		token, err := m.extractToken(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Debug().Err(err).Msg("Token validation failed")
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// Optional attaches claims to the context when a valid token is present
// but lets unauthenticated requests through. Public pages use this so
// they can personalize for logged-in users.
func (m *Middleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, err := m.extractToken(r); err == nil {
			if claims, err := m.jwtManager.ValidateToken(token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims))
			}
		}
		next(w, r)
	}
}

// extractToken pulls the JWT from the Authorization header or, for
// browser form flows, the "token" cookie.
func (m *Middleware) extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", fmt.Errorf("missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("invalid authorization header")
	}

	return parts[1], nil
}

// ClaimsFromContext returns the validated claims for the request, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// RequireRole is middleware that enforces a specific role.
// Admins pass any role check.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			if m.authMode == "none" {
				next(w, r)
				return
			}
			http.Error(w, "Forbidden: invalid claims", http.StatusForbidden)
			return
		}

		if claims.Role != role && claims.Role != "admin" {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next(w, r)
	})
}

// RateLimit is middleware that enforces the global per-IP token bucket.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitDisabled {
			next(w, r)
			return
		}

		ip := m.getClientIP(r)
		if !m.rateLimiter.Allow(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// CORS adds CORS headers based on configuration.
func (m *Middleware) CORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := m.checkAndSetOriginHeaders(w, origin)

		if !allowed && origin != "" {
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			// Non-preflight requests continue without CORS headers;
			// the browser blocks the response client-side.
		}

		m.setCommonCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// checkAndSetOriginHeaders checks if origin is allowed and sets headers.
func (m *Middleware) checkAndSetOriginHeaders(w http.ResponseWriter, origin string) bool {
	for _, allowedOrigin := range m.corsOrigins {
		if allowedOrigin == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			return true
		}
		if allowedOrigin == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			return true
		}
	}
	return false
}

// setCommonCORSHeaders sets the common CORS headers for all requests.
func (m *Middleware) setCommonCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "86400")
}

// SecurityHeaders adds security headers to all responses.
//
// The CSP permits inline and eval'd scripts plus the jsdelivr and
// cdnjs hosts: rendered attention HTML embeds require.js, d3, and
// inline bootstrap scripts produced by the renderer, none of which can
// carry a server-side nonce.
func (m *Middleware) SecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.jsdelivr.net https://cdnjs.cloudflare.com https://d3js.org; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"font-src 'self' data:; " +
			"connect-src 'self' wss: ws:; " +
			"frame-ancestors 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
		w.Header().Set("Content-Security-Policy", csp)

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Referrer policy
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HSTS (only if using HTTPS - check X-Forwarded-Proto)
		if r.Header.Get("X-Forwarded-Proto") == "https" || r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Permissions policy (restrict unnecessary browser features)
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next(w, r)
	}
}

// getClientIP extracts the client IP address with proxy validation.
// Forwarding headers are only honored when the direct peer is a
// configured trusted proxy.
func (m *Middleware) getClientIP(r *http.Request) string {
	remoteIP := strings.Split(r.RemoteAddr, ":")[0]

	if !m.isFromTrustedProxy(remoteIP) {
		return remoteIP
	}

	if clientIP := m.extractIPFromXFF(r); clientIP != "" {
		return clientIP
	}

	if clientIP := m.extractIPFromXRealIP(r); clientIP != "" {
		return clientIP
	}

	return remoteIP
}

// isFromTrustedProxy checks if the remote IP is a trusted proxy.
func (m *Middleware) isFromTrustedProxy(remoteIP string) bool {
	return len(m.trustedProxies) > 0 && m.trustedProxies[remoteIP]
}

// extractIPFromXFF extracts and validates IP from X-Forwarded-For.
func (m *Middleware) extractIPFromXFF(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}

	ips := strings.Split(xff, ",")
	clientIP := strings.TrimSpace(ips[0])
	if isValidIP(clientIP) {
		return clientIP
	}

	return ""
}

// extractIPFromXRealIP extracts and validates IP from X-Real-IP.
func (m *Middleware) extractIPFromXRealIP(r *http.Request) string {
	xri := r.Header.Get("X-Real-IP")
	if xri != "" && isValidIP(xri) {
		return xri
	}
	return ""
}

// isValidIP checks if a string is a valid IP address (basic validation).
func isValidIP(ip string) bool {
	parts := strings.Split(ip, ".")
	if len(parts) == 4 {
		return isValidIPv4(parts)
	}
	return isValidIPv6(ip)
}

// isValidIPv4 validates an IPv4 address from its parts.
func isValidIPv4(parts []string) bool {
	for _, part := range parts {
		if !isValidIPv4Part(part) {
			return false
		}
	}
	return true
}

// isValidIPv4Part validates a single octet of an IPv4 address.
func isValidIPv4Part(part string) bool {
	if len(part) == 0 || len(part) > 3 {
		return false
	}
	for _, char := range part {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

// isValidIPv6 performs basic validation for IPv6 addresses.
func isValidIPv6(ip string) bool {
	return ip != "" && !strings.Contains(ip, " ") && len(ip) < 40
}

// RateLimiter implements per-IP rate limiting with automatic cleanup.
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.RWMutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

// rateLimiterEntry wraps a rate limiter with last access time.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a new rate limiter allowing reqsPerWindow
// requests per window per client IP.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	r := rate.Every(window)
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      r,
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow checks if a request from the given IP is allowed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically removes stale rate limiters.
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

// cleanup removes rate limiters not accessed in the last hour.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}

// GetCORSOrigins returns the configured CORS allowed origins.
func (m *Middleware) GetCORSOrigins() []string {
	return m.corsOrigins
}
