// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package auth provides authentication and security middleware.

It implements JWT issue/verify, bcrypt password hashing, per-IP rate
limiting, CORS, security headers, and an optional OIDC authorization
code flow. It is the security layer between incoming HTTP requests and
the API handlers.

Key Components:

  - JWTManager: token generation and validation using HMAC-SHA256;
    the user ID travels in the Subject claim
  - HashPassword / VerifyPassword: bcrypt cost-12 password handling
  - Middleware: authentication, rate limiting, CORS, security headers
  - RateLimiter: per-IP token bucket with stale-entry cleanup
  - OIDCFlow: authorization code flow via the zitadel relying party;
    successful logins are exchanged for the same local JWT

Authentication Modes (AUTH_MODE):

 1. jwt (default): local username/password login issuing a JWT,
    accepted from the Authorization header or the HTTP-only "token"
    cookie set for browser form flows.
 2. oidc: single sign-on against an external provider; the callback
    provisions or links a local user by email and issues the local JWT,
    so downstream request handling is identical to jwt mode.
 3. none: no authentication (development only).

Tokens are stateless and cannot be revoked before expiry; the session
timeout (default 24h) bounds the exposure window.
*/
package auth
