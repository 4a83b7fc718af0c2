// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package main

// Swagger API metadata. Regenerate the spec with:
//
//	swag init -g cmd/server/docs.go -o docs
//
// Endpoint-level annotations live on the handlers in internal/api.

// @title        Attentia API
// @version      1.0
// @description  Collaborative transformer attention visualization. Submit a model and input text, receive an interactive attention map rendered by the sidecar, then annotate and share it with your team.
// @description
// @description  Authentication uses bearer tokens obtained from /api/v1/auth/login (local mode) or the OIDC flow. Pass the token in the Authorization header: `Bearer <token>`.

// @contact.name  Attentia
// @contact.url   https://github.com/nilskoch/attentia

// @license.name  AGPL-3.0-or-later
// @license.url   https://www.gnu.org/licenses/agpl-3.0.html

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 JWT bearer token, format: "Bearer <token>"

// @tag.name         pages
// @tag.description  Server-rendered HTML pages

// @tag.name         visualizations
// @tag.description  Attention visualization CRUD and rendering

// @tag.name         annotations
// @tag.description  Token-anchored annotations on visualizations

// @tag.name         sharing
// @tag.description  Public share links

// @tag.name         auth
// @tag.description  Login, signup, and session management

// @tag.name         exports
// @tag.description  Visualization export formats

// @tag.name         operations
// @tag.description  Health, metrics, and cache administration

// @tag.name         audit
// @tag.description  Audit trail queries (admin only)
