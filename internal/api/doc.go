// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package api implements the HTTP surface of Attentia: the browser-facing
// pages (submission form, visualization, shared views), the versioned JSON
// API under /api/v1, and the operational endpoints (/health, /metrics,
// /swagger).
//
// All JSON responses use the models.APIResponse envelope. Errors carry a
// machine-readable code plus a human message; validation failures include
// per-field details.
//
// Handlers hold their dependencies on a single Handler struct and are wired
// into a chi router by NewRouter. Route groups apply their own middleware
// stacks (rate limits per endpoint class, authentication, security headers,
// Prometheus instrumentation) so public pages, authenticated API calls, and
// admin routes each get exactly the protection they need.
package api
