// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package authz provides role-based authorization using Casbin.
//
// The package enforces access to API endpoints based on a role
// hierarchy of viewer < editor < admin:
//
//   - viewer: read-only access to visualizations and annotations
//   - editor: create visualizations and annotations, share and export
//     (inherits viewer)
//   - admin: full access including the audit trail and cache
//     administration (inherits editor)
//
// The Casbin model and default policy are embedded in the binary
// (model.conf, policy.csv) and may be overridden with external files
// via configuration. Policy objects use keyMatch2 path patterns, so a
// rule object like /api/v1/visualizations/:id matches any concrete
// visualization path.
//
// Enforcement decisions are cached with a configurable TTL; the cache
// is invalidated per subject on role changes and cleared on policy
// changes. Denied requests are counted in Prometheus metrics and
// recorded in the audit trail.
//
// Typical wiring:
//
//	enforcer, err := authz.NewEnforcer(ctx, authz.EnforcerConfigFromApp(&cfg.Security.Casbin))
//	if err != nil {
//		return err
//	}
//	defer enforcer.Close()
//
//	mw := authz.NewMiddleware(enforcer, auditLogger)
//	r.With(authMW.Authenticate).Get("/admin/audit", mw.Authorize("/admin/audit", "read", auditHandler))
package authz
