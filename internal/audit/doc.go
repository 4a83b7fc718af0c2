// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package audit provides security and collaboration audit logging.
//
// It records authentication attempts, authorization decisions,
// visualization and annotation lifecycle events, model session
// transitions, exports, and administrative actions.
//
// # Event Types
//
// Authentication: auth.success, auth.failure, auth.logout.
// Authorization: authz.granted, authz.denied.
// Users: user.created, user.modified.
// Visualizations: viz.created, viz.deleted, viz.shared, viz.unshared.
// Annotations: annotation.created, annotation.updated, annotation.deleted.
// Model sessions: model.loaded, model.unloaded, model.rejected.
// Data and administration: data.export, cache.cleared, admin.action.
//
// # Architecture
//
// The logger uses a producer-consumer pattern:
//
//	Logger.Log() -> Event Buffer (chan) -> Async Writer -> Store
//
// Events are buffered in a channel so callers never block; when the
// buffer is full events are dropped with a warning. A background
// goroutine drains the buffer and persists events to the store.
// Two Store implementations exist: DuckDBStore for production and
// MemoryStore for development and tests. A retention cleanup routine
// deletes events older than the configured retention period.
package audit
