// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Command server runs the Attentia web application.
//
// Attentia renders transformer attention visualizations through a Python
// renderer sidecar, persists them in DuckDB, and lets teams annotate and
// share them in real time over WebSockets.
//
// # Architecture
//
// The process is organized as a supervisor tree (suture) with three layers:
//
//   - storage-layer: audit retention, render cache garbage collection
//   - collaboration-layer: WebSocket hub, optional NATS event pipeline
//   - api-layer: HTTP server
//
// Failed services are restarted with exponential backoff; persistent
// failures propagate up the tree and terminate the process.
//
// # Configuration
//
// Configuration is loaded from environment variables with an optional
// config file (CONFIG_FILE). Key variables:
//
//	PORT                HTTP listen port (default 8000)
//	DB_PATH             DuckDB database file (default ./data/attentia.db)
//	RENDERER_URL        renderer sidecar base URL (default http://127.0.0.1:8001)
//	AUTH_MODE           local | oidc | none (default local)
//	JWT_SECRET          HMAC secret for session tokens (required unless AUTH_MODE=none)
//	NATS_ENABLED        enable multi-instance event fan-out (default false)
//	AUDIT_ENABLED       persist audit events in DuckDB (default true)
//	LOG_LEVEL           trace | debug | info | warn | error (default info)
//
// See internal/config for the full list.
//
// # Build tags
//
//	nats         compile the NATS/JetStream collaboration pipeline
//	integration  enable testcontainers-based integration tests
//
// # Shutdown
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, WebSocket clients are disconnected, the audit
// buffer is flushed, and the supervisor reports any service that failed
// to stop within its timeout.
package main
