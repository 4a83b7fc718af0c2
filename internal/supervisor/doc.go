// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package supervisor provides process supervision for Attentia using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation,
and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("attentia")
	├── StorageSupervisor ("storage-layer")
	│   ├── RenderCacheGCService
	│   └── AuditRetentionService
	├── CollaborationSupervisor ("collaboration-layer")
	│   ├── WebSocketHubService
	│   └── NATSComponentsService (if NATS_ENABLED, build tag: nats)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A flapping NATS bridge doesn't affect local WebSocket connections
  - Render cache maintenance failures don't impact API availability
  - A crashed HTTP server restarts without disturbing collaboration state

# Restart semantics

Suture restarts a crashed service immediately, tracking failures with
exponential decay. When a layer accumulates FailureThreshold failures it
enters FailureBackoff before retrying, bounding restart churn. Failure
counts are per-layer, so one misbehaving subsystem cannot exhaust the
restart budget of another.

# Logging

Supervisor lifecycle events (service start, failure, backoff, resume)
are logged through sutureslog into the process's slog handler, which
feeds the same zerolog sink as the rest of the application.
*/
package supervisor
