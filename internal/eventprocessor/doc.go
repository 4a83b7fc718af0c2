// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package eventprocessor streams collaboration events between Attentia
instances over NATS JetStream.

When a user creates an annotation or renders a visualization, only clients
connected to that instance see the WebSocket broadcast. With NATS enabled,
the change is also published as a CollaborationEvent; every instance runs a
Watermill router that consumes the stream and re-broadcasts events to its
own WebSocket clients.

# Build Tags

The full implementation requires the nats build tag:

	go build -tags nats ./...

Without the tag, stub implementations compile in. Constructors return
ErrNATSNotEnabled and the application falls back to single-instance
WebSocket broadcasts.

# Topology

	annotation handler          eventprocessor.Publisher          NATS JetStream
	      |                              |                         COLLAB_EVENTS
	      +--- CollaborationEvent -----> +--- collab.annotation.created --->+
	                                                                        |
	instance B router <--- subscriber (durable, queue group) <--------------+
	      |
	      +--- WebSocketHandler ---> websocket.Hub.BroadcastRaw

Events use the subject hierarchy collab.<type>:

	collab.viz.created
	collab.viz.deleted
	collab.annotation.created
	collab.annotation.updated
	collab.annotation.deleted
	collab.model.status

# Components

  - CollaborationEvent: canonical event format with schema versioning
  - Publisher: Watermill NATS publisher with circuit breaker protection
  - Subscriber: durable JetStream consumer with queue-group load balancing
  - Router: Watermill router with retry, recovery, dedup, and poison queue
  - WebSocketHandler: forwards consumed events to the local hub
  - StreamInitializer: idempotent COLLAB_EVENTS stream provisioning
  - EmbeddedServer: optional in-process NATS JetStream server
  - HealthChecker: aggregated component health for the health endpoint

# Delivery Semantics

Publishing sets Nats-Msg-Id from the event ID, so JetStream's duplicate
window suppresses republishes. Consumption is at-least-once; the router's
deduplicator drops redeliveries by event ID. Broadcasts are fire-and-forget
to clients, so a dropped WebSocket frame is not retried.
*/
package eventprocessor
