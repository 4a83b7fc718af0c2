// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package websocket provides real-time bidirectional communication for live updates.

This package implements WebSocket support for broadcasting annotation lifecycle
events, new visualizations, and model session status to connected frontend
clients. It uses the gorilla/websocket library with a hub-client architecture
for efficient message broadcasting.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - Message: Typed message structure for different event types

Architecture:

The package implements a hub-and-spoke pattern:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from WebSocket, handles pings and subscriptions
  - writePump: Writes to WebSocket, sends pings

Message Types:

  - annotation_created / annotation_updated / annotation_deleted:
    annotation lifecycle, scoped to clients viewing the visualization
  - visualization_created: a new visualization exists (without the HTML payload)
  - model_status: model session changes (loading, loaded, unloaded, rejected)
  - subscribe: sent by clients to scope annotation events to one visualization
  - ping / pong: keepalive

Usage Example - Server:

	import (
	    "github.com/nilskoch/attentia/internal/websocket"
	    "net/http"
	)

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	// After saving an annotation:
	hub.BroadcastAnnotation(websocket.MessageTypeAnnotationCreated,
	    annotation.VisualizationID.String(), annotationWithUser)

Usage Example - Client (JavaScript):

	const ws = new WebSocket('ws://localhost:8000/ws');

	// Scope annotation events to the open visualization
	ws.onopen = () => ws.send(JSON.stringify({
	    type: 'subscribe',
	    data: { visualization_id: vizId },
	}));

	ws.onmessage = (event) => {
	    const msg = JSON.parse(event.data);
	    if (msg.type === 'annotation_created') {
	        addAnnotationToSidebar(msg.data);
	    }
	    if (msg.type === 'model_status') {
	        updateModelBanner(msg.data);
	    }
	};

Connection Lifecycle:

 1. Client connects via HTTP upgrade
 2. Hub registers client
 3. Client starts read/write goroutines and optionally subscribes
 4. Hub broadcasts messages; scoped messages only reach subscribers
 5. Client disconnects (network error or explicit close)
 6. Hub unregisters client and cleans up

Thread Safety:

The package is fully thread-safe:
  - Hub uses mutex for client map access
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines
  - Subscription state is stored atomically per client

Configuration:

WebSocket settings:
  - writeWait: 10 seconds (time allowed to write message)
  - pongWait: 60 seconds (time allowed to read pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 64 KB (clients only send control messages)

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/eventprocessor: NATS bridge for multi-instance deployments
*/
package websocket
