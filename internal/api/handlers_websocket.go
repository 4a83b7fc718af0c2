// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"net/http"

	"github.com/nilskoch/attentia/internal/logging"
	ws "github.com/nilskoch/attentia/internal/websocket"
)

// HandleWebSocket upgrades the connection and registers the client with
// the hub for annotation and model-status broadcasts.
//
//	@Summary	Live collaboration socket
//	@Tags		operations
//	@Success	101
//	@Router		/ws [get]
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		http.Error(w, "websocket hub unavailable", http.StatusServiceUnavailable)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
