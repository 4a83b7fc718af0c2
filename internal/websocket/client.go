// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB; clients only send control and subscribe messages
)

// clientIDCounter generates unique, monotonically increasing IDs for
// clients so broadcasts iterate in a consistent order.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// vizID holds the visualization the client is watching, empty for
	// global-only subscribers. Stored atomically since readPump writes
	// it while the hub goroutine reads it.
	vizID atomic.Value
}

// NewClient creates a new Client with a unique ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
	c.vizID.Store("")
	return c
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 {
	return c.id
}

// Subscribe scopes the client to annotation events of one visualization.
func (c *Client) Subscribe(vizID string) {
	c.vizID.Store(vizID)
}

// subscribedTo reports whether the client should receive events scoped
// to the given visualization.
func (c *Client) subscribedTo(vizID string) bool {
	current, _ := c.vizID.Load().(string)
	return current == vizID
}

// subscribeData is the payload of a subscribe message from the client.
type subscribeData struct {
	VisualizationID string `json:"visualization_id"`
}

// rawMessage defers payload decoding until the message type is known.
type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg rawMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		metrics.WSMessagesReceived.Inc()

		switch msg.Type {
		case MessageTypePing:
			pong := Message{Type: MessageTypePong}
			select {
			case c.send <- pong:
			default:
			}

		case MessageTypeSubscribe:
			var sub subscribeData
			if err := json.Unmarshal(msg.Data, &sub); err != nil {
				metrics.WSErrors.WithLabelValues("bad_subscribe").Inc()
				logging.Warn().Err(err).Msg("malformed subscribe message")
				continue
			}
			c.Subscribe(sub.VisualizationID)
			logging.Debug().
				Uint64("client_id", c.id).
				Str("visualization_id", sub.VisualizationID).
				Msg("websocket client subscribed")
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				metrics.WSErrors.WithLabelValues("write_failed").Inc()
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
