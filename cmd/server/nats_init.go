// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/nilskoch/attentia/internal/api"
	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/eventprocessor"
	"github.com/nilskoch/attentia/internal/logging"
	ws "github.com/nilskoch/attentia/internal/websocket"
)

// NATSComponents holds all NATS-related components for multi-instance
// collaboration event fan-out. Lifecycle is managed by the supervisor
// tree via the services.NATSComponentsRunner interface.
type NATSComponents struct {
	embedded   *eventprocessor.EmbeddedServer
	conn       *natsgo.Conn
	publisher  *eventprocessor.Publisher
	subscriber *eventprocessor.Subscriber
	router     *eventprocessor.Router
	wsHandler  *eventprocessor.WebSocketHandler
	health     *eventprocessor.HealthChecker
	originID   string

	mu               sync.Mutex
	running          bool
	shutdownComplete bool
}

// InitNATS assembles the collaboration event pipeline:
//
//	annotation/viz handlers -> Publisher -> JetStream "COLLAB_EVENTS"
//	JetStream -> Subscriber -> Router -> WebSocketHandler -> local hub
//
// Each instance publishes events stamped with its own origin ID and
// filters them out on consumption, so local clients never see the same
// broadcast twice while remote instances receive everything.
//
// Returns (nil, nil) when NATS is disabled - callers and the supervisor
// wrapper both tolerate a nil components value.
func InitNATS(cfg *config.Config, wsHub *ws.Hub, handler *api.Handler) (*NATSComponents, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS event streaming disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	wmLogger := watermill.NewStdLogger(false, false)
	components := &NATSComponents{}

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := eventprocessor.DefaultServerConfig()
		if cfg.NATS.StoreDir != "" {
			serverCfg.StoreDir = cfg.NATS.StoreDir
		}
		if cfg.NATS.MaxMemory > 0 {
			serverCfg.JetStreamMaxMem = cfg.NATS.MaxMemory
		}
		if cfg.NATS.MaxStore > 0 {
			serverCfg.JetStreamMaxStore = cfg.NATS.MaxStore
		}

		embedded, err := eventprocessor.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		components.embedded = embedded
		natsURL = embedded.ClientURL()
		logging.Info().
			Str("url", natsURL).
			Str("store_dir", serverCfg.StoreDir).
			Msg("Embedded NATS server started with JetStream")
	} else {
		logging.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	// Dedicated connection for stream management; publisher and
	// subscriber maintain their own connections via Watermill.
	conn, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("connect to NATS at %s: %w", natsURL, err)
	}
	components.conn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := eventprocessor.DefaultStreamConfig()
	initializer, err := eventprocessor.NewStreamInitializer(js, &streamCfg)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("create stream initializer: %w", err)
	}

	ensureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := initializer.EnsureStream(ensureCtx); err != nil {
		components.cleanup()
		return nil, fmt.Errorf("ensure stream %s: %w", streamCfg.Name, err)
	}
	logging.Info().Str("stream", streamCfg.Name).Msg("JetStream stream ready")

	publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(natsURL), wmLogger)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(
		eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")))

	// Origin filtering: local hub broadcasts already reached this
	// instance's clients, so events published here must not be
	// re-delivered when they come back around through JetStream.
	originID := uuid.NewString()
	publisher.SetOrigin(originID)
	components.publisher = publisher
	components.originID = originID

	handler.SetCollabPublisher(publisher)

	wsHandler, err := eventprocessor.NewWebSocketHandler(wsHub, wmLogger)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("create websocket handler: %w", err)
	}
	wsHandler.SetOriginFilter(originID)
	components.wsHandler = wsHandler

	subCfg := eventprocessor.DefaultSubscriberConfig(natsURL)
	if cfg.NATS.DurableName != "" {
		subCfg.DurableName = cfg.NATS.DurableName
	}
	if cfg.NATS.QueueGroup != "" {
		subCfg.QueueGroup = cfg.NATS.QueueGroup
	}
	if cfg.NATS.CloseTimeout > 0 {
		subCfg.CloseTimeout = cfg.NATS.CloseTimeout
	}
	subCfg.StreamName = streamCfg.Name

	subscriber, err := eventprocessor.NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	components.subscriber = subscriber

	routerCfg := eventprocessor.DefaultRouterConfig()
	router, err := eventprocessor.NewRouter(&routerCfg, publisher.WatermillPublisher(), wmLogger)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("create router: %w", err)
	}
	components.router = router

	router.AddConsumerHandler(
		"websocket-broadcaster",
		eventprocessor.TopicPrefix+".>",
		subscriber,
		wsHandler.Handle,
	)

	health := eventprocessor.NewHealthChecker(eventprocessor.DefaultHealthConfig())
	health.RegisterComponent("router", router)
	components.health = health

	logging.Info().
		Str("origin_id", originID).
		Str("durable", subCfg.DurableName).
		Str("queue_group", subCfg.QueueGroup).
		Msg("NATS collaboration event pipeline initialized")

	return components, nil
}

// Start runs the Watermill router and begins consuming collaboration
// events. Blocks until the router is running or the context is canceled.
// Implements services.NATSComponentsRunner.
func (n *NATSComponents) Start(ctx context.Context) error {
	if n == nil {
		return nil
	}

	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	running := n.router.RunAsync(ctx)

	select {
	case <-running:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("router failed to start within timeout")
	}

	go n.health.StartPeriodicChecks(ctx)

	n.mu.Lock()
	n.running = true
	n.mu.Unlock()

	logging.Info().Msg("NATS event router running")
	return nil
}

// Shutdown stops all components in reverse dependency order:
// router first (stops consuming), then subscriber, publisher,
// connection, and finally the embedded server.
// Implements services.NATSComponentsRunner. Safe to call repeatedly.
func (n *NATSComponents) Shutdown(ctx context.Context) {
	if n == nil {
		return
	}

	n.mu.Lock()
	if n.shutdownComplete {
		n.mu.Unlock()
		return
	}
	n.shutdownComplete = true
	n.running = false
	n.mu.Unlock()

	logging.Info().Msg("Shutting down NATS components...")

	if n.router != nil {
		if err := n.router.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing event router")
		}
	}
	if n.subscriber != nil {
		if err := n.subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing subscriber")
		}
	}
	if n.publisher != nil {
		if err := n.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing publisher")
		}
	}
	if n.conn != nil {
		n.conn.Close()
	}
	if n.embedded != nil {
		if err := n.embedded.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}

	logging.Info().Msg("NATS components shut down")
}

// IsRunning reports whether the event router is consuming messages.
// Implements services.NATSComponentsRunner.
func (n *NATSComponents) IsRunning() bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.running && n.router != nil && n.router.IsRunning()
}

// cleanup releases partially initialized components after an init failure.
func (n *NATSComponents) cleanup() {
	if n.subscriber != nil {
		_ = n.subscriber.Close()
	}
	if n.publisher != nil {
		_ = n.publisher.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
	if n.embedded != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = n.embedded.Shutdown(ctx)
	}
}
