// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Attention rendering (model session, renderer calls, circuit breaker)
// - Render cache efficiency
// - WebSocket connections
// - NATS event processing

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Render Metrics
	// Rendering covers the full visualize pipeline: model session
	// handling, the renderer call, and persistence.
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "render_duration_seconds",
			Help:    "Duration of attention render operations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"view_type", "cache_hit"},
	)

	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "renders_total",
			Help: "Total number of render requests",
		},
		[]string{"view_type", "result"}, // result: "success", "error", "rejected"
	)

	RenderedTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rendered_tokens",
			Help:    "Number of tokens in rendered inputs",
			Buckets: []float64{8, 16, 32, 64, 128, 256, 512},
		},
	)

	RenderedInputTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rendered_input_truncations_total",
			Help: "Total number of inputs truncated to the token limit",
		},
	)

	// Model Session Metrics
	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_loads_total",
			Help: "Total number of model loads",
		},
		[]string{"result"}, // "success", "error"
	)

	ModelUnloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "model_unloads_total",
			Help: "Total number of model unloads",
		},
	)

	ModelRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_rejections_total",
			Help: "Total number of rejected model switch requests",
		},
		[]string{"reason"}, // "too_large", "gated", "not_found", "metadata_error"
	)

	ModelLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_load_duration_seconds",
			Help:    "Duration of model loads in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether a model is currently loaded (0 or 1)",
		},
	)

	// Render Cache Metrics
	RenderCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_cache_hits_total",
			Help: "Total number of render cache hits",
		},
	)

	RenderCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_cache_misses_total",
			Help: "Total number of render cache misses",
		},
	)

	RenderCacheKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "render_cache_keys",
			Help: "Current number of cached renders",
		},
	)

	RenderCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "render_cache_evictions_total",
			Help: "Total number of render cache evictions (TTL expiry)",
		},
	)

	RenderCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "render_cache_bytes",
			Help: "Approximate size of the render cache in bytes",
		},
	)

	// Sharing Metrics
	ShareTokensCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "share_tokens_created_total",
			Help: "Total number of share tokens created",
		},
	)

	ShareTokenAccess = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "share_token_access_total",
			Help: "Total number of visualization accesses via share tokens",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Event Processing Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_parse_failed_total",
			Help: "Total number of messages that failed to parse",
		},
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of NATS message processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRender records a completed render with its outcome.
func RecordRender(viewType string, duration time.Duration, cacheHit bool, err error) {
	hit := "false"
	if cacheHit {
		hit = "true"
	}
	RenderDuration.WithLabelValues(viewType, hit).Observe(duration.Seconds())

	result := "success"
	if err != nil {
		result = "error"
	}
	RendersTotal.WithLabelValues(viewType, result).Inc()
}

// RecordRenderRejected records a render refused before reaching the renderer,
// e.g. because the requested model was rejected.
func RecordRenderRejected(viewType string) {
	RendersTotal.WithLabelValues(viewType, "rejected").Inc()
}

// RecordRenderedInput records token count and truncation for a rendered input.
func RecordRenderedInput(tokenCount int, truncated bool) {
	RenderedTokens.Observe(float64(tokenCount))
	if truncated {
		RenderedInputTruncations.Inc()
	}
}

// RecordModelLoad records a model load attempt.
func RecordModelLoad(duration time.Duration, err error) {
	if err != nil {
		ModelLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	ModelLoadsTotal.WithLabelValues("success").Inc()
	ModelLoadDuration.Observe(duration.Seconds())
	ModelLoaded.Set(1)
}

// RecordModelUnload records a model being unloaded.
func RecordModelUnload() {
	ModelUnloadsTotal.Inc()
	ModelLoaded.Set(0)
}

// RecordModelRejection records a refused model switch.
func RecordModelRejection(reason string) {
	ModelRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordRenderCacheHit records a render cache hit.
func RecordRenderCacheHit() {
	RenderCacheHits.Inc()
}

// RecordRenderCacheMiss records a render cache miss.
func RecordRenderCacheMiss() {
	RenderCacheMisses.Inc()
}

// UpdateRenderCacheGauges updates render cache size gauges.
func UpdateRenderCacheGauges(keys int64, bytes int64) {
	RenderCacheKeys.Set(float64(keys))
	RenderCacheBytes.Set(float64(bytes))
}

// RecordShareTokenCreated records creation of a share token.
func RecordShareTokenCreated() {
	ShareTokensCreated.Inc()
}

// RecordShareAccess records access via a share token.
func RecordShareAccess() {
	ShareTokenAccess.Inc()
}

// RecordNATSPublish records a message being published to NATS
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}

// RecordNATSProcessingDuration records the duration of message processing
func RecordNATSProcessingDuration(duration time.Duration) {
	NATSProcessingDuration.Observe(duration.Seconds())
}
