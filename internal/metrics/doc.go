// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the application with the Prometheus client library,
exposing metrics for monitoring performance, errors, and system health.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Database query performance (DuckDB)
  - Attention rendering: renderer latency, token counts, truncation
  - Model session lifecycle: loads, unloads, rejected switches
  - Render cache hit/miss rates and size
  - Circuit breaker state transitions
  - WebSocket connection counts
  - NATS event processing

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8000/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Database Metrics:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type
  - duckdb_connection_pool_size: Connections in use (gauge)

Render Metrics:
  - render_duration_seconds: End-to-end render latency (histogram)
    Labels: view_type, cache_hit
  - renders_total: Render outcomes (counter)
    Labels: view_type, result (success, error, rejected)
  - rendered_tokens: Tokens per rendered input (histogram)
  - rendered_input_truncations_total: Inputs truncated to the token limit (counter)

Model Session Metrics:
  - model_loads_total: Model load attempts (counter); Labels: result
  - model_unloads_total: Model unloads (counter)
  - model_rejections_total: Refused model switches (counter)
    Labels: reason (too_large, gated, not_found, metadata_error)
  - model_load_duration_seconds: Load duration (histogram)
  - model_loaded: Whether a model is resident (gauge, 0 or 1)

Render Cache Metrics:
  - render_cache_hits_total / render_cache_misses_total (counters)
  - render_cache_keys, render_cache_bytes (gauges)
  - render_cache_evictions_total (counter)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name; Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Requests by result (counter)
    Labels: name, result
  - circuit_breaker_state_transitions_total (counter)
    Labels: name, from_state, to_state

WebSocket Metrics:
  - websocket_connections: Active connections (gauge)
  - websocket_messages_sent_total / websocket_messages_received_total (counters)
  - websocket_errors_total (counter); Labels: error_type

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/nilskoch/attentia/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    metrics.RecordAPIRequest("GET", "/api/v1/visualizations", "200", 23*time.Millisecond)
	    metrics.RecordDBQuery("select", "visualizations", 5*time.Millisecond, nil)
	}

Recording render metrics:

	start := time.Now()
	html, cacheHit, err := renderer.Render(ctx, req)
	metrics.RecordRender(req.ViewType, time.Since(start), cacheHit, err)
*/
package metrics
