// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, request
ID tracking, and Prometheus metrics integration. These components work
alongside the authentication and authorization middleware to form the
complete request processing stack.

Key Components:

  - Compression: Gzip compression, important for rendered attention HTML
  - Request ID: UUID-based request tracking for log correlation
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

All components use the standard func(http.Handler) http.Handler shape and
chain with chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

Usage Example - Request ID:

	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Str("request_id", requestID).Msg("processing")
	}

The metrics middleware labels series by chi route pattern rather than raw
URL path, so parameterized routes do not explode series cardinality.
*/
package middleware
