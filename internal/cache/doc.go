// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

/*
Package cache provides thread-safe in-memory caching for API responses.

Rendered visualization HTML is NOT cached here; that lives in the persistent
BadgerDB store in internal/rendercache. This package fronts cheap-but-hot
JSON reads so repeated requests skip the database.

# Overview

The package provides:
  - Cache: TTL map cache with lazy plus periodic expiration
  - LFUCache: bounded cache with least-frequently-used eviction
  - Cacher: common interface with a NewCacher factory

# Use Cases

Primary use cases:
  - Annotation lists per visualization (invalidated on write)
  - Visualization list pages (short TTL)
  - Public share pages (LFU; popular links dominate traffic)
  - Hugging Face model size lookups (long TTL; sizes are static)
  - Consumed-event ID deduplication in the NATS router (LFU)

# Usage Example

API handler caching pattern:

	func (h *Handler) GetAnnotations(w http.ResponseWriter, r *http.Request) {
	    cacheKey := "annotations:" + vizID.String()

	    if cached, ok := h.cache.Get(cacheKey); ok {
	        h.writeJSON(w, http.StatusOK, cached)
	        return
	    }

	    annotations, err := h.db.GetAnnotationsForVisualization(r.Context(), vizID)
	    if err != nil {
	        h.writeError(w, http.StatusInternalServerError, "DATABASE_ERROR", err.Error())
	        return
	    }

	    h.cache.Set(cacheKey, annotations)
	    h.writeJSON(w, http.StatusOK, annotations)
	}

Write handlers invalidate affected keys:

	func (h *Handler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	    // ... insert ...
	    h.cache.Delete("annotations:" + vizID.String())
	}

# Cache Key Conventions

Use consistent key prefixes for organization:

	annotations:<viz-uuid>       // Annotation list for a visualization
	viz:detail:<viz-uuid>        // Visualization detail response
	share:<token>                // Public share page payload
	hfsize:<model-name>          // Hugging Face size lookup result
	stats:records                // Record count summary

# Invalidation

Two strategies:

 1. TTL-based expiration (automatic): entries expire after the configured
    TTL, checked lazily on Get and swept every 5 minutes.
 2. Manual invalidation (on writes): Delete(key) after a mutation,
    Clear() on cache admin clear or model switch.

# Thread Safety

All types are safe for concurrent use. Cache uses sync.RWMutex; LFUCache
takes the write lock on Get because retrieval mutates frequency lists.

# Limitations

The TTL cache intentionally has no size bound: the working set (a few
thousand JSON payloads) is small and entries expire quickly. Use LFUCache
when a bound matters.
*/
package cache
