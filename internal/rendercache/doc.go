// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package rendercache provides a persistent BadgerDB-backed cache for
// rendered attention visualizations.
//
// Rendering is the most expensive operation in the system: the sidecar
// loads a transformer model, runs a forward pass, and serializes the
// attention weights as a self-contained HTML document. Repeat
// submissions of the same (model, text, view) triple are common in
// collaborative sessions, so results are cached on disk keyed by a
// truncated SHA-256 of the triple, with a TTL matching the model
// refresh cadence.
//
// The cache degrades gracefully: if BadgerDB cannot be opened, Open
// logs a warning and returns a nil *Store, which all methods accept and
// treat as a permanent miss. Rendering keeps working, just slower.
//
// A GCService runs value-log garbage collection on an interval under
// the process supervisor, reclaiming space from expired entries.
package rendercache
