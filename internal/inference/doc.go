// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package inference integrates the renderer sidecar, the external
// service that loads transformer models and produces attention
// visualization HTML. This application never runs a model itself.
//
// The package layers three concerns:
//
//   - Client: plain HTTP access to the sidecar's health/load/unload/
//     render endpoints.
//   - CircuitBreakerRenderer: wraps any Renderer so a dead sidecar
//     fails fast instead of stalling request handlers for the full
//     render timeout.
//   - Session: a mutex-guarded single-slot model session. The sidecar
//     holds one model at a time; Session memoizes which, reuses it for
//     repeat requests, and on a switch runs the Hugging Face hub size
//     admission check (weights summed from .safetensors, falling back
//     to .bin; gated repositories surface as an access error) before
//     unloading the old model and loading the new one.
//
// HubClient performs the size lookups against the hub's metadata API
// without downloading any weights.
package inference
