// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package config loads and validates the application configuration.
//
// Configuration is layered with Koanf v2: built-in defaults first, then an
// optional YAML config file, then environment variables. Environment
// variables always win. The config file is searched in the paths listed by
// DefaultConfigPaths, or taken from CONFIG_PATH when set.
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// All settings are validated on load. A misconfigured deployment fails fast
// at startup rather than at first use.
package config
