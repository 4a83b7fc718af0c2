// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build !nats

package main

import (
	"github.com/nilskoch/attentia/internal/supervisor"
)

// AddNATSToSupervisor is a no-op for builds without NATS support.
func AddNATSToSupervisor(_ *supervisor.Tree, _ *NATSComponents) {}
