// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build nats

package main

import (
	"github.com/nilskoch/attentia/internal/logging"
	"github.com/nilskoch/attentia/internal/supervisor"
	"github.com/nilskoch/attentia/internal/supervisor/services"
)

// AddNATSToSupervisor wraps the NATS components in a supervised service
// and adds it to the collaboration layer. The supervisor restarts the
// pipeline on failure using the tree's backoff policy.
//
// A nil components value (NATS disabled) is tolerated and skipped.
func AddNATSToSupervisor(tree *supervisor.Tree, components *NATSComponents) {
	if components == nil {
		return
	}
	tree.AddCollaborationService(services.NewNATSComponentsService(components))
	logging.Info().Msg("NATS components added to supervisor tree")
}
