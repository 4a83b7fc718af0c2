// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package services

import (
	"context"
)

// RetentionCleaner matches *audit.Logger's cleanup entry point without
// importing the audit package.
type RetentionCleaner interface {
	StartCleanupRoutine(ctx context.Context)
}

// AuditRetentionService runs the audit trail's retention cleanup under
// supervision. The cleanup routine itself is a ticker goroutine bound
// to the service context, so a supervisor restart re-arms it.
type AuditRetentionService struct {
	cleaner RetentionCleaner
	name    string
}

// NewAuditRetentionService creates the retention service wrapper. A nil
// cleaner produces a service that idles until canceled, so wiring never
// needs a branch when auditing is disabled.
func NewAuditRetentionService(cleaner RetentionCleaner) *AuditRetentionService {
	return &AuditRetentionService{
		cleaner: cleaner,
		name:    "audit-retention",
	}
}

// Serve implements suture.Service.
func (a *AuditRetentionService) Serve(ctx context.Context) error {
	if a.cleaner != nil {
		a.cleaner.StartCleanupRoutine(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (a *AuditRetentionService) String() string {
	return a.name
}
