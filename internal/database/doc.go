// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package database provides data access for the Attentia application.
//
// # Overview
//
// This package serves as the data layer between the application and DuckDB,
// providing type-safe query execution, transaction management, and the
// persistence model for users, visualizations, annotations, and audit events.
//
// # Architecture
//
// The package is organized into domain-specific files:
//
//   - database.go: Core database lifecycle (connection, initialization, cleanup)
//   - database_schema.go: Table creation and index management
//   - migrations.go: Versioned schema migrations
//   - database_utils.go: Profiling, context management, checkpointing
//   - users.go: User account CRUD with duplicate detection
//   - visualizations.go: Visualization CRUD, cursor pagination, share tokens
//   - annotations.go: Annotation CRUD with author joins
//   - export.go: Export bundle assembly for download endpoints
//   - errors.go: Sentinel errors and close helpers
//
// # Database Technology
//
// The package uses DuckDB as its embedded database:
//   - Single-file storage with WAL, no separate server process
//   - Native UUID and TIMESTAMP types
//   - Tuple comparisons for efficient cursor pagination
//   - CGO-based driver (github.com/duckdb/duckdb-go/v2)
//
// Extension auto-install and auto-load are disabled in the connection string;
// the schema uses only built-in types, so startup never touches the network.
//
// # Concurrency
//
// All exported methods are safe for concurrent use. The package handles:
//   - Connection pooling via the database/sql pool
//   - Reconnection with exponential backoff on connection failures
//   - Context-based cancellation with a default query timeout
//
// # Error Handling
//
// Errors are wrapped with context using fmt.Errorf with %w. Lookups that
// match no rows return ErrNotFound; duplicate signups return
// ErrDuplicateUsername or ErrDuplicateEmail so handlers can produce
// field-specific responses. All other database errors are propagated.
//
// # Usage
//
//	db, err := database.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	viz := &models.Visualization{...}
//	if err := db.InsertVisualization(ctx, viz); err != nil {
//	    log.Printf("Insert failed: %v", err)
//	}
package database
