// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// Prepared statement caching
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex

	// Connection recovery fields
	reconnectMu       sync.Mutex
	maxReconnectTries int
	reconnectDelay    time.Duration
}

// New creates a new database connection and initializes the schema
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for database file
	// This prevents "No such file or directory" errors when the data directory doesn't exist
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// Build connection string with tuning options
	// preserve_insertion_order=false reduces memory usage but may change result order
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network environments.
	// The schema uses only built-in types, so no extensions are required.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:              conn,
		cfg:               cfg,
		stmtCache:         make(map[string]*sql.Stmt),
		maxReconnectTries: 3,
		reconnectDelay:    2 * time.Second,
	}

	if err := db.configureConnectionPool(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.enableProfiling(); err != nil {
		logging.Warn().Err(err).Msg("Query profiling not enabled")
	}

	return db, nil
}

// Conn returns the underlying SQL database connection.
// This is used by packages that need direct database access, such as the
// audit package for storing audit events.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection and all prepared statements.
// It performs a CHECKPOINT before closing to flush the WAL to the main
// database file, which keeps the next startup from replaying a long WAL.
func (db *DB) Close() error {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			closeWithLog(stmt, nil, "prepared statement")
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()

	if db.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			// Best effort checkpoint; the WAL replays on next open if this fails
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()

		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates tables and runs migrations
func (db *DB) initialize() error {
	// Create tables
	if err := db.createTables(); err != nil {
		return err
	}

	// Run versioned migrations
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	// Create indexes
	if err := db.createIndexes(); err != nil {
		return err
	}

	// Force a checkpoint after schema initialization to flush the WAL.
	// WAL replay of CREATE TABLE statements with CURRENT_TIMESTAMP defaults
	// can fail on some DuckDB versions, so flush eagerly.
	checkpointCtx, checkpointCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer checkpointCancel()
	if err := db.Checkpoint(checkpointCtx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() error {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)

	return nil
}

// clearStatementCache closes and discards all cached prepared statements.
// Called before reconnecting because statements bind to the dead connection.
func (db *DB) clearStatementCache() {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			closeQuietly(stmt)
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()
}

// reconnect attempts to re-establish the database connection with exponential backoff
//
//nolint:unused // Infrastructure function for connection recovery
func (db *DB) reconnect() error {
	db.reconnectMu.Lock()
	defer db.reconnectMu.Unlock()

	// Check if connection is actually dead before reconnecting
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err == nil {
		return nil // Connection is alive
	}

	db.clearStatementCache()

	if db.conn != nil {
		closeWithLog(db.conn, nil, "database connection")
	}

	var lastErr error
	for attempt := 0; attempt < db.maxReconnectTries; attempt++ {
		if attempt > 0 {
			delay := db.reconnectDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
				// Continue with retry
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := db.attemptReconnect(); err != nil {
			lastErr = fmt.Errorf("reconnect attempt %d failed: %w", attempt+1, err)
			continue
		}

		return nil
	}

	return fmt.Errorf("failed to reconnect after %d attempts: %w", db.maxReconnectTries, lastErr)
}

// attemptReconnect tries to establish a new database connection
//
//nolint:unused // Called by reconnect() for connection recovery
func (db *DB) attemptReconnect() error {
	numThreads := db.cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	preserveOrder := "true"
	if !db.cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s",
		db.cfg.Path, numThreads, db.cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := conn.PingContext(pingCtx); err != nil {
		pingCancel()
		closeQuietly(conn)
		return fmt.Errorf("failed to ping: %w", err)
	}
	pingCancel()

	db.conn = conn

	if err := db.configureConnectionPool(); err != nil {
		return fmt.Errorf("failed to configure pool after reconnect: %w", err)
	}

	logging.Info().Msg("Database connection re-established")
	return nil
}

// isConnectionError reports whether an error indicates a dead connection
// rather than a query failure.
//
//nolint:unused // Used with reconnect() for connection recovery
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, marker := range []string{
		"connection refused",
		"broken pipe",
		"bad connection",
		"database is closed",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
