// Package db provides the embedded SQLite persistence gateway for the
// taskdeck cache.
//
// The database runs fully embedded (ncruces/go-sqlite3, wasm build) with
// WAL mode so a concurrent invocation can read while another writes.
// Cross-process coordination beyond SQLite's own locking is out of scope:
// each CLI run is a short-lived process and the cache is an optimization,
// not a source of truth.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection with cache-specific functionality.
type DB struct {
	conn *sql.DB
	path string
}

var (
	mu      sync.Mutex
	current *DB
)

// Open returns the process-wide connection for the database at path,
// creating the file (and parent directories) on first use.
//
// The connection is a singleton keyed by the resolved path: repeated
// calls with the same path return the same handle, and a call with a
// different path closes the previous handle before opening the new one.
// Short-lived CLI processes never need more than one cache database, but
// tests switch paths freely.
func Open(path string) (*DB, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		if current.path == abs {
			return current, nil
		}
		_ = current.close()
		current = nil
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	d := &DB{conn: conn, path: abs}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = d.close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	current = d
	return d, nil
}

// Path returns the resolved database file path.
func (d *DB) Path() string {
	return d.path
}

// Execute runs a statement that returns no rows.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.conn.ExecContext(ctx, query, args...)
}

// Query runs a statement returning multiple rows. The caller must close
// the returned rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.conn.QueryContext(ctx, query, args...)
}

// First runs a statement expected to return at most one row.
func (d *DB) First(ctx context.Context, query string, args ...any) *sql.Row {
	return d.conn.QueryRowContext(ctx, query, args...)
}

// Begin starts a transaction.
func (d *DB) Begin(ctx context.Context) (*sql.Tx, error) {
	return d.conn.BeginTx(ctx, nil)
}

// close checkpoints the WAL and releases the connection. Internal: the
// singleton is closed only when Open switches paths or the process exits.
func (d *DB) close() error {
	if d.conn == nil {
		return nil
	}
	if _, err := d.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	d.conn = nil
	return nil
}
