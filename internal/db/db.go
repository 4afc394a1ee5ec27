// Package db provides SQLite database access for the result ledger.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Config holds database connection settings.
type Config struct {
	// Path is the SQLite file path.
	Path string

	// BusyTimeoutMs is how long SQLite waits on a locked database.
	BusyTimeoutMs int
}

// DB wraps a SQLite connection pool.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database file at cfg.Path.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	busyTimeout := cfg.BusyTimeoutMs
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", cfg.Path, busyTimeout)
	return open(dsn, cfg.Path)
}

// OpenInMemory opens a private in-memory database, used by tests.
func OpenInMemory() (*DB, error) {
	return open(":memory:?_pragma=foreign_keys(ON)", ":memory:")
}

func open(dsn, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer per invocation; a single connection also keeps an
	// in-memory database alive and shared.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{DB: conn, path: path}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS log_runs (
		id TEXT PRIMARY KEY,
		assignment TEXT NOT NULL,
		submission_id TEXT NOT NULL,
		logged_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_rows (
		sheet TEXT NOT NULL,
		email TEXT NOT NULL,
		submission_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sid TEXT NOT NULL,
		submission_time TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (sheet, email)
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_columns (
		sheet TEXT NOT NULL,
		report TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (sheet, report)
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_cells (
		sheet TEXT NOT NULL,
		email TEXT NOT NULL,
		report TEXT NOT NULL,
		passed INTEGER NOT NULL,
		PRIMARY KEY (sheet, email, report),
		FOREIGN KEY (sheet, email) REFERENCES sheet_rows(sheet, email) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS sheet_rows_submission_idx ON sheet_rows(submission_id)`,
}

// Migrate creates the ledger schema if it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
