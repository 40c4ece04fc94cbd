// Package db opens the SQLite database that holds power transition history.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database, creating its directory if needed, and
// initializes the schema.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// initSchema creates all required tables
func initSchema(db *sql.DB) error {
	// Power events - append-only, several rows per transition
	// (requested, attempt_failed..., converged or preempted)
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS power_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transition_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			power INTEGER NOT NULL,
			attempt INTEGER NOT NULL DEFAULT 0,
			timestamp INTEGER NOT NULL,
			payload TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_power_events_ts ON power_events(timestamp);
		CREATE INDEX IF NOT EXISTS idx_power_events_transition ON power_events(transition_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create power_events table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
