package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements History using SQLite
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore creates a new SQLite store and applies migrations. The parent
// directory of path is created when missing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{sqlStore: &sqlStore{db: db, now: time.Now}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			executable TEXT NOT NULL DEFAULT '',
			num_cpus INTEGER NOT NULL,
			mhz REAL NOT NULL,
			run_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			name TEXT NOT NULL,
			args TEXT NOT NULL,
			key_hash INTEGER NOT NULL,
			threads INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			real_ns INTEGER NOT NULL,
			cpu_ns INTEGER NOT NULL,
			time_unit TEXT NOT NULL,
			items INTEGER NOT NULL DEFAULT 0,
			bytes INTEGER NOT NULL DEFAULT 0,
			baseline TEXT,
			label TEXT,
			error_occurred BOOLEAN NOT NULL DEFAULT 0,
			error_message TEXT,
			PRIMARY KEY (session_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_key ON runs(key_hash, threads);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
