package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements History using PostgreSQL
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := newPostgresStore(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func newPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{sqlStore: &sqlStore{db: db, numbered: true, now: time.Now}}
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			executable TEXT NOT NULL DEFAULT '',
			num_cpus INTEGER NOT NULL,
			mhz DOUBLE PRECISION NOT NULL,
			run_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			name TEXT NOT NULL,
			args TEXT NOT NULL,
			key_hash BIGINT NOT NULL,
			threads INTEGER NOT NULL,
			iterations BIGINT NOT NULL,
			real_ns BIGINT NOT NULL,
			cpu_ns BIGINT NOT NULL,
			time_unit TEXT NOT NULL,
			items BIGINT NOT NULL DEFAULT 0,
			bytes BIGINT NOT NULL DEFAULT 0,
			baseline TEXT,
			label TEXT,
			error_occurred BOOLEAN NOT NULL DEFAULT FALSE,
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
