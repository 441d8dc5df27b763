package db

import (
	"context"
	"errors"
	"time"

	"benchcore/internal/benchmark"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo summarizes one saved reporting session.
type SessionInfo struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Executable string    `json:"executable,omitempty"`
	NumCPUs    int       `json:"num_cpus"`
	MHz        float64   `json:"mhz"`
	RunCount   int       `json:"run_count"`
}

// HistoricRun is a stored run with the session it belongs to.
type HistoricRun struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	benchmark.Run
}

// History persists completed sessions so later sessions can be compared
// against them.
type History interface {
	Close() error
	// SaveSession stores runs under a new session and returns its id.
	SaveSession(ctx context.Context, info SessionInfo, runs []benchmark.Run) (string, error)
	// ListSessions returns the most recent sessions first.
	ListSessions(ctx context.Context, limit int) ([]SessionInfo, error)
	// LoadSession returns the summary of one session.
	LoadSession(ctx context.Context, sessionID string) (SessionInfo, error)
	// LoadRuns returns the runs of a session in their original order.
	LoadRuns(ctx context.Context, sessionID string) ([]benchmark.Run, error)
	// RunsForKey returns the most recent runs of one instantiation.
	RunsForKey(ctx context.Context, key benchmark.Key, threads, limit int) ([]HistoricRun, error)
}
