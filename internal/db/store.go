package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"benchcore/internal/benchmark"
)

// sqlStore implements History over database/sql. Queries are written with
// '?' placeholders and rebound for drivers that number them.
type sqlStore struct {
	db       *sql.DB
	numbered bool
	now      func() time.Time
}

func (s *sqlStore) q(query string) string {
	if !s.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// keyHash indexes runs by instantiation key. The value is stored as a signed
// 64-bit column.
func keyHash(k benchmark.Key) int64 {
	return int64(xxhash.Sum64String(k.String()))
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) SaveSession(ctx context.Context, info SessionInfo, runs []benchmark.Run) (string, error) {
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.q(`INSERT INTO sessions (id, created_at, executable, num_cpus, mhz, run_count) VALUES (?, ?, ?, ?, ?, ?)`),
		info.ID, info.CreatedAt.UTC(), info.Executable, info.NumCPUs, info.MHz, len(runs))
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}

	for _, r := range runs {
		args, err := json.Marshal(r.Key.Args)
		if err != nil {
			return "", err
		}
		var baseline sql.NullString
		if r.Baseline != nil {
			b, err := json.Marshal(r.Baseline)
			if err != nil {
				return "", err
			}
			baseline = sql.NullString{String: string(b), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			s.q(`INSERT INTO runs (session_id, idx, name, args, key_hash, threads, iterations, real_ns, cpu_ns, time_unit, items, bytes, baseline, label, error_occurred, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			info.ID, r.Index, r.Key.Name, string(args), keyHash(r.Key), r.Threads, r.Iterations,
			r.RealAccumulatedTime.Nanoseconds(), r.CPUAccumulatedTime.Nanoseconds(), r.TimeUnit.String(),
			r.ItemsProcessed, r.BytesProcessed, baseline, r.ReportLabel, r.ErrorOccurred, r.ErrorMessage)
		if err != nil {
			return "", fmt.Errorf("insert run %s: %w", r.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return info.ID, nil
}

func (s *sqlStore) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, created_at, executable, num_cpus, mhz, run_count FROM sessions ORDER BY created_at DESC LIMIT ?`),
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SessionInfo
	for rows.Next() {
		var si SessionInfo
		if err := rows.Scan(&si.ID, &si.CreatedAt, &si.Executable, &si.NumCPUs, &si.MHz, &si.RunCount); err != nil {
			return nil, err
		}
		results = append(results, si)
	}
	return results, rows.Err()
}

func (s *sqlStore) LoadSession(ctx context.Context, sessionID string) (SessionInfo, error) {
	var si SessionInfo
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, created_at, executable, num_cpus, mhz, run_count FROM sessions WHERE id = ?`),
		sessionID).Scan(&si.ID, &si.CreatedAt, &si.Executable, &si.NumCPUs, &si.MHz, &si.RunCount)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return si, err
}

const runColumns = `r.idx, r.name, r.args, r.threads, r.iterations, r.real_ns, r.cpu_ns, r.time_unit, r.items, r.bytes, r.baseline, r.label, r.error_occurred, r.error_message`

func scanRun(sc interface{ Scan(...any) error }, extra ...any) (benchmark.Run, error) {
	var (
		r          benchmark.Run
		args       string
		unit       string
		realNs     int64
		cpuNs      int64
		baseline   sql.NullString
		errMessage sql.NullString
		label      sql.NullString
	)
	dest := append([]any{&r.Index, &r.Key.Name, &args, &r.Threads, &r.Iterations, &realNs, &cpuNs, &unit,
		&r.ItemsProcessed, &r.BytesProcessed, &baseline, &label, &r.ErrorOccurred, &errMessage}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return r, err
	}
	if args != "" && args != "null" {
		if err := json.Unmarshal([]byte(args), &r.Key.Args); err != nil {
			return r, fmt.Errorf("decode args of %s: %w", r.Key.Name, err)
		}
	}
	if baseline.Valid {
		var k benchmark.Key
		if err := json.Unmarshal([]byte(baseline.String), &k); err != nil {
			return r, fmt.Errorf("decode baseline of %s: %w", r.Key.Name, err)
		}
		r.Baseline = &k
	}
	u, err := benchmark.ParseTimeUnit(unit)
	if err != nil {
		return r, err
	}
	r.TimeUnit = u
	r.RealAccumulatedTime = time.Duration(realNs)
	r.CPUAccumulatedTime = time.Duration(cpuNs)
	r.ReportLabel = label.String
	r.ErrorMessage = errMessage.String
	return r, nil
}

func (s *sqlStore) LoadRuns(ctx context.Context, sessionID string) ([]benchmark.Run, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM sessions WHERE id = ?`), sessionID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+runColumns+` FROM runs r WHERE r.session_id = ? ORDER BY r.idx`),
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []benchmark.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *sqlStore) RunsForKey(ctx context.Context, key benchmark.Key, threads, limit int) ([]HistoricRun, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+runColumns+`, s.id, s.created_at FROM runs r JOIN sessions s ON s.id = r.session_id
		WHERE r.key_hash = ? AND r.threads = ? ORDER BY s.created_at DESC LIMIT ?`),
		keyHash(key), threads, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []HistoricRun
	for rows.Next() {
		var hr HistoricRun
		r, err := scanRun(rows, &hr.SessionID, &hr.CreatedAt)
		if err != nil {
			return nil, err
		}
		// Hash collisions are resolved against the full key.
		if !r.Key.Equal(key) {
			continue
		}
		hr.Run = r
		results = append(results, hr)
	}
	return results, rows.Err()
}
