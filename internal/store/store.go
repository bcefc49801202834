// Package store persists benchmark run history to SQLite: one row per
// process lifetime (runs) and one row per observed DATA tick (samples).
//
// Grounded on the teacher's internal/database package — same pure-Go
// driver, same migrate-on-open pattern — repurposed from DNS
// configuration storage to benchmark run history.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite connection with thread-safe run/sample writes. A
// nil *Store is valid: every method is a no-op, so callers can run
// without persistence by simply not constructing one.
type Store struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Open opens or creates a SQLite database at path and runs pending
// migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	dbDriver, err := sqlite.WithInstance(s.conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection. Safe to call on a nil Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.conn.Close()
}

// RunSummary is a persisted run, as returned by RecentRuns.
type RunSummary struct {
	ID           int64
	Role         string
	Addr         string
	Threads      int
	StartedAt    time.Time
	EndedAt      *time.Time
	PacketsTotal uint64
	MaxLastSeq   uint64
}

// BeginRun inserts a new run row and returns its ID. No-op (returns 0,
// nil) on a nil Store.
func (s *Store) BeginRun(role, addr string, threads int) (int64, error) {
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.Exec(
		`INSERT INTO runs (role, addr, threads, started_at) VALUES (?, ?, ?, ?)`,
		role, addr, threads, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: failed to begin run: %w", err)
	}
	return res.LastInsertId()
}

// RecordSample inserts one sample row tied to runID. No-op on a nil
// Store or a zero runID (meaning persistence was never started).
func (s *Store) RecordSample(runID int64, recvPPS, sentPPS float64, packets, lastSeq uint64) error {
	if s == nil || runID == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`INSERT INTO samples (run_id, observed_at, recv_pps, sent_pps, packets, last_seq) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), recvPPS, sentPPS, packets, lastSeq,
	)
	if err != nil {
		return fmt.Errorf("store: failed to record sample: %w", err)
	}
	return nil
}

// EndRun stamps a run's end time and final counters.
func (s *Store) EndRun(runID int64, packetsTotal, lastSeq uint64) error {
	if s == nil || runID == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(
		`UPDATE runs SET ended_at = ?, packets_total = ?, max_last_seq = ? WHERE id = ?`,
		time.Now().UTC(), packetsTotal, lastSeq, runID,
	)
	if err != nil {
		return fmt.Errorf("store: failed to end run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first. Returns a nil
// slice and no error on a nil Store.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	if s == nil {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(
		`SELECT id, role, addr, threads, started_at, ended_at, packets_total, max_last_seq
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var ended sql.NullTime
		if err := rows.Scan(&r.ID, &r.Role, &r.Addr, &r.Threads, &r.StartedAt, &ended, &r.PacketsTotal, &r.MaxLastSeq); err != nil {
			return nil, fmt.Errorf("store: failed to scan run: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			r.EndedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
