// Package history persists verification runs to a local SQLite database so
// corpus behavior can be compared across toolchain and fixture changes.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odavlstudio/odavl/internal/verify"

	_ "modernc.org/sqlite"
)

// DefaultLimit is how many runs ListRuns returns when the caller does not
// choose a limit.
const DefaultLimit = 20

// Store is a SQLite-backed archive of verification runs.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Run is one archived verification run.
type Run struct {
	ID       string        `json:"id"`
	Corpus   string        `json:"corpus"`
	Race     bool          `json:"race"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Fixtures int           `json:"fixtures"`
	Cases    int           `json:"cases"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Errored  int           `json:"errored"`
	Pass     bool          `json:"pass"`
}

// CaseRow is one archived case result.
type CaseRow struct {
	Fixture  string        `json:"fixture"`
	Case     string        `json:"case"`
	Status   verify.Status `json:"status"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration_ns"`
	Problems []string      `json:"problems,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}

// Open opens (creating if needed) the history database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db, path: path, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("history store ready", zap.String("path", path))
	return s, nil
}

// initialize applies pragmas and creates the schema.
func (s *Store) initialize() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		corpus TEXT NOT NULL,
		race INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		fixtures INTEGER NOT NULL,
		cases INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		errored INTEGER NOT NULL,
		pass INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_cases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		fixture TEXT NOT NULL,
		case_name TEXT NOT NULL,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		problems TEXT,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_run_cases_run ON run_cases(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun archives a finished report and returns the new run ID.
func (s *Store) RecordRun(rep *verify.RunReport) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	passInt := 0
	if rep.Pass() {
		passInt = 1
	}
	raceInt := 0
	if rep.Race {
		raceInt = 1
	}

	_, err = tx.Exec(`
		INSERT INTO runs
		(id, corpus, race, started_at, duration_ms, fixtures, cases,
		 passed, failed, skipped, errored, pass)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rep.Corpus, raceInt, rep.Started.Format(time.RFC3339Nano),
		rep.Duration.Milliseconds(), len(rep.Fixtures), rep.Cases(),
		rep.Passed, rep.Failed, rep.Skipped, rep.Errored, passInt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range rep.Fixtures {
		fr := &rep.Fixtures[i]
		for j := range fr.Cases {
			cr := &fr.Cases[j]
			problems, err := json.Marshal(cr.Problems)
			if err != nil {
				return "", fmt.Errorf("failed to encode problems: %w", err)
			}
			_, err = tx.Exec(`
				INSERT INTO run_cases
				(run_id, fixture, case_name, status, exit_code, duration_ms, problems, detail)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				id, fr.Fixture, cr.Name, string(cr.Status), cr.ExitCode,
				cr.Duration.Milliseconds(), string(problems), cr.Detail,
			)
			if err != nil {
				return "", fmt.Errorf("failed to insert case %s/%s: %w", fr.Fixture, cr.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.log.Info("run archived",
		zap.String("run", id),
		zap.String("corpus", rep.Corpus),
		zap.Int("cases", rep.Cases()))
	return id, nil
}

// ListRuns returns archived runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.Query(`
		SELECT id, corpus, race, started_at, duration_ms, fixtures, cases,
		       passed, failed, skipped, errored, pass
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var raceInt, passInt int
		var started string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Corpus, &raceInt, &started, &durationMS,
			&r.Fixtures, &r.Cases, &r.Passed, &r.Failed, &r.Skipped, &r.Errored, &passInt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Race = raceInt != 0
		r.Pass = passInt != 0
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Started, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp %q: %w", started, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Cases returns the archived case rows of a run in recorded order. An
// unknown run ID yields an empty result, not an error.
func (s *Store) Cases(runID string) ([]CaseRow, error) {
	rows, err := s.db.Query(`
		SELECT fixture, case_name, status, exit_code, duration_ms, problems, detail
		FROM run_cases
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []CaseRow
	for rows.Next() {
		var c CaseRow
		var status, problems string
		var durationMS int64
		if err := rows.Scan(&c.Fixture, &c.Case, &status, &c.ExitCode, &durationMS, &problems, &c.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		c.Status = verify.Status(status)
		c.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(problems), &c.Problems); err != nil {
			return nil, fmt.Errorf("failed to decode problems: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}
