package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                TEXT PRIMARY KEY,
			started_at        INTEGER NOT NULL,
			finished_at       INTEGER NOT NULL,
			provider          TEXT,
			symbol            TEXT,
			range_start       TEXT,
			range_end         TEXT,
			status            TEXT NOT NULL,
			fail_kind         TEXT,
			error             TEXT,
			row_count         INTEGER,
			first_date        TEXT,
			last_date         TEXT,
			total_return      REAL,
			annualized_return REAL,
			csv_path          TEXT,
			xlsx_path         TEXT,
			csv_bytes         INTEGER,
			xlsx_bytes        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO runs
		(id, started_at, finished_at, provider, symbol, range_start, range_end,
		 status, fail_kind, error, row_count, first_date, last_date,
		 total_return, annualized_return, csv_path, xlsx_path, csv_bytes, xlsx_bytes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), finished.Unix(), run.Provider, run.Symbol,
		run.RangeStart, run.RangeEnd, run.Status, run.FailKind, run.Error,
		run.Rows, run.FirstDate, run.LastDate,
		run.TotalReturn, run.AnnualizedReturn,
		run.CSVPath, run.XLSXPath, run.CSVBytes, run.XLSXBytes,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT
		id, started_at, finished_at, provider, symbol, range_start, range_end,
		status, fail_kind, error, row_count, first_date, last_date,
		total_return, annualized_return, csv_path, xlsx_path, csv_bytes, xlsx_bytes
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run             RunRecord
			started, finish int64
		)
		if err := rows.Scan(
			&run.ID, &started, &finish, &run.Provider, &run.Symbol, &run.RangeStart, &run.RangeEnd,
			&run.Status, &run.FailKind, &run.Error, &run.Rows, &run.FirstDate, &run.LastDate,
			&run.TotalReturn, &run.AnnualizedReturn, &run.CSVPath, &run.XLSXPath, &run.CSVBytes, &run.XLSXBytes,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finish, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
