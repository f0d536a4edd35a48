package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/llmstack/llmstack/internal/report"
	"github.com/llmstack/llmstack/internal/supervisor"
)

// DB implements report.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// Path is a filesystem path to the database file. Use ":memory:" for in-memory.
type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS launch_report(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			service TEXT NOT NULL,
			outcome TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_launch_report_run ON launch_report(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_launch_report_created ON launch_report(created_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) SaveReport(ctx context.Context, runID string, rep supervisor.Report) error {
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, st := range rep {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO launch_report(run_id, service, outcome, attempts, elapsed_ms, created_at)
			VALUES(?, ?, ?, ?, ?, ?);`,
			runID, st.Name, st.Outcome.String(), st.Attempts, st.Elapsed.Milliseconds(), now)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *DB) Recent(ctx context.Context, limit int) ([]report.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	// Newest run first, but keep the per-run insertion (registration) order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.service, r.outcome, r.attempts, r.elapsed_ms, r.created_at
		FROM launch_report r
		JOIN (
			SELECT run_id, MAX(id) AS last_id
			FROM launch_report
			GROUP BY run_id
		) g ON g.run_id = r.run_id
		ORDER BY g.last_id DESC, r.id ASC
		LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []report.Record
	for rows.Next() {
		var r report.Record
		var elapsedMS int64
		if err := rows.Scan(&r.RunID, &r.Service, &r.Outcome, &r.Attempts, &elapsedMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *DB) Close() error { return s.db.Close() }
