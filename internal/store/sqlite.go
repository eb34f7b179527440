package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/council-ops/unit-roster/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	command    TEXT NOT NULL,
	sources    TEXT NOT NULL DEFAULT '[]',
	status     TEXT NOT NULL DEFAULT 'running',
	counts     TEXT NOT NULL DEFAULT '{}',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	unit_type     TEXT NOT NULL,
	unit_number   TEXT NOT NULL,
	locality      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	issues        TEXT NOT NULL DEFAULT '[]',
	authoritative TEXT,
	collected     TEXT,
	PRIMARY KEY (run_id, unit_type, unit_number, locality)
);

CREATE TABLE IF NOT EXISTS scores (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	unit_type   TEXT NOT NULL,
	unit_number TEXT NOT NULL,
	locality    TEXT NOT NULL,
	score       REAL NOT NULL,
	grade       TEXT NOT NULL,
	issues      TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, unit_type, unit_number, locality)
);

CREATE TABLE IF NOT EXISTS rejections (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	source       TEXT NOT NULL DEFAULT '',
	batch        TEXT NOT NULL DEFAULT '',
	unit_type    TEXT NOT NULL DEFAULT '',
	unit_number  TEXT NOT NULL DEFAULT '',
	locality     TEXT NOT NULL DEFAULT '',
	organization TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_outcomes_kind ON outcomes(run_id, kind);
CREATE INDEX IF NOT EXISTS idx_scores_grade ON scores(run_id, grade);
CREATE INDEX IF NOT EXISTS idx_rejections_run_id ON rejections(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, command string, sources []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	if sources == nil {
		sources = []string{}
	}

	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal sources")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, sources, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, command, string(sourcesJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Command:   command,
		Sources:   sources,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, counts model.RunCounts, runErr string) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal counts")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, counts = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), string(countsJSON), runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, command, sources, status, counts, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, command, sources, status, counts, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Command != "" {
		query += ` AND command = ?`
		args = append(args, filter.Command)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	return s.inTx(ctx, "outcomes",
		`INSERT OR REPLACE INTO outcomes (run_id, unit_type, unit_number, locality, kind, issues, authoritative, collected) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(outcomes), func(i int) ([]any, error) {
			return outcomeRow(runID, outcomes[i])
		})
}

func (s *SQLiteStore) SaveScores(ctx context.Context, runID string, scores []model.KeyScore) error {
	return s.inTx(ctx, "scores",
		`INSERT OR REPLACE INTO scores (run_id, unit_type, unit_number, locality, score, grade, issues) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(scores), func(i int) ([]any, error) {
			return scoreRow(runID, scores[i])
		})
}

func (s *SQLiteStore) SaveRejections(ctx context.Context, runID string, rejections []model.Rejection) error {
	return s.inTx(ctx, "rejections",
		`INSERT INTO rejections (run_id, source, batch, unit_type, unit_number, locality, organization, reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(rejections), func(i int) ([]any, error) {
			return rejectionRow(runID, rejections[i]), nil
		})
}

// inTx runs one prepared statement n times inside a transaction.
func (s *SQLiteStore) inTx(ctx context.Context, table, query string, n int, args func(i int) ([]any, error)) error {
	if n == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for i := range n {
		a, err := args(i)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", table)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit %s", table)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var sourcesJSON, countsJSON string

	err := row.Scan(&r.ID, &r.Command, &sourcesJSON, &r.Status, &countsJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := decodeRunJSON(&r, []byte(sourcesJSON), []byte(countsJSON)); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode run")
	}
	return &r, nil
}
