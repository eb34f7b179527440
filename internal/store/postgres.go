package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/council-ops/unit-roster/internal/db"
	"github.com/council-ops/unit-roster/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	command    TEXT NOT NULL,
	sources    JSONB NOT NULL DEFAULT '[]',
	status     TEXT NOT NULL DEFAULT 'running',
	counts     JSONB NOT NULL DEFAULT '{}',
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	unit_type     TEXT NOT NULL,
	unit_number   TEXT NOT NULL,
	locality      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	issues        JSONB NOT NULL DEFAULT '[]',
	authoritative JSONB,
	collected     JSONB,
	PRIMARY KEY (run_id, unit_type, unit_number, locality)
);

CREATE TABLE IF NOT EXISTS scores (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	unit_type   TEXT NOT NULL,
	unit_number TEXT NOT NULL,
	locality    TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	grade       TEXT NOT NULL,
	issues      JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, unit_type, unit_number, locality)
);

CREATE TABLE IF NOT EXISTS rejections (
	id           BIGSERIAL PRIMARY KEY,
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
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_outcomes_kind ON outcomes(run_id, kind);
CREATE INDEX IF NOT EXISTS idx_scores_grade ON scores(run_id, grade);
CREATE INDEX IF NOT EXISTS idx_rejections_run_id ON rejections(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, command string, sources []string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	if sources == nil {
		sources = []string{}
	}

	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal sources")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, command, sources, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, command, sourcesJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, counts model.RunCounts, runErr string) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal counts")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, counts = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(status), countsJSON, runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, command, sources, status, counts, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, command, sources, status, counts, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Command != "" {
		query += fmt.Sprintf(` AND command = $%d`, argIdx)
		args = append(args, filter.Command)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveOutcomes upserts outcomes keyed by run and canonical key.
func (s *PostgresStore) SaveOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error {
	rows := make([][]any, 0, len(outcomes))
	for _, o := range outcomes {
		row, err := outcomeRow(runID, o)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	_, err := db.ReplaceRows(ctx, s.pool, outcomesTable, rows)
	return eris.Wrap(err, "postgres: save outcomes")
}

// SaveScores upserts scores keyed by run and canonical key.
func (s *PostgresStore) SaveScores(ctx context.Context, runID string, scores []model.KeyScore) error {
	rows := make([][]any, 0, len(scores))
	for _, ks := range scores {
		row, err := scoreRow(runID, ks)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	_, err := db.ReplaceRows(ctx, s.pool, scoresTable, rows)
	return eris.Wrap(err, "postgres: save scores")
}

// SaveRejections appends rejections with COPY.
func (s *PostgresStore) SaveRejections(ctx context.Context, runID string, rejections []model.Rejection) error {
	rows := make([][]any, 0, len(rejections))
	for _, r := range rejections {
		rows = append(rows, rejectionRow(runID, r))
	}
	_, err := db.AppendRows(ctx, s.pool, rejectionsTable, rows)
	return eris.Wrap(err, "postgres: save rejections")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var sourcesJSON, countsJSON []byte

	if err := row.Scan(&r.ID, &r.Command, &sourcesJSON, &r.Status, &countsJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeRunJSON(&r, sourcesJSON, countsJSON); err != nil {
		return nil, err
	}
	return &r, nil
}
