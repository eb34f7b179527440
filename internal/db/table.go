package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Table describes a result table written in bulk.
type Table struct {
	// Name may be schema-qualified ("roster.scores").
	Name    string
	Columns []string
	// Key lists the columns of the unique constraint ReplaceRows merges on.
	Key []string
}

func (t Table) ident() pgx.Identifier {
	if schema, name, ok := strings.Cut(t.Name, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{t.Name}
}

func (t Table) staging() pgx.Identifier {
	return pgx.Identifier{"stage_" + strings.ReplaceAll(t.Name, ".", "_")}
}

func (t Table) stagingDDL() string {
	return fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		t.staging().Sanitize(), t.ident().Sanitize())
}

// mergeSQL moves staged rows into the table, overwriting every non-key
// column of rows that already exist.
func (t Table) mergeSQL() (string, error) {
	if len(t.Key) == 0 {
		return "", eris.Errorf("db: %s: no key columns", t.Name)
	}

	var sets []string
	for _, c := range t.Columns {
		if slices.Contains(t.Key, c) {
			continue
		}
		q := pgx.Identifier{c}.Sanitize()
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	action := "DO NOTHING"
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}

	cols := columnList(t.Columns)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		t.ident().Sanitize(), cols, cols, t.staging().Sanitize(), columnList(t.Key), action), nil
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// AppendRows writes rows with the COPY protocol.
func AppendRows(ctx context.Context, pool Pool, t Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := pool.CopyFrom(ctx, t.ident(), t.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: copy into %s", t.Name)
	}
	return n, nil
}

// ReplaceRows copies rows into a transaction-scoped staging table and merges
// them on t.Key, so saving the same run twice replaces its rows.
func ReplaceRows(ctx context.Context, pool Pool, t Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(t.Columns) == 0 {
		return 0, eris.Errorf("db: %s: no columns", t.Name)
	}
	merge, err := t.mergeSQL()
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, t.stagingDDL()); err != nil {
		return 0, eris.Wrapf(err, "db: stage %s", t.Name)
	}
	if _, err := tx.CopyFrom(ctx, t.staging(), t.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: copy into staging for %s", t.Name)
	}
	tag, err := tx.Exec(ctx, merge)
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge %s", t.Name)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: commit")
	}
	return tag.RowsAffected(), nil
}
