package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ReplaceConfig describes a slice-replacing load: rows whose KeyColumn value
// is in Keys are deleted and the new rows copied in, in one transaction.
type ReplaceConfig struct {
	Table     string   // target table, optionally schema-qualified
	DDL       string   // executed first; should be idempotent (CREATE ... IF NOT EXISTS)
	Columns   []string // columns supplied by the copy source
	KeyColumn string
	Keys      []string
}

// ReplaceSlice runs cfg against pool and returns the number of rows copied.
// Nothing changes if any step fails.
func ReplaceSlice(ctx context.Context, pool Pool, cfg ReplaceConfig, src pgx.CopyFromSource) (int64, error) {
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}
	if cfg.KeyColumn == "" {
		return 0, eris.New("db: replace: no key column specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if cfg.DDL != "" {
		if _, err := tx.Exec(ctx, cfg.DDL); err != nil {
			return 0, eris.Wrapf(err, "db: replace: ensure table %s", cfg.Table)
		}
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)",
		Identifier(cfg.Table).Sanitize(), pgx.Identifier{cfg.KeyColumn}.Sanitize())
	if _, err := tx.Exec(ctx, del, cfg.Keys); err != nil {
		return 0, eris.Wrapf(err, "db: replace: delete from %s", cfg.Table)
	}

	n, err := CopyFrom(ctx, tx, cfg.Table, cfg.Columns, src)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit")
	}
	return n, nil
}
