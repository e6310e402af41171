// Package store persists the archive manifest and region build log in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/izv-data/internal/model"
)

// SQLiteStore implements Manifest using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The parent directory is created if missing.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "sqlite: create dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS archives (
	name          TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	month         TEXT,
	year          TEXT,
	bytes         INTEGER NOT NULL,
	sha256        TEXT NOT NULL,
	downloaded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS builds (
	id            TEXT PRIMARY KEY,
	region        TEXT NOT NULL,
	source        TEXT NOT NULL,
	row_count     INTEGER NOT NULL,
	skipped       INTEGER NOT NULL DEFAULT 0,
	archive_count INTEGER NOT NULL DEFAULT 0,
	failed_fields TEXT,
	built_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_builds_region ON builds(region);
CREATE INDEX IF NOT EXISTS idx_builds_built_at ON builds(built_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordArchive inserts or replaces the manifest row for an archive.
func (s *SQLiteStore) RecordArchive(ctx context.Context, a model.Archive) error {
	if a.DownloadedAt.IsZero() {
		a.DownloadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO archives (name, url, month, year, bytes, sha256, downloaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   url = excluded.url, month = excluded.month, year = excluded.year,
		   bytes = excluded.bytes, sha256 = excluded.sha256, downloaded_at = excluded.downloaded_at`,
		a.Name, a.URL, nullString(a.Month), nullString(a.Year), a.Bytes, a.SHA256, a.DownloadedAt,
	)
	return eris.Wrapf(err, "sqlite: record archive %s", a.Name)
}

// GetArchive returns the manifest row for name, or nil if none exists.
func (s *SQLiteStore) GetArchive(ctx context.Context, name string) (*model.Archive, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, url, month, year, bytes, sha256, downloaded_at FROM archives WHERE name = ?`,
		name,
	)
	a, err := scanArchive(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get archive %s", name)
	}
	return a, nil
}

// ListArchives returns all archives ordered by period, then name.
func (s *SQLiteStore) ListArchives(ctx context.Context) ([]model.Archive, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, url, month, year, bytes, sha256, downloaded_at FROM archives
		 ORDER BY year, month, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list archives")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Archive
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan archive")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list archives iterate")
}

// RecordBuild stores a build log entry, assigning an ID and timestamp when unset.
func (s *SQLiteStore) RecordBuild(ctx context.Context, b model.Build) (*model.Build, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.BuiltAt.IsZero() {
		b.BuiltAt = time.Now().UTC()
	}

	var failed sql.NullString
	if len(b.FailedFields) > 0 {
		data, err := json.Marshal(b.FailedFields)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal failed fields")
		}
		failed = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, region, source, row_count, skipped, archive_count, failed_fields, built_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Region, string(b.Source), b.Rows, b.Skipped, b.Archives, failed, b.BuiltAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert build for %s", b.Region)
	}
	return &b, nil
}

// ListBuilds returns the most recent builds first.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]model.Build, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, region, source, row_count, skipped, archive_count, failed_fields, built_at
		 FROM builds ORDER BY built_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list builds")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Build
	for rows.Next() {
		var b model.Build
		var source string
		var failed sql.NullString
		if err := rows.Scan(&b.ID, &b.Region, &source, &b.Rows, &b.Skipped, &b.Archives, &failed, &b.BuiltAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan build")
		}
		b.Source = model.BuildSource(source)
		if failed.Valid {
			if err := json.Unmarshal([]byte(failed.String), &b.FailedFields); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal failed fields")
			}
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list builds iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanArchive(row scannable) (*model.Archive, error) {
	var a model.Archive
	var month, year sql.NullString
	if err := row.Scan(&a.Name, &a.URL, &month, &year, &a.Bytes, &a.SHA256, &a.DownloadedAt); err != nil {
		return nil, err
	}
	a.Month = month.String
	a.Year = year.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
