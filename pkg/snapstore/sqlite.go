package snapstore

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mvoltz/tether/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	format     TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

// SQLiteStore persists snapshots in a single SQLite database file.
// The pure-Go driver keeps the binary cgo-free.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open sqlite database %s", path)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "initialize sqlite schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Put stores a snapshot, replacing any row with the same ID.
func (s *SQLiteStore) Put(ctx context.Context, snap *Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (id, name, format, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.Format, snap.Data, snap.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "store snapshot %s", snap.ID)
	}
	return nil
}

// Get retrieves a snapshot by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var snap Snapshot
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, format, data, created_at FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.Name, &snap.Format, &snap.Data, &created)
	if err == sql.ErrNoRows {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load snapshot %s", id)
	}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse timestamp of snapshot %s", id)
	}
	return &snap, nil
}

// List returns metadata for all rows, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, format, length(data), created_at FROM snapshots ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var created string
		if err := rows.Scan(&info.ID, &info.Name, &info.Format, &info.Size, &created); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "scan listing row")
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "parse listing timestamp")
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	return infos, nil
}

// Delete removes a snapshot by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %s", id)
	}
	if n == 0 {
		return errNotFound(id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
