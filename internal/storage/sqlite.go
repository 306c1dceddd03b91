package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"srcset/internal/source"
	"srcset/internal/target"
)

// ErrNotFound is returned for targets that have never been saved.
var ErrNotFound = errors.New("target not found")

var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS targets (
			name TEXT PRIMARY KEY,
			fingerprint TEXT NOT NULL,
			snapshot JSON NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS target_files (
			target TEXT NOT NULL,
			path TEXT NOT NULL,
			role TEXT NOT NULL,
			flags JSON,
			PRIMARY KEY (target, path)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_target_files_path ON target_files(path);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveTarget(ctx context.Context, name string, ts *target.TargetSources) (bool, error) {
	if ts == nil {
		return false, fmt.Errorf("save target %q: nil sources", name)
	}
	snapshot, err := ts.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("encode target %q: %w", name, err)
	}
	fingerprint := ts.Fingerprint()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var previous string
	err = tx.QueryRowContext(ctx, "SELECT fingerprint FROM targets WHERE name = ?", name).Scan(&previous)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("failed to query target: %w", err)
	case previous == fingerprint:
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO targets (name, fingerprint, snapshot) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			fingerprint=excluded.fingerprint,
			snapshot=excluded.snapshot
	`, name, fingerprint, snapshot); err != nil {
		return false, err
	}

	// The file rows are a full snapshot of the target; stale paths are dropped.
	if _, err := tx.ExecContext(ctx, "DELETE FROM target_files WHERE target = ?", name); err != nil {
		return false, err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO target_files (target, path, role, flags) VALUES (?, ?, ?, ?)")
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	for _, p := range ts.AllPaths() {
		role, _ := ts.RoleOf(p)
		var flags []byte
		if f, ok := ts.Flags(p); ok {
			if flags, err = json.Marshal(f); err != nil {
				return false, fmt.Errorf("marshal flags of %q: %w", string(p), err)
			}
		}
		if _, err := stmt.ExecContext(ctx, name, string(p), role.String(), flags); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) LoadTarget(ctx context.Context, name string) (*target.TargetSources, error) {
	var snapshot []byte
	err := s.db.QueryRowContext(ctx, "SELECT snapshot FROM targets WHERE name = ?", name).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query target: %w", err)
	}

	ts, err := target.Decode(snapshot)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", name, err)
	}
	return ts, nil
}

func (s *SQLiteStore) Fingerprint(ctx context.Context, name string) (string, error) {
	var fingerprint string
	err := s.db.QueryRowContext(ctx, "SELECT fingerprint FROM targets WHERE name = ?", name).Scan(&fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return fingerprint, err
}

func (s *SQLiteStore) FindTargetsByPath(ctx context.Context, p source.Path) ([]Owner, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT target, role FROM target_files WHERE path = ? ORDER BY target", string(p))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []Owner
	for rows.Next() {
		var (
			o    Owner
			role string
		)
		if err := rows.Scan(&o.Target, &role); err != nil {
			return nil, err
		}
		if o.Role, err = source.ParseRole(role); err != nil {
			return nil, fmt.Errorf("target %q: %w", o.Target, err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func (s *SQLiteStore) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM targets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) DeleteTarget(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM target_files WHERE target = ?", name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM targets WHERE name = ?", name); err != nil {
		return err
	}
	return tx.Commit()
}
