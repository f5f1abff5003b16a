package keystore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// SQLite is a session.Store persisted in a single sqlite file, so credentials survive restarts
// of the client the way they survive page reloads in a browser.
type SQLite struct {
	db *sqlx.DB
}

var _ session.Store = (*SQLite)(nil)

// DefaultPath returns ~/.edplatform/keystore.db
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".edplatform", "keystore.db")
}

// OpenSQLite opens (creating it if needed) the keystore at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = DefaultPath()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(err, "creating keystore directory")
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening keystore")
	}
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "initializing keystore")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(key string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errors.Wrap(core.ErrNotFound, key)
		}
		return "", errors.Wrapf(err, "reading %s", key)
	}
	return value, nil
}

func (s *SQLite) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return errors.Wrapf(err, "writing %s", key)
}

func (s *SQLite) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM kv WHERE key IN (?)`, keys)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = s.db.Exec(query, args...)
	return errors.Wrap(err, "deleting keys")
}

func (s *SQLite) Close() error { return s.db.Close() }
