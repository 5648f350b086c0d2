package securestore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-revise/internal/db"
)

// Schema is the kv table the SQL backend needs.
var Schema = db.Schema{
	db.DriverSQLite: `
CREATE TABLE IF NOT EXISTS kv (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);`,
	db.DriverPostgres: `
CREATE TABLE IF NOT EXISTS kv (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);`,
}

type SQLStore struct {
	db     *sql.DB
	sealer *Sealer
}

func NewSQLStore(h *sql.DB, sealer *Sealer) *SQLStore { return &SQLStore{db: h, sealer: sealer} }

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var sealed string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "get %s", key)
	}
	return s.sealer.Open(sealed)
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, sealed, time.Now().Unix())
	return errors.Wrapf(err, "set %s", key)
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key)
	return errors.Wrapf(err, "delete %s", key)
}
