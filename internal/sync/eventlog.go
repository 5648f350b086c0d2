// Package syncx is a small durable outbox: events are appended locally and
// marked delivered once the server has accepted them.
package syncx

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/mind-engage/mindengage-revise/internal/db"
)

var Schema = db.Schema{
	db.DriverSQLite: `
CREATE TABLE IF NOT EXISTS event_log (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  typ          TEXT NOT NULL,
  key          TEXT NOT NULL,
  data         TEXT NOT NULL,
  attempts     INTEGER NOT NULL DEFAULT 0,
  last_error   TEXT,
  created_at   INTEGER NOT NULL,
  delivered_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_event_log_pending ON event_log(delivered_at, id);`,
	db.DriverPostgres: `
CREATE TABLE IF NOT EXISTS event_log (
  id           BIGSERIAL PRIMARY KEY,
  typ          TEXT NOT NULL,
  key          TEXT NOT NULL,
  data         TEXT NOT NULL,
  attempts     INTEGER NOT NULL DEFAULT 0,
  last_error   TEXT,
  created_at   BIGINT NOT NULL,
  delivered_at BIGINT
);
CREATE INDEX IF NOT EXISTS idx_event_log_pending ON event_log(delivered_at, id);`,
}

type Event struct {
	ID        int64
	Type      string
	Key       string
	DataJSON  string
	Attempts  int
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix()).Scan(&id)
	return id, errors.Wrap(err, "append event")
}

// Pending lists undelivered events, oldest first.
func (r *EventRepo) Pending(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, typ, key, data, attempts, created_at FROM event_log
		 WHERE delivered_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "pending events")
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Key, &e.DataJSON, &e.Attempts, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) MarkDelivered(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE event_log SET delivered_at = $1, attempts = attempts + 1, last_error = NULL WHERE id = $2`,
		time.Now().Unix(), id)
	return errors.Wrap(err, "mark delivered")
}

func (r *EventRepo) MarkFailed(ctx context.Context, id int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE event_log SET attempts = attempts + 1, last_error = $1 WHERE id = $2`, msg, id)
	return errors.Wrap(err, "mark failed")
}

// Drop marks an event delivered without sending it. Used for events the
// server rejected outright.
func (r *EventRepo) Drop(ctx context.Context, id int64, cause error) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE event_log SET delivered_at = $1, last_error = $2 WHERE id = $3`,
		time.Now().Unix(), cause.Error(), id)
	return errors.Wrap(err, "drop event")
}

func (r *EventRepo) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_log WHERE delivered_at IS NULL`).Scan(&n)
	return n, errors.Wrap(err, "count pending")
}
