package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-revise/internal/db"
)

var testSchema = db.Schema{
	db.DriverSQLite: `CREATE TABLE IF NOT EXISTS notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL);`,
}

func openMem(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn, testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func count(t *testing.T, h *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, h.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]db.Driver{
		"":         db.DriverSQLite,
		"sqlite3":  db.DriverSQLite,
		"pgx":      db.DriverPostgres,
		"postgres": db.DriverPostgres,
	} {
		got, err := db.ParseDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := db.ParseDriver("mysql")
	assert.Error(t, err)
}

func TestOpen_AppliesSchemaWithDollarPlaceholders(t *testing.T) {
	h := openMem(t)
	_, err := h.Exec(`INSERT INTO notes (id, body) VALUES ($1, $2)`, 1, "hello")
	require.NoError(t, err)

	var body string
	require.NoError(t, h.QueryRow(`SELECT body FROM notes WHERE id = $1`, 1).Scan(&body))
	assert.Equal(t, "hello", body)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), db.Driver("mysql"), "", nil)
	assert.Error(t, err)
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	h := openMem(t)
	ctx := context.Background()

	require.NoError(t, db.WithTx(ctx, h, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO notes (id, body) VALUES ($1, $2)`, 1, "kept")
		return err
	}))
	assert.Equal(t, 1, count(t, h))

	boom := errors.New("boom")
	err := db.WithTx(ctx, h, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notes (id, body) VALUES ($1, $2)`, 2, "dropped"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count(t, h))
}
