package syncx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-revise/internal/db"
)

func newRepo(t *testing.T) *EventRepo {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn, Schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return NewEventRepo(h)
}

func TestEventRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	a, err := r.Append(ctx, Event{Type: "progress", Key: "s1", DataJSON: `{"chapter_id":1}`})
	require.NoError(t, err)
	b, err := r.Append(ctx, Event{Type: "answer", Key: "42", DataJSON: `{"mcq_id":42}`})
	require.NoError(t, err)
	c, err := r.Append(ctx, Event{Type: "answer", Key: "43", DataJSON: `{"mcq_id":43}`})
	require.NoError(t, err)

	list, err := r.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{a, b, c}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "progress", list[0].Type)
	assert.NotZero(t, list[0].CreatedAt)

	require.NoError(t, r.MarkFailed(ctx, a, errors.New("timeout")))
	require.NoError(t, r.MarkDelivered(ctx, b))
	require.NoError(t, r.Drop(ctx, c, errors.New("400")))

	list, err = r.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a, list[0].ID)
	assert.Equal(t, 1, list[0].Attempts)

	n, err := r.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEventRepo_PendingLimit(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	for i := 0; i < 5; i++ {
		_, err := r.Append(ctx, Event{Type: "answer", Key: "k", DataJSON: "{}"})
		require.NoError(t, err)
	}
	list, err := r.Pending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
