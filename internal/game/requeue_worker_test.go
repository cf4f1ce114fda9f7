package game

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	rstore "github.com/playmatatu/bouncer/internal/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequeueStale(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	queue := rstore.NewRunQueue(f.rdb)
	require.NoError(t, queue.Enqueue(ctx, "b", now.Add(-time.Hour)))

	f.mock.ExpectQuery("SELECT id FROM runs WHERE status = 'pending'").
		WithArgs(now.Add(-2*time.Minute), requeueBatch).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))

	n, err := RequeueStale(ctx, f.v.runs, queue, now, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	due, err := queue.Due(ctx, now, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, due)
}

func TestRequeueStaleDatabaseError(t *testing.T) {
	f := newVerifyFixture(t)
	f.mock.ExpectQuery("SELECT id FROM runs").WillReturnError(assert.AnError)

	n, err := RequeueStale(context.Background(), f.v.runs, rstore.NewRunQueue(f.rdb), time.Now(), time.Minute)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, n)
}
