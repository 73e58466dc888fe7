package distlock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-intelligence/internal/pkg/distlock"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockExclusive(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	a := distlock.NewRedisLock(client, "patterns", time.Minute)
	b := distlock.NewRedisLock(client, "patterns", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:patterns"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder is refused")

	assert.ErrorIs(t, b.Release(ctx), distlock.ErrNotHeld, "non-owner cannot release")
	assert.True(t, mr.Exists("lock:patterns"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:patterns"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockTTLAndExtend(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()

	l := distlock.NewRedisLock(client, "digest", 10*time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Extend(ctx, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(l.Key()))

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, l.Extend(ctx, time.Minute), distlock.ErrNotHeld, "expired lock cannot be extended")
}

func TestRun(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	holder := distlock.NewRedisLock(client, "job", time.Minute)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	calls := 0
	ran, err := distlock.Run(ctx, distlock.NewRedisLock(client, "job", time.Minute), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 0, calls)

	require.NoError(t, holder.Release(ctx))

	boom := errors.New("boom")
	ran, err = distlock.Run(ctx, distlock.NewRedisLock(client, "job", time.Minute), func(context.Context) error {
		calls++
		return boom
	})
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	// The lock was released after the failed run.
	ok, err = distlock.NewRedisLock(client, "job", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPGAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))
	mock.ExpectQuery("SELECT pg_advisory_unlock").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))

	l := distlock.NewLock(nil, db, "nightly", time.Minute)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx))
	assert.ErrorIs(t, l.Release(ctx), distlock.ErrNotHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLockBusy(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(false))

	l := distlock.NewPGAdvisoryLock(db, "nightly")
	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
