package purge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/subpurge/internal/lock"
	"github.com/aatumaykin/subpurge/internal/logger"
)

type failingLocker struct{ err error }

func (l failingLocker) TryAcquire(context.Context, string, time.Duration) (func() error, bool, error) {
	return nil, false, l.err
}

func TestJob_Run(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, daysAgo(40), 0)
	locker := lock.NewLocalLocker()

	job := NewJob(f.exec, locker, "", time.Minute, time.Minute, logger.Nop())
	res := job.Run(context.Background())
	assert.Equal(t, OutcomeDeleted, res.Outcome)

	_, ok, err := locker.TryAcquire(context.Background(), LockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lease is released after the cycle")
}

func TestJob_SkipsWhenHeld(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, daysAgo(40), 0)
	locker := lock.NewLocalLocker()

	release, ok, err := locker.TryAcquire(context.Background(), LockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	res := NewJob(f.exec, locker, LockKey, time.Minute, 0, logger.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, 1, f.recorder.cycles[OutcomeSkipped])
}

func TestJob_SkipsWhenLockUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, daysAgo(40), 0)
	boom := errors.New("redis unreachable")

	res := NewJob(f.exec, failingLocker{err: boom}, LockKey, time.Minute, time.Minute, logger.Nop()).
		Run(context.Background())

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, 1, f.store.Len())
	assert.Empty(t, f.mailer.Records())
}

func TestJob_RedisLeaseAcrossProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := newFixture(t, nil)
	f.add(t, 1, daysAgo(40), 0)
	f.add(t, 2, daysAgo(35), 0)

	other := lock.NewRedisLocker(rdb)
	release, ok, err := other.TryAcquire(context.Background(), LockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	job := NewJob(f.exec, lock.NewRedisLocker(rdb), LockKey, time.Minute, time.Minute, logger.Nop())
	assert.Equal(t, OutcomeSkipped, job.Run(context.Background()).Outcome)

	require.NoError(t, release())
	assert.Equal(t, OutcomeDeleted, job.Run(context.Background()).Outcome)
	assert.False(t, mr.Exists(LockKey))
	assert.Equal(t, 1, f.store.Len())
}

func TestJob_TimeoutBoundsCycle(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, 1, daysAgo(40), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewJob(f.exec, lock.NewLocalLocker(), LockKey, time.Minute, time.Second, logger.Nop()).Run(ctx)
	assert.Equal(t, OutcomeSkipped, res.Outcome, "local locker refuses a done context")
	assert.ErrorIs(t, res.Err, context.Canceled)
}
