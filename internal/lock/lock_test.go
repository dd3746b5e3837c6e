package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	release, ok, err := l.TryAcquire(ctx, "purge", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryAcquire(ctx, "purge", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder is refused")

	_, ok, _ = l.TryAcquire(ctx, "other", time.Minute)
	assert.True(t, ok, "keys are independent")

	require.NoError(t, release())
	assert.ErrorIs(t, release(), ErrNotHeld)

	_, ok, _ = l.TryAcquire(ctx, "purge", time.Minute)
	assert.True(t, ok)
}

func TestLocalLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }

	stale, ok, _ := l.TryAcquire(ctx, "purge", time.Minute)
	require.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	_, ok, _ = l.TryAcquire(ctx, "purge", time.Minute)
	require.True(t, ok, "expired lease can be taken over")

	assert.ErrorIs(t, stale(), ErrNotHeld, "stale holder cannot release the new lease")
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := NewRedisLocker(rdb)
	b := NewRedisLocker(rdb)

	release, ok, err := a.TryAcquire(ctx, "subpurge:lock:purge", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("subpurge:lock:purge"))
	assert.Equal(t, time.Minute, mr.TTL("subpurge:lock:purge"))

	_, ok, err = b.TryAcquire(ctx, "subpurge:lock:purge", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release())
	assert.False(t, mr.Exists("subpurge:lock:purge"))

	_, ok, _ = b.TryAcquire(ctx, "subpurge:lock:purge", time.Minute)
	assert.True(t, ok)
}

func TestRedisLocker_ExpiredLeaseNotReleasedByOldHolder(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	l := NewRedisLocker(rdb)
	stale, ok, _ := l.TryAcquire(ctx, "k", time.Second)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, _ = l.TryAcquire(ctx, "k", time.Minute)
	require.True(t, ok)

	assert.ErrorIs(t, stale(), ErrNotHeld)
	assert.True(t, mr.Exists("k"), "new lease survives")
}

func TestRedisLocker_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	mr.SetError("LOADING Redis is loading the dataset in memory")

	_, ok, err := NewRedisLocker(rdb).TryAcquire(context.Background(), "k", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}
