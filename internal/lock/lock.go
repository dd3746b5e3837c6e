// Package lock provides a single-flight lease keyed on an operation name, so
// that overlapping purge cycles (second process, slow cycle) are skipped.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned when a release finds the lease owned by someone else
// (typically because it expired).
var ErrNotHeld = errors.New("lock not held")

// Locker acquires a lease without blocking. ok is false when another holder
// owns the key. release is non-nil only when ok is true.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func() error, ok bool, err error)
}

// LocalLocker is an in-process Locker with lease expiry.
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

type lease struct {
	token   string
	expires time.Time
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]lease), now: time.Now}
}

// TryAcquire takes the lease on key unless an unexpired one is held.
// The returned release fails with ErrNotHeld once the lease was lost.
func (l *LocalLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func() error, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, held := l.leases[key]; held && now.Before(cur.expires) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.leases[key] = lease{token: token, expires: now.Add(ttl)}

	release := func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, held := l.leases[key]; !held || cur.token != token {
			return ErrNotHeld
		}
		delete(l.leases, key)
		return nil
	}
	return release, true, nil
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker leases keys with SET NX PX and releases them with a
// token-checked script, so a lease that expired and was taken over is not
// released by the previous holder.
type RedisLocker struct {
	rdb *redis.Client
}

// NewRedisLocker creates a locker on rdb.
func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// TryAcquire sets key with a fresh token if it is absent. Redis errors
// are returned so the caller can skip the cycle.
func (r *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func() error, bool, error) {
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() error {
		// отдельный контекст: контекст цикла к этому моменту может быть отменён
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, r.rdb, []string{key}, token).Int()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotHeld
		}
		return nil
	}
	return release, true, nil
}
