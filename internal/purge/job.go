package purge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aatumaykin/subpurge/internal/lock"
	"github.com/aatumaykin/subpurge/internal/logger"
)

// LockKey is the default lease key of the purge operation.
const LockKey = "subpurge:lock:purge"

// Job is the scheduled unit of work: one purge cycle under a single-flight
// lease and a deadline.
type Job struct {
	exec    *Executor
	locker  lock.Locker
	key     string
	ttl     time.Duration
	timeout time.Duration
	logger  *logger.Logger
}

// NewJob wraps exec. ttl bounds how long a crashed holder blocks other
// processes; timeout bounds a single cycle (0 disables it).
func NewJob(exec *Executor, locker lock.Locker, key string, ttl, timeout time.Duration, log *logger.Logger) *Job {
	if key == "" {
		key = LockKey
	}
	if ttl <= 0 {
		ttl = timeout
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Job{
		exec:    exec,
		locker:  locker,
		key:     key,
		ttl:     ttl,
		timeout: timeout,
		logger:  log,
	}
}

// Run executes one cycle unless the lease is held elsewhere or cannot be
// taken, in which case the cycle is skipped.
func (j *Job) Run(ctx context.Context) CycleResult {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	release, ok, err := j.locker.TryAcquire(ctx, j.key, j.ttl)
	if err != nil || !ok {
		res := j.skipped(err)
		if err != nil {
			j.logger.ErrorCtx(ctx, "Failed to acquire purge lock, skipping cycle", err,
				logger.Field{Key: "run_id", Value: res.RunID},
				logger.Field{Key: "key", Value: j.key})
		} else {
			j.logger.InfoCtx(ctx, "Purge already running elsewhere, skipping cycle",
				logger.Field{Key: "run_id", Value: res.RunID},
				logger.Field{Key: "key", Value: j.key})
		}
		return res
	}
	defer func() {
		if err := release(); err != nil {
			j.logger.Warn("Failed to release purge lock",
				logger.Field{Key: "key", Value: j.key},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}()

	return j.exec.RunPurgeCycle(ctx)
}

func (j *Job) skipped(err error) CycleResult {
	res := CycleResult{
		RunID:   uuid.NewString(),
		Outcome: OutcomeSkipped,
		Err:     err,
		Started: j.exec.now(),
	}
	j.exec.recorder.RecordCycle(OutcomeSkipped, 0)
	return res
}
