// Package cron provides the interval scheduler for recurring service jobs.
// It uses robfig/cron/v3 for timing. Registrations are persisted to a JSONL
// registry so that a drifted interval is detected and repaired on startup.
package cron

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/robfig/cron/v3"
)

// Action reports what EnsureScheduled did.
type Action string

const (
	ActionScheduled   Action = "scheduled"
	ActionRescheduled Action = "rescheduled"
	ActionUnchanged   Action = "unchanged"
)

// Scheduler manages cron job scheduling and execution
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	storage *Storage    // Persistent registry, optional
	parser  cron.Parser // Parser for schedule labels
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.RWMutex

	// Job registry for tracking jobs by name
	jobs    map[string]Job
	entries map[string]cron.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the time zone schedules are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.cron = newCron(s.logger, loc)
		}
	}
}

// WithClock overrides the time source for registration timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a new scheduler. storage may be nil, in which case
// registrations live only in memory.
func NewScheduler(log *logger.Logger, storage *Storage, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:  log,
		storage: storage,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:     time.Now,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
	}
	s.cron = newCron(log, time.Local)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newCron builds the underlying runner. Every job is recovered from panics
// and skipped while its previous run is still in progress.
func newCron(log *logger.Logger, loc *time.Location) *cron.Cron {
	cl := cronLogger{log: log}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// Start starts the cron scheduler. Jobs receive a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		logger.Field{Key: "jobs", Value: len(s.jobs)})

	return nil
}

// Stop cancels running jobs and waits until they return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not started")
	}
	s.cancel()
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	<-done.Done()
	s.logger.Info("cron scheduler stopped")
	return nil
}

// IsStarted returns true if the scheduler is started
func (s *Scheduler) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Register schedules fn to run every interval under name and records the
// registration. It fails with ErrJobExists if name is already scheduled.
func (s *Scheduler) Register(name string, interval time.Duration, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(name, interval, fn)
}

func (s *Scheduler) registerLocked(name string, interval time.Duration, fn JobFunc) error {
	if err := validateJobName(name); err != nil {
		return err
	}
	if err := validateInterval(interval); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("job %s: nil func", name)
	}
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	label := EveryLabel(interval)
	sched, err := validateCronExpression(label, s.parser)
	if err != nil {
		return err
	}

	entryID := s.cron.Schedule(sched, cron.FuncJob(func() {
		s.executeJob(name, fn)
	}))

	job := Job{
		ID:        name,
		Type:      JobTypeRecurring,
		Schedule:  label,
		Interval:  interval,
		Owner:     constants.CronOwner,
		UpdatedAt: s.now().UTC(),
	}
	s.jobs[name] = job
	s.entries[name] = entryID

	if s.storage != nil {
		if err := s.storage.UpsertJob(toStorageJob(job)); err != nil {
			s.logger.Error("failed to persist job to storage", err,
				logger.Field{Key: "job_id", Value: name})
			// Continue even if storage fails - job is already scheduled
		}
	}

	s.logger.Info("cron job added",
		logger.Field{Key: "job_id", Value: name},
		logger.Field{Key: "schedule", Value: label},
		logger.Field{Key: "entry_id", Value: entryID})

	return nil
}

// Unregister removes the job from the runner and from the registry.
func (s *Scheduler) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unregisterLocked(name)
}

func (s *Scheduler) unregisterLocked(name string) error {
	entryID, scheduled := s.entries[name]
	if scheduled {
		s.cron.Remove(entryID)
		delete(s.entries, name)
		delete(s.jobs, name)
	}

	persisted := false
	if s.storage != nil {
		_, ok, err := s.storage.Get(name)
		if err != nil {
			return fmt.Errorf("read job registry: %w", err)
		}
		if ok {
			persisted = true
			if err := s.storage.Remove(name); err != nil {
				return fmt.Errorf("remove job %s from registry: %w", name, err)
			}
		}
	}

	if !scheduled && !persisted {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	s.logger.Info("cron job removed",
		logger.Field{Key: "job_id", Value: name})
	return nil
}

// Lookup returns the current registration of name: the live entry if there
// is one, otherwise the persisted record.
func (s *Scheduler) Lookup(name string) (Job, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(name)
}

func (s *Scheduler) lookupLocked(name string) (Job, bool, error) {
	if job, ok := s.jobs[name]; ok {
		return job, true, nil
	}
	if s.storage == nil {
		return Job{}, false, nil
	}
	sj, ok, err := s.storage.Get(name)
	if err != nil || !ok {
		return Job{}, false, err
	}
	return fromStorageJob(sj, s.parser), true, nil
}

// EnsureScheduled makes sure name runs every interval. A missing registration
// is created; one whose schedule label differs from the expected one (changed
// externally or by configuration) is removed and created again; a matching
// one is kept, binding fn when the registration was only persisted.
func (s *Scheduler) EnsureScheduled(name string, interval time.Duration, fn JobFunc) (Action, error) {
	if err := validateInterval(interval); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	want := EveryLabel(interval)
	current, found, err := s.lookupLocked(name)
	if err != nil {
		return "", fmt.Errorf("read job registry: %w", err)
	}

	switch {
	case !found:
		if err := s.registerLocked(name, interval, fn); err != nil {
			return "", err
		}
		return ActionScheduled, nil

	case current.Schedule != want:
		s.logger.Warn("cron job schedule drifted, rescheduling",
			logger.Field{Key: "job_id", Value: name},
			logger.Field{Key: "current", Value: current.Schedule},
			logger.Field{Key: "expected", Value: want})
		if err := s.unregisterLocked(name); err != nil {
			return "", err
		}
		if err := s.registerLocked(name, interval, fn); err != nil {
			return "", err
		}
		return ActionRescheduled, nil

	default:
		if _, live := s.entries[name]; !live {
			if err := s.registerLocked(name, interval, fn); err != nil {
				return "", err
			}
		}
		return ActionUnchanged, nil
	}
}

// ListJobs returns live registrations sorted by name.
func (s *Scheduler) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	slices.SortFunc(jobs, func(a, b Job) int { return strings.Compare(a.ID, b.ID) })
	return jobs
}

// NextRun returns the next activation of a live job. It is zero until the
// scheduler is started.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entryID, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

// executeJob runs fn with the scheduler context.
func (s *Scheduler) executeJob(name string, fn JobFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cron job panic recovered", fmt.Errorf("panic: %v", r),
				logger.Field{Key: "job_id", Value: name})
		}
	}()

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Debug("cron job fired", logger.Field{Key: "job_id", Value: name})
	fn(ctx)
}

func toStorageJob(job Job) StorageJob {
	return StorageJob{
		ID:        job.ID,
		Type:      string(job.Type),
		Schedule:  job.Schedule,
		Owner:     job.Owner,
		UpdatedAt: job.UpdatedAt,
	}
}

// fromStorageJob restores a Job from the registry. An unparsable label keeps
// Interval zero so that it never matches an expected label.
func fromStorageJob(sj StorageJob, parser cron.Parser) Job {
	job := Job{
		ID:        sj.ID,
		Type:      JobType(sj.Type),
		Schedule:  sj.Schedule,
		Owner:     sj.Owner,
		UpdatedAt: sj.UpdatedAt,
	}
	if sched, err := validateCronExpression(sj.Schedule, parser); err == nil {
		if every, ok := sched.(cron.ConstantDelaySchedule); ok {
			job.Interval = every.Delay
		}
	}
	return job
}
