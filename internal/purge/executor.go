package purge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aatumaykin/subpurge/internal/account"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/settings"
)

// Cycle outcomes, used as the metrics label.
const (
	OutcomeEmpty        = "empty"
	OutcomeDeleted      = "deleted"
	OutcomeDeleteFailed = "delete_failed"
	OutcomeSelectFailed = "select_failed"
	OutcomeSkipped      = "skipped"
	OutcomeError        = "error"
)

// Notification kinds.
const (
	KindUser  = "user"
	KindAdmin = "admin"
)

// SettingsSource yields the settings snapshot for one cycle.
type SettingsSource interface {
	Load(ctx context.Context) settings.Settings
}

// Notifier sends the two purge notices. Both report success and never fail
// the cycle.
type Notifier interface {
	SendUserDeletionNotice(ctx context.Context, acct account.Account, st settings.Settings) bool
	SendAdminNotice(ctx context.Context, acct account.Account, st settings.Settings) bool
}

// Recorder receives cycle observations.
type Recorder interface {
	RecordCycle(outcome string, duration time.Duration)
	RecordNotification(kind string, ok bool)
	SetLastDeletion(t time.Time)
}

type nopRecorder struct{}

func (nopRecorder) RecordCycle(string, time.Duration) {}
func (nopRecorder) RecordNotification(string, bool) {}
func (nopRecorder) SetLastDeletion(time.Time) {}

// CycleResult describes what one cycle did. It is informational; the cycle
// itself never returns an error to its trigger.
type CycleResult struct {
	RunID         string            `json:"run_id"`
	Settings      settings.Settings `json:"settings"`
	Candidate     *account.Account  `json:"candidate,omitempty"`
	UserNotified  *bool             `json:"user_notified,omitempty"`
	AdminNotified *bool             `json:"admin_notified,omitempty"`
	Deleted       bool              `json:"deleted"`
	Outcome       string            `json:"outcome"`
	Err           error             `json:"-"`
	Started       time.Time         `json:"started"`
	Duration      time.Duration     `json:"duration"`
}

// Executor runs purge cycles.
type Executor struct {
	selector *Selector
	settings SettingsSource
	notifier Notifier
	deleter  account.Deleter
	recorder Recorder
	logger   *logger.Logger
	now      func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) ExecutorOption {
	return func(e *Executor) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

// NewExecutor creates an executor. Options override the clock and the metrics recorder.
func NewExecutor(selector *Selector, src SettingsSource, notifier Notifier, deleter account.Deleter, log *logger.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		selector: selector,
		settings: src,
		notifier: notifier,
		deleter:  deleter,
		recorder: nopRecorder{},
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Selector returns the selector the executor draws candidates from.
func (e *Executor) Selector() *Selector {
	return e.selector
}

// RunPurgeCycle processes at most one eligible account: the oldest one is
// optionally notified (user, then admin) and then deleted. Notice failures
// do not stop the deletion. A failed deletion leaves the account for the next
// cycle. Panics from collaborators are recovered into OutcomeError.
func (e *Executor) RunPurgeCycle(ctx context.Context) (res CycleResult) {
	res = CycleResult{
		RunID:   uuid.NewString(),
		Started: e.now(),
	}
	log := e.logger.With(logger.Field{Key: "run_id", Value: res.RunID})

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeError
			res.Err = fmt.Errorf("purge cycle panic: %v", r)
			log.ErrorCtx(ctx, "Purge cycle panicked", res.Err)
		}
		res.Duration = e.now().Sub(res.Started)
		e.recorder.RecordCycle(res.Outcome, res.Duration)
	}()

	st := e.settings.Load(ctx)
	res.Settings = st

	candidates, err := e.selector.ListInactiveAccounts(ctx, st.DaysInactive, 1)
	if err != nil {
		res.Outcome = OutcomeSelectFailed
		res.Err = err
		log.ErrorCtx(ctx, "Failed to select purge candidates", err,
			logger.Field{Key: "days_inactive", Value: st.DaysInactive})
		return res
	}
	if len(candidates) == 0 {
		res.Outcome = OutcomeEmpty
		log.DebugCtx(ctx, "No inactive accounts to purge",
			logger.Field{Key: "days_inactive", Value: st.DaysInactive})
		return res
	}

	acct := candidates[0]
	res.Candidate = &acct
	log = log.With(
		logger.Field{Key: "account_id", Value: acct.ID},
		logger.Field{Key: "login", Value: acct.Login},
	)

	if st.SendEmails {
		ok := e.notifier.SendUserDeletionNotice(ctx, acct, st)
		res.UserNotified = &ok
		e.recorder.RecordNotification(KindUser, ok)
		if !ok {
			log.WarnCtx(ctx, "User deletion notice not delivered")
		}
	}

	if st.NotifyAdmin {
		ok := e.notifier.SendAdminNotice(ctx, acct, st)
		res.AdminNotified = &ok
		e.recorder.RecordNotification(KindAdmin, ok)
		if !ok {
			log.WarnCtx(ctx, "Admin purge notice not delivered")
		}
	}

	deleted, err := e.deleter.DeleteAccount(ctx, acct.ID)
	switch {
	case err != nil:
		res.Outcome = OutcomeDeleteFailed
		res.Err = fmt.Errorf("delete account %d: %w", acct.ID, err)
		log.ErrorCtx(ctx, "Failed to delete inactive account", err)
	case !deleted:
		res.Outcome = OutcomeDeleteFailed
		log.WarnCtx(ctx, "Account was not deleted")
	default:
		res.Deleted = true
		res.Outcome = OutcomeDeleted
		e.recorder.SetLastDeletion(e.now())
		log.InfoCtx(ctx, "Purged inactive account",
			logger.Field{Key: "days_inactive", Value: st.DaysInactive})
	}

	return res
}
