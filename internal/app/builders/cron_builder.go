package builders

import (
	"context"
	"fmt"
	"time"

	"github.com/aatumaykin/subpurge/internal/config"
	"github.com/aatumaykin/subpurge/internal/cron"
	"github.com/aatumaykin/subpurge/internal/logger"
)

type CronBuilder struct {
	config      *config.Config
	logger      *logger.Logger
	cronStorage *cron.Storage
}

func NewCronBuilder(cfg *config.Config, log *logger.Logger, cs *cron.Storage) *CronBuilder {
	return &CronBuilder{
		config:      cfg,
		logger:      log,
		cronStorage: cs,
	}
}

// BuildAndStart creates the scheduler, makes sure the purge job is registered
// with the configured interval (repairing drift) and starts it.
func (b *CronBuilder) BuildAndStart(ctx context.Context, fn cron.JobFunc) (*cron.Scheduler, error) {
	var opts []cron.Option
	if tz := b.config.Scheduler.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", tz, err)
		}
		opts = append(opts, cron.WithLocation(loc))
	}

	scheduler := cron.NewScheduler(b.logger, b.cronStorage, opts...)

	name := b.config.Scheduler.JobName
	action, err := scheduler.EnsureScheduled(name, b.config.Scheduler.Interval, fn)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	b.logger.Info("purge job registration checked",
		logger.Field{Key: "job_id", Value: name},
		logger.Field{Key: "schedule", Value: cron.EveryLabel(b.config.Scheduler.Interval)},
		logger.Field{Key: "action", Value: string(action)})

	if err := scheduler.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start cron scheduler: %w", err)
	}

	return scheduler, nil
}
