package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/subpurge/internal/adminapi"
	"github.com/aatumaykin/subpurge/internal/app/builders"
	"github.com/aatumaykin/subpurge/internal/lock"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/metrics"
	"github.com/aatumaykin/subpurge/internal/notify"
	"github.com/aatumaykin/subpurge/internal/purge"
)

// Build creates every component needed to run a purge cycle without
// starting anything in the background. It is enough for one-shot commands.
func (a *App) Build(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buildLocked(ctx)
}

func (a *App) buildLocked(ctx context.Context) (err error) {
	if a.built {
		return nil
	}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// 1. Redis, only when some backend uses it
	if a.config.Settings.Backend == "redis" || a.config.Lock.Backend == "redis" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		if err = a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", a.config.Redis.Addr, err)
		}
	}

	// 2. Account store
	store, closeStore, err := builders.NewStoreBuilder(a.config, a.logger).Build(ctx)
	if err != nil {
		return err
	}
	a.store = store
	a.closeStore = closeStore

	// 3. Settings accessor
	a.settings, err = builders.NewSettingsBuilder(a.config, a.logger).Build(a.redis)
	if err != nil {
		return err
	}

	// 4. Notification transports
	userMailer, adminMailer, err := builders.NewMailBuilder(a.config, a.logger).Build(ctx)
	if err != nil {
		return err
	}
	sender := notify.NewSender(userMailer, notify.Site{
		Name:       a.config.Site.Name,
		AdminEmail: a.config.Site.AdminEmail,
		Locale:     a.config.Site.Locale,
	}, a.logger, notify.WithAdminMailer(adminMailer))

	// 5. Metrics
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.InitPrometheusMetrics(metrics.Namespace, a.registry)

	// 6. Purge core
	selector := purge.NewSelector(a.store, a.store, a.config.Site.TargetRole, a.logger)
	a.executor = purge.NewExecutor(selector, a.settings, sender, a.store, a.logger,
		purge.WithRecorder(a.metrics))

	var locker lock.Locker = lock.NewLocalLocker()
	if a.config.Lock.Backend == "redis" {
		locker = lock.NewRedisLocker(a.redis)
	}
	a.job = purge.NewJob(a.executor, locker, a.config.Lock.Key, a.config.Lock.TTL, a.config.Purge.Timeout, a.logger)

	a.built = true
	return nil
}

// Initialize builds the components and starts the background parts: the
// scheduler with the purge job and, when enabled, the admin API.
func (a *App) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("application already started")
	}

	// 1. Create application context
	a.ctx, a.cancel = context.WithCancel(ctx)

	// 2. Build components
	if err := a.buildLocked(a.ctx); err != nil {
		a.cancel()
		return err
	}

	// 3. Scheduler with drift-checked purge job
	scheduler, err := builders.NewCronBuilder(a.config, a.logger, a.CronStorage()).
		BuildAndStart(a.ctx, a.runScheduledPurge)
	if err != nil {
		_ = a.shutdownInternal()
		return err
	}
	a.cronScheduler = scheduler

	// 4. Admin API
	if a.config.AdminAPI.Enabled {
		api := adminapi.New(a.config.AdminAPI.Listen, a.settings, a.executor, a.registry, a.logger)
		if err := api.Start(); err != nil {
			// откатываем уже запущенный планировщик
			_ = a.shutdownInternal()
			return err
		}
		a.adminAPI = api
	}

	// 5. Mark as started
	a.started = true

	return nil
}

// runScheduledPurge is the scheduler entry point. It never returns an error:
// the outcome is logged and counted.
func (a *App) runScheduledPurge(ctx context.Context) {
	res := a.job.Run(ctx)
	a.logger.DebugCtx(ctx, "scheduled purge cycle finished", CycleFields(res)...)
}

// CycleFields flattens a cycle result for logging.
func CycleFields(res purge.CycleResult) []logger.Field {
	fields := []logger.Field{
		{Key: "run_id", Value: res.RunID},
		{Key: "outcome", Value: res.Outcome},
		{Key: "duration_ms", Value: res.Duration.Milliseconds()},
	}
	if res.Candidate != nil {
		fields = append(fields, logger.Field{Key: "account_id", Value: res.Candidate.ID})
	}
	if res.Err != nil {
		fields = append(fields, logger.Field{Key: "error", Value: res.Err.Error()})
	}
	return fields
}
