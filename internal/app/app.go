// Package app provides the main application structure for subpurge.
// It wires the account store, settings, notification transports, the purge
// executor, the scheduler and the admin API, and manages their lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/subpurge/internal/account"
	"github.com/aatumaykin/subpurge/internal/adminapi"
	"github.com/aatumaykin/subpurge/internal/config"
	"github.com/aatumaykin/subpurge/internal/cron"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/metrics"
	"github.com/aatumaykin/subpurge/internal/purge"
	"github.com/aatumaykin/subpurge/internal/settings"
	"github.com/aatumaykin/subpurge/internal/version"
)

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	// Configuration and core services
	config *config.Config
	logger *logger.Logger

	// External connections
	redis      *redis.Client
	store      account.Store
	closeStore func() error

	// Purge core
	settings *settings.Accessor
	executor *purge.Executor
	job      *purge.Job

	// Observability
	registry *prometheus.Registry
	metrics  *metrics.PrometheusMetrics

	// Scheduled tasks
	cronStorage   *cron.Storage
	cronScheduler *cron.Scheduler

	// Admin API
	adminAPI *adminapi.Server

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Thread-safety
	mu      sync.RWMutex
	built   bool
	started bool
}

// New creates a new App instance with the provided configuration and logger.
// Components are created by Build (one-shot commands) or Initialize (daemon).
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Run starts the application and blocks until the context is cancelled.
// It performs the following steps:
//  1. Initializes all components via Initialize()
//  2. Logs that the application is running
//  3. Waits for the context to be cancelled
//  4. Performs graceful shutdown via Shutdown()
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		_ = a.Shutdown()
		return err
	}

	a.logger.Info(version.FormatStartupMessage(a.config.Site.Name))

	<-ctx.Done()

	return a.Shutdown()
}

// Executor returns the purge executor. Nil before Build.
func (a *App) Executor() *purge.Executor {
	return a.executor
}

// Job returns the lock-guarded purge job. Nil before Build.
func (a *App) Job() *purge.Job {
	return a.job
}

// Settings returns the settings accessor. Nil before Build.
func (a *App) Settings() *settings.Accessor {
	return a.settings
}

// Store returns the account store. Nil before Build.
func (a *App) Store() account.Store {
	return a.store
}

// CronStorage returns the scheduler registry.
func (a *App) CronStorage() *cron.Storage {
	if a.cronStorage == nil {
		a.cronStorage = cron.NewStorage(a.config.Data.Dir, a.logger)
	}
	return a.cronStorage
}

// Scheduler returns the running scheduler. Nil unless Initialize succeeded.
func (a *App) Scheduler() *cron.Scheduler {
	return a.cronScheduler
}

// Registry returns the Prometheus registry the metrics are registered in.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// AdminAPI returns the admin server. Nil when disabled.
func (a *App) AdminAPI() *adminapi.Server {
	return a.adminAPI
}
