// Package app provides graceful shutdown for the application.
// It ensures all components are stopped in the correct order.
package app

import (
	"context"
	"errors"
	"time"
)

// shutdownTimeout bounds waiting for in-flight admin API requests.
const shutdownTimeout = 10 * time.Second

// Shutdown performs graceful shutdown of all components.
// It stops the application in the following order:
//  1. Cancels the application context (a running purge cycle sees it)
//  2. Stops the admin API
//  3. Stops the cron scheduler, waiting for a running cycle to return
//  4. Closes the account store and the Redis client
//
// It is safe to call after a partial Initialize and more than once.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.shutdownInternal()
}

func (a *App) shutdownInternal() error {
	var errs []error

	if a.cancel != nil {
		a.cancel()
	}

	if a.adminAPI != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.adminAPI.Shutdown(ctx); err != nil {
			a.logger.Error("Failed to stop admin api", err)
			errs = append(errs, err)
		}
		cancel()
		a.adminAPI = nil
	}

	if a.cronScheduler != nil {
		if err := a.cronScheduler.Stop(); err != nil {
			a.logger.Error("Failed to stop cron scheduler", err)
		}
		a.cronScheduler = nil
	}

	errs = append(errs, a.closeResources()...)

	if a.started {
		a.logger.Info("Application stopped")
	}
	a.started = false
	a.built = false

	return errors.Join(errs...)
}

// closeResources closes the account store and the Redis client if they
// were opened. Build error paths use it too.
func (a *App) closeResources() []error {
	var errs []error
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.logger.Error("Failed to close account store", err)
			errs = append(errs, err)
		}
		a.closeStore = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Failed to close redis client", err)
			errs = append(errs, err)
		}
		a.redis = nil
	}

	return errs
}
