// Package cron provides types and helper functions for cron jobs.
package cron

import (
	"context"
	"time"

	"github.com/aatumaykin/subpurge/internal/constants"
)

// JobType represents the type of a cron job
type JobType string

const (
	// JobTypeRecurring is a repeating job that runs on a fixed interval
	JobTypeRecurring JobType = constants.CronJobTypeRecurring
)

// JobFunc is the work bound to a registration. ctx is cancelled when the
// scheduler stops.
type JobFunc func(ctx context.Context)

// Job represents a scheduled cron job
type Job struct {
	ID        string        `json:"id"`         // Job name, unique per scheduler
	Type      JobType       `json:"type"`       // Always recurring for interval jobs
	Schedule  string        `json:"schedule"`   // Interval label, e.g. "@every 15m0s"
	Interval  time.Duration `json:"interval"`   // Parsed interval
	Owner     string        `json:"owner"`      // Who registered the job
	UpdatedAt time.Time     `json:"updated_at"` // Last (re)registration
}

// EveryLabel returns the schedule label for interval, the form compared by
// drift repair.
func EveryLabel(interval time.Duration) string {
	return "@every " + interval.String()
}
