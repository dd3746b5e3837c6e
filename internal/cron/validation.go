// Package cron provides schedule validation logic.
package cron

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrJobExists is returned when scheduling a name that is already scheduled.
	ErrJobExists = errors.New("job already scheduled")
	// ErrJobNotFound is returned for an unknown job name.
	ErrJobNotFound = errors.New("job not found")
)

// validateInterval rejects intervals robfig/cron cannot honour.
func validateInterval(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("invalid interval %s: must be at least 1s", interval)
	}
	return nil
}

// validateJobName rejects empty or multi-line names (they end up in the JSONL registry).
func validateJobName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("job name is required")
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("invalid job name %q", name)
	}
	return nil
}

// validateCronExpression validates a schedule label using the cron parser
func validateCronExpression(expression string, parser cron.Parser) (cron.Schedule, error) {
	sched, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return sched, nil
}
