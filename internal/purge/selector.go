// Package purge implements the purge core: selecting inactive zero-engagement
// accounts and running one notify-then-delete cycle at a time.
package purge

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aatumaykin/subpurge/internal/account"
	"github.com/aatumaykin/subpurge/internal/logger"
)

// Day is the inactivity unit.
const Day = 24 * time.Hour

// ErrInvalidDays is returned for a non-positive inactivity threshold.
var ErrInvalidDays = errors.New("days inactive must be positive")

// Selector lists accounts eligible for purge.
type Selector struct {
	finder  account.Finder
	counter account.EngagementCounter
	role    string
	logger  *logger.Logger
	now     func() time.Time
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSelectorClock overrides the time source.
func WithSelectorClock(now func() time.Time) SelectorOption {
	return func(s *Selector) { s.now = now }
}

// NewSelector creates a selector for accounts carrying role.
func NewSelector(finder account.Finder, counter account.EngagementCounter, role string, log *logger.Logger, opts ...SelectorOption) *Selector {
	s := &Selector{
		finder:  finder,
		counter: counter,
		role:    role,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cutoff returns the registration boundary for daysInactive.
func (s *Selector) Cutoff(daysInactive int) time.Time {
	return s.now().Add(-time.Duration(daysInactive) * Day)
}

// ListInactiveAccounts returns accounts with the target role registered at or
// before now - daysInactive days and with no engagement, oldest first.
//
// limit caps the store query (page size) before the engagement filter runs,
// so fewer than limit accounts may come back even when more are eligible.
// limit <= 0 means unbounded. Store failures are returned wrapped, without retry.
func (s *Selector) ListInactiveAccounts(ctx context.Context, daysInactive, limit int) ([]account.Account, error) {
	if daysInactive <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDays, daysInactive)
	}
	if limit < 0 {
		limit = 0
	}

	cutoff := s.Cutoff(daysInactive)
	candidates, err := s.finder.FindAccounts(ctx, s.role, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}

	out := make([]account.Account, 0, len(candidates))
	for _, a := range candidates {
		// store contract violations are dropped, not trusted
		if !a.HasRole(s.role) || a.Registered.After(cutoff) {
			s.logger.WarnCtx(ctx, "store returned an account outside the query",
				logger.Field{Key: "account_id", Value: a.ID})
			continue
		}

		n, err := s.counter.CountEngagement(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("count engagement of account %d: %w", a.ID, err)
		}
		if n != 0 {
			continue
		}
		out = append(out, a)
	}

	slices.SortStableFunc(out, func(x, y account.Account) int {
		return x.Registered.Compare(y.Registered)
	})
	return out, nil
}
