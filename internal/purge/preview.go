package purge

import (
	"context"
	"math"
	"time"

	"github.com/aatumaykin/subpurge/internal/account"
)

const (
	// PreviewDateLayout is the registration display format in previews.
	PreviewDateLayout = "2006-01-02 15:04"
	// UrgentDays marks accounts purged within this many days.
	UrgentDays = 2
)

// Upcoming is one row of the purge preview.
type Upcoming struct {
	Account           account.Account `json:"account"`
	RegisteredDisplay string          `json:"registered"`
	DaysUntil         int             `json:"days_until"`
	Urgent            bool            `json:"urgent"`
}

// DaysUntilPurge returns the whole days left before an account registered at
// registered crosses the daysInactive threshold, rounded up and never negative.
// An unknown registration is already past any threshold.
func DaysUntilPurge(registered time.Time, daysInactive int, now time.Time) int {
	if registered.IsZero() {
		return 0
	}
	deadline := registered.Add(time.Duration(daysInactive) * Day)
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// Preview lists every currently eligible account with its purge countdown,
// using the stored settings. Accounts are already past the threshold, so the
// countdown is 0 for all of them except under clock skew.
func (e *Executor) Preview(ctx context.Context) ([]Upcoming, error) {
	st := e.settings.Load(ctx)
	accounts, err := e.selector.ListInactiveAccounts(ctx, st.DaysInactive, 0)
	if err != nil {
		return nil, err
	}

	now := e.now()
	out := make([]Upcoming, 0, len(accounts))
	for _, a := range accounts {
		days := DaysUntilPurge(a.Registered, st.DaysInactive, now)
		display := "Unknown"
		if a.RegisteredValid() {
			display = a.Registered.UTC().Format(PreviewDateLayout)
		}
		out = append(out, Upcoming{
			Account:           a,
			RegisteredDisplay: display,
			DaysUntil:         days,
			Urgent:            days <= UrgentDays,
		})
	}
	return out, nil
}
