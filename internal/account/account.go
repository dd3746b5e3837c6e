// Package account defines the account model read from the external user store
// and the narrow collaborator interfaces the purge core depends on.
package account

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RegisteredLayout is the storage format for registration timestamps (UTC).
const RegisteredLayout = "2006-01-02 15:04:05"

var (
	// ErrInvalidAccount is returned when a store record fails boundary validation.
	ErrInvalidAccount = errors.New("invalid account record")

	// ErrNotFound is returned by lookups for a missing account.
	ErrNotFound = errors.New("account not found")
)

// Account is a user record as seen by the purge core. The core never mutates it.
type Account struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`

	// Registered is zero when the store value could not be parsed.
	Registered    time.Time `json:"registered"`
	RegisteredRaw string    `json:"registered_raw,omitempty"`

	Roles []string `json:"roles"`
}

// HasRole reports whether the account carries role (case-insensitive).
func (a Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// RegisteredValid reports whether the registration timestamp was parsed.
func (a Account) RegisteredValid() bool {
	return !a.Registered.IsZero()
}

// Finder queries accounts with role registered at or before registeredBefore,
// oldest first. limit <= 0 means no limit.
type Finder interface {
	FindAccounts(ctx context.Context, role string, registeredBefore time.Time, limit int) ([]Account, error)
}

// EngagementCounter returns the number of qualifying activities (comments) of an account.
type EngagementCounter interface {
	CountEngagement(ctx context.Context, accountID int64) (int64, error)
}

// Deleter removes an account. false with a nil error means the store refused
// or the account was already gone.
type Deleter interface {
	DeleteAccount(ctx context.Context, accountID int64) (bool, error)
}

// Store is the full collaborator surface implemented by the concrete stores.
type Store interface {
	Finder
	EngagementCounter
	Deleter
}

// ParseRegistered parses a raw store timestamp. Unparsable values yield the zero time.
func ParseRegistered(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{RegisteredLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			if t.Year() < 1 {
				return time.Time{}
			}
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatRegistered formats t in the storage layout.
func FormatRegistered(t time.Time) string {
	return t.UTC().Format(RegisteredLayout)
}
