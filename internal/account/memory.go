package account

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process account store used by tests and demo mode.
// Failures can be injected to exercise the purge error paths.
type MemoryStore struct {
	mu         sync.RWMutex
	accounts   map[int64]Account
	engagement map[int64]int64

	findErr     error
	countErr    error
	failDeletes map[int64]bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[int64]Account),
		engagement:  make(map[int64]int64),
		failDeletes: make(map[int64]bool),
	}
}

// Add validates and inserts (or replaces) an account.
func (s *MemoryStore) Add(a Account) error {
	n, err := Normalize(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.accounts[n.ID] = n
	s.mu.Unlock()
	return nil
}

// SetEngagement sets the comment count of an account.
func (s *MemoryStore) SetEngagement(accountID, count int64) {
	s.mu.Lock()
	s.engagement[accountID] = count
	s.mu.Unlock()
}

// SetFindError makes FindAccounts fail with err (nil clears it).
func (s *MemoryStore) SetFindError(err error) {
	s.mu.Lock()
	s.findErr = err
	s.mu.Unlock()
}

// SetCountError makes CountEngagement fail with err (nil clears it).
func (s *MemoryStore) SetCountError(err error) {
	s.mu.Lock()
	s.countErr = err
	s.mu.Unlock()
}

// FailDeletes makes DeleteAccount refuse the given ids.
func (s *MemoryStore) FailDeletes(ids ...int64) {
	s.mu.Lock()
	for _, id := range ids {
		s.failDeletes[id] = true
	}
	s.mu.Unlock()
}

// Get returns a stored account.
func (s *MemoryStore) Get(id int64) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

// Len returns the number of stored accounts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// FindAccounts implements Finder. Accounts with an unparsable registration
// time sort first and count as registered before any cutoff.
func (s *MemoryStore) FindAccounts(ctx context.Context, role string, registeredBefore time.Time, limit int) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.findErr != nil {
		return nil, s.findErr
	}

	var out []Account
	for _, a := range s.accounts {
		if !a.HasRole(role) || a.Registered.After(registeredBefore) {
			continue
		}
		out = append(out, a)
	}

	slices.SortFunc(out, func(x, y Account) int {
		if c := x.Registered.Compare(y.Registered); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountEngagement implements EngagementCounter.
func (s *MemoryStore) CountEngagement(ctx context.Context, accountID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.engagement[accountID], nil
}

// DeleteAccount implements Deleter.
func (s *MemoryStore) DeleteAccount(ctx context.Context, accountID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failDeletes[accountID] {
		return false, fmt.Errorf("delete account %d: refused by store", accountID)
	}
	if _, ok := s.accounts[accountID]; !ok {
		return false, nil
	}
	delete(s.accounts, accountID)
	delete(s.engagement, accountID)
	return true, nil
}
