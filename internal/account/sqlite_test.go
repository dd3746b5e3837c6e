package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "accounts.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_CreatesTables(t *testing.T) {
	s := newTestSQLStore(t)

	for _, table := range []string{"users", "comments"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}
}

func TestSQLStore_FindAccounts(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	seed := []Account{
		{ID: 10, Login: "mid", Email: "mid@example.com", Registered: daysAgo(45), Roles: []string{"subscriber"}},
		{ID: 11, Login: "old", Email: "old@example.com", Registered: daysAgo(50), Roles: []string{"subscriber", "customer"}},
		{ID: 12, Login: "fresh", Email: "fresh@example.com", Registered: daysAgo(3), Roles: []string{"subscriber"}},
		{ID: 13, Login: "editor", Email: "ed@example.com", Registered: daysAgo(90), Roles: []string{"editor"}},
		{ID: 14, Login: "subscriber2", Email: "s2@example.com", Registered: daysAgo(90), Roles: []string{"subscriber2"}},
	}
	for _, a := range seed {
		require.NoError(t, s.InsertAccount(ctx, a))
	}

	got, err := s.FindAccounts(ctx, "subscriber", daysAgo(30), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(11), got[0].ID, "oldest first")
	assert.Equal(t, int64(10), got[1].ID)
	assert.Equal(t, []string{"subscriber", "customer"}, got[0].Roles)
	assert.True(t, daysAgo(50).Equal(got[0].Registered))

	got, err = s.FindAccounts(ctx, "subscriber", daysAgo(30), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(11), got[0].ID)
}

func TestSQLStore_UnparsableRegistration(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertAccount(ctx, Account{ID: 1, Login: "ghost", RegisteredRaw: "0000-00-00 00:00:00", Roles: []string{"subscriber"}}))

	got, err := s.FindAccounts(ctx, "subscriber", daysAgo(30), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].RegisteredValid())
	assert.Equal(t, "0000-00-00 00:00:00", got[0].RegisteredRaw)
}

func TestSQLStore_SkipsInvalidRecords(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertAccount(ctx, Account{ID: 0, Login: "zero", Registered: daysAgo(40), Roles: []string{"subscriber"}}))
	require.NoError(t, s.InsertAccount(ctx, Account{ID: 2, Login: "ok", Registered: daysAgo(40), Roles: []string{"subscriber"}}))

	got, err := s.FindAccounts(ctx, "subscriber", daysAgo(30), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestSQLStore_InvalidRecordsDoNotUseUpLimit(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	// Two unusable rows older than every valid one.
	require.NoError(t, s.InsertAccount(ctx, Account{ID: -1, Login: "neg", Registered: daysAgo(60), Roles: []string{"subscriber"}}))
	require.NoError(t, s.InsertAccount(ctx, Account{ID: 0, Login: "zero", Registered: daysAgo(55), Roles: []string{"subscriber"}}))
	require.NoError(t, s.InsertAccount(ctx, Account{ID: 7, Login: "alice", Registered: daysAgo(45), Roles: []string{"subscriber"}}))
	require.NoError(t, s.InsertAccount(ctx, Account{ID: 8, Login: "carol", Registered: daysAgo(40), Roles: []string{"subscriber"}}))

	got, err := s.FindAccounts(ctx, "subscriber", daysAgo(30), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)

	got, err = s.FindAccounts(ctx, "subscriber", daysAgo(30), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(8), got[1].ID)
}

func TestSQLStore_UnusualLoginIsReturned(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertAccount(ctx, Account{ID: 1, Login: "bob#1", Registered: daysAgo(50), Roles: []string{"subscriber"}}))
	require.NoError(t, s.InsertAccount(ctx, Account{ID: 2, Login: "alice", Registered: daysAgo(45), Roles: []string{"subscriber"}}))

	got, err := s.FindAccounts(ctx, "subscriber", daysAgo(30), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "bob#1", got[0].Login)
}

func TestSQLStore_EngagementAndDelete(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertAccount(ctx, Account{ID: 5, Login: "talker", Registered: daysAgo(40), Roles: []string{"subscriber"}}))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AddComment(ctx, 5, daysAgo(10)))
	}

	n, err := s.CountEngagement(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	ok, err := s.DeleteAccount(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetAccount(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err = s.CountEngagement(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err = s.DeleteAccount(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}
