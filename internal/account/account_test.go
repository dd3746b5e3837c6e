package account

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistered(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"storage layout", "2024-03-01 10:20:30", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"rfc3339", "2024-03-01T10:20:30+02:00", time.Date(2024, 3, 1, 8, 20, 30, 0, time.UTC)},
		{"date only", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"zero date", "0000-00-00 00:00:00", time.Time{}},
		{"garbage", "not-a-date", time.Time{}},
		{"empty", "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRegistered(tt.raw)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestAccount_HasRole(t *testing.T) {
	a := Account{Roles: []string{"subscriber", "customer"}}
	assert.True(t, a.HasRole("subscriber"))
	assert.True(t, a.HasRole("Subscriber"))
	assert.False(t, a.HasRole("administrator"))
}

func TestNormalize(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		a, err := Normalize(Account{
			ID:            7,
			Login:         "  josé ",
			Email:         " jose@example.com ",
			RegisteredRaw: "2024-01-02 03:04:05",
			Roles:         []string{"Subscriber", "subscriber", " "},
		})
		require.NoError(t, err)
		assert.Equal(t, "josé", a.Login, "login is NFC-normalised")
		assert.Equal(t, "jose@example.com", a.Email)
		assert.Equal(t, []string{"subscriber"}, a.Roles)
		assert.True(t, a.RegisteredValid())
	})

	t.Run("bad id", func(t *testing.T) {
		_, err := Normalize(Account{ID: 0, Login: "x"})
		assert.True(t, errors.Is(err, ErrInvalidAccount))
	})

	t.Run("control characters in login replaced", func(t *testing.T) {
		a, err := Normalize(Account{ID: 1, Login: "bob\r\nBcc: x@y.z"})
		require.NoError(t, err)
		assert.Equal(t, "bob Bcc: x@y.z", a.Login)
	})

	t.Run("unusual login kept", func(t *testing.T) {
		a, err := Normalize(Account{ID: 1, Login: "bob#1"})
		require.NoError(t, err)
		assert.Equal(t, "bob#1", a.Login)

		a, err = Normalize(Account{ID: 2, Login: ""})
		require.NoError(t, err)
		assert.Empty(t, a.Login)
	})

	t.Run("long login truncated", func(t *testing.T) {
		a, err := Normalize(Account{ID: 1, Login: strings.Repeat("я", MaxLoginLength+15)})
		require.NoError(t, err)
		assert.Equal(t, MaxLoginLength, utf8.RuneCountInString(a.Login))
	})

	t.Run("invisible characters stripped", func(t *testing.T) {
		a, err := Normalize(Account{ID: 1, Login: "bo\u200bb"})
		require.NoError(t, err)
		assert.Equal(t, "bob", a.Login)
	})

	t.Run("bad email cleared", func(t *testing.T) {
		a, err := Normalize(Account{ID: 1, Login: "bob", Email: "bob@example.com\r\nBcc: evil@example.com"})
		require.NoError(t, err)
		assert.Empty(t, a.Email)
	})

	t.Run("unparsable registration kept raw", func(t *testing.T) {
		a, err := Normalize(Account{ID: 1, Login: "bob", RegisteredRaw: "yesterday"})
		require.NoError(t, err)
		assert.False(t, a.RegisteredValid())
		assert.Equal(t, "yesterday", a.RegisteredRaw)
	})
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a.b+c@example.co.uk"))
	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("no-at-sign"))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("a@b.c, d@e.f"))
}
