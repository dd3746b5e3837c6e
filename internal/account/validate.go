package account

import (
	"fmt"
	"strings"

	"github.com/wasilibs/go-re2"
	"golang.org/x/text/unicode/norm"
)

// MaxLoginLength matches the login column width of common user stores.
const MaxLoginLength = 60

var (
	// Достаточно строгий, чтобы не пропустить переводы строк и списки адресов.
	emailPattern = re2.MustCompile(`^[^\s@<>,;:"()\[\]]+@[^\s@<>,;:"()\[\]]+\.[^\s@<>,;:"()\[\]]+$`)

	// Zero-width and soft-hyphen characters are stripped from logins.
	invisiblePattern = re2.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}]`)

	controlPattern = re2.MustCompile(`[\p{Cc}]+`)
)

// ValidEmail reports whether s is a single, header-safe mailbox address.
func ValidEmail(s string) bool {
	return s != "" && len(s) <= 254 && emailPattern.MatchString(s)
}

// Normalize validates a record entering from a store and returns the typed
// account. Only a non-positive id rejects the record. The login is cleaned for
// display but never rejected, so an odd login cannot keep an account out of
// the purge. An invalid email is cleared so that no mail is addressed to it.
func Normalize(a Account) (Account, error) {
	if a.ID <= 0 {
		return Account{}, fmt.Errorf("%w: non-positive id %d", ErrInvalidAccount, a.ID)
	}

	a.Login = cleanLogin(a.Login)

	a.Email = norm.NFC.String(strings.TrimSpace(a.Email))
	if !ValidEmail(a.Email) {
		a.Email = ""
	}

	a.Roles = normalizeRoles(a.Roles)

	if a.Registered.IsZero() && a.RegisteredRaw != "" {
		a.Registered = ParseRegistered(a.RegisteredRaw)
	}
	if !a.Registered.IsZero() {
		a.Registered = a.Registered.UTC()
	}
	return a, nil
}

// cleanLogin drops invisible characters, replaces control characters with a
// space, NFC-normalises and caps the result at MaxLoginLength runes.
func cleanLogin(s string) string {
	s = invisiblePattern.ReplaceAllString(s, "")
	s = controlPattern.ReplaceAllString(s, " ")
	s = norm.NFC.String(strings.TrimSpace(s))
	if r := []rune(s); len(r) > MaxLoginLength {
		s = strings.TrimSpace(string(r[:MaxLoginLength]))
	}
	return s
}

func normalizeRoles(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// splitRoles parses the comma-separated roles column of the SQL store.
func splitRoles(s string) []string {
	return normalizeRoles(strings.Split(s, ","))
}

func joinRoles(roles []string) string {
	return strings.Join(normalizeRoles(roles), ",")
}
