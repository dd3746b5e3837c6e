// Package notify formats and dispatches the two purge notices: the deletion
// notice sent to the affected user and the summary sent to the administrator.
package notify

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aatumaykin/subpurge/internal/account"
	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/settings"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownRegistration replaces a registration date that could not be parsed.
const UnknownRegistration = "Unknown"

// AdminDateLayout formats the registration date in the admin notice.
const AdminDateLayout = "2006-01-02 15:04:05"

// Mailer dispatches one plain-text message. It reports failure through the
// return value and never panics.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) bool
}

// Site identifies the sending site.
type Site struct {
	Name       string
	AdminEmail string
	Locale     string
}

// Sender formats notices and hands them to a Mailer.
type Sender struct {
	mailer      Mailer
	adminMailer Mailer
	site        Site
	logger      *logger.Logger
	now         func() time.Time
	printer     *message.Printer
}

// Option configures a Sender.
type Option func(*Sender)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Sender) { s.now = now }
}

// WithAdminMailer routes admin notices through m instead of the default mailer.
func WithAdminMailer(m Mailer) Option {
	return func(s *Sender) { s.adminMailer = m }
}

// NewSender creates a sender for site.
func NewSender(mailer Mailer, site Site, log *logger.Logger, opts ...Option) *Sender {
	tag, err := language.Parse(site.Locale)
	if err != nil {
		tag = language.English
	}
	s := &Sender{
		mailer:      mailer,
		adminMailer: mailer,
		site:        site,
		logger:      log,
		now:         time.Now,
		printer:     message.NewPrinter(tag),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserNotice builds the user-facing deletion notice.
func (s *Sender) UserNotice(acct account.Account, st settings.Settings) (subject, body string) {
	site := cleanHeader(s.site.Name)
	subject = fmt.Sprintf("Your account on %s has been deleted", site)
	body = s.printer.Sprintf(
		"Hello %s,\n\n"+
			"Your account on %s has been deleted because it had not been active for %s days and had no comments.\n\n"+
			"This helps us maintain the quality of our community.\n\n"+
			"Best regards,\n%s",
		acct.Login, s.site.Name, strconv.Itoa(st.DaysInactive), s.site.Name)
	return subject, body
}

// AdminNotice builds the administrator summary. An unparsable registration
// time is reported as "Unknown" with 0 days since registration.
func (s *Sender) AdminNotice(acct account.Account, st settings.Settings) (subject, body string) {
	registered := UnknownRegistration
	daysSince := 0
	if acct.RegisteredValid() {
		registered = acct.Registered.UTC().Format(AdminDateLayout)
		daysSince = int(math.Floor(s.now().Sub(acct.Registered).Hours() / 24))
		if daysSince < 0 {
			daysSince = 0
		}
	}

	subject = fmt.Sprintf("[%s] User Account Purged", cleanHeader(s.site.Name))
	body = s.printer.Sprintf(
		"A subscriber account has been purged from %s.\n\n"+
			"User Details:\n"+
			"- Username: %s\n"+
			"- Email: %s\n"+
			"- User ID: %s\n"+
			"- Registered: %s\n"+
			"- Days Since Registration: %s\n"+
			"- Inactivity Threshold: %s days\n"+
			"- Comment Count: 0\n\n"+
			"This account was automatically deleted because it had no comments and exceeded the inactivity threshold.\n\n"+
			"---\n"+
			"This is an automated notification from %s.",
		s.site.Name, acct.Login, acct.Email, strconv.FormatInt(acct.ID, 10),
		registered, strconv.Itoa(daysSince), strconv.Itoa(st.DaysInactive), constants.AppTitle)
	return subject, body
}

// SendUserDeletionNotice mails the user notice to the account address.
func (s *Sender) SendUserDeletionNotice(ctx context.Context, acct account.Account, st settings.Settings) bool {
	if acct.Email == "" {
		s.logger.WarnCtx(ctx, "account has no usable email, user notice not sent",
			logger.Field{Key: "account_id", Value: acct.ID})
		return false
	}
	subject, body := s.UserNotice(acct, st)
	return s.dispatch(ctx, s.mailer, "user", acct, acct.Email, subject, body)
}

// SendAdminNotice mails the administrator summary.
func (s *Sender) SendAdminNotice(ctx context.Context, acct account.Account, st settings.Settings) bool {
	if s.site.AdminEmail == "" {
		s.logger.WarnCtx(ctx, "no administrator address configured, admin notice not sent",
			logger.Field{Key: "account_id", Value: acct.ID})
		return false
	}
	subject, body := s.AdminNotice(acct, st)
	return s.dispatch(ctx, s.adminMailer, "admin", acct, s.site.AdminEmail, subject, body)
}

func (s *Sender) dispatch(ctx context.Context, m Mailer, kind string, acct account.Account, to, subject, body string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorCtx(ctx, "mailer panicked", fmt.Errorf("%v", r),
				logger.Field{Key: "kind", Value: kind},
				logger.Field{Key: "account_id", Value: acct.ID})
			ok = false
		}
	}()

	ok = m.SendMail(ctx, cleanHeader(to), cleanHeader(subject), body)
	if !ok {
		s.logger.WarnCtx(ctx, "notice dispatch failed",
			logger.Field{Key: "kind", Value: kind},
			logger.Field{Key: "account_id", Value: acct.ID})
		return false
	}
	s.logger.DebugCtx(ctx, "notice sent",
		logger.Field{Key: "kind", Value: kind},
		logger.Field{Key: "account_id", Value: acct.ID})
	return true
}

// cleanHeader removes CR and LF so header values cannot inject new headers.
func cleanHeader(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", "", "\n", " ").Replace(s))
}
