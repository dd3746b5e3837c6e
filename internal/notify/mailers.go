package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/retry"
	"github.com/google/uuid"
)

// Record is one dispatched (or attempted) message.
type Record struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	OK      bool   `json:"ok"`
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Attempts int // delivery attempts for transient failures, 0 means a single attempt
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text mail through an SMTP relay. STARTTLS is
// negotiated by net/smtp when the server offers it.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *logger.Logger
	send   sendFunc
	retry  retry.Config
	now    func() time.Time
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig, log *logger.Logger) *SMTPMailer {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	return &SMTPMailer{
		cfg:    cfg,
		logger: log,
		send:   smtp.SendMail,
		retry:  retry.Config{MaxAttempts: attempts, Logger: log},
		now:    time.Now,
	}
}

// SendMail delivers one message, retrying transient failures up to the
// configured number of attempts.
func (m *SMTPMailer) SendMail(ctx context.Context, to, subject, body string) bool {
	if err := ctx.Err(); err != nil {
		m.logger.WarnCtx(ctx, "mail not sent, context done", logger.Field{Key: "to", Value: to})
		return false
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := m.buildMessage(cleanHeader(to), cleanHeader(subject), body)
	err := retry.DoWithRetry(ctx, func() error {
		return m.send(addr, auth, m.cfg.From, []string{cleanHeader(to)}, msg)
	}, m.retry)
	if err != nil {
		m.logger.ErrorCtx(ctx, "smtp send failed", err,
			logger.Field{Key: "to", Value: to},
			logger.Field{Key: "server", Value: addr})
		return false
	}
	return true
}

func (m *SMTPMailer) buildMessage(to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", cleanHeader(m.cfg.From))
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", uuid.NewString(), m.cfg.Host)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(toCRLF(body))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func toCRLF(s string) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n':
			buf.WriteString("\r\n")
			i++
		case s[i] == '\n' || s[i] == '\r':
			buf.WriteString("\r\n")
		default:
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}

// FanoutMailer sends to every child and succeeds when at least one does.
type FanoutMailer struct {
	mailers []Mailer
}

// NewFanoutMailer combines mailers into one.
func NewFanoutMailer(mailers ...Mailer) *FanoutMailer {
	return &FanoutMailer{mailers: mailers}
}

// SendMail tries every child, even after one succeeds.
func (f *FanoutMailer) SendMail(ctx context.Context, to, subject, body string) bool {
	ok := false
	for _, m := range f.mailers {
		if m.SendMail(ctx, to, subject, body) {
			ok = true
		}
	}
	return ok
}

// RecordingMailer captures messages instead of sending them.
type RecordingMailer struct {
	mu      sync.Mutex
	records []Record
	fail    bool
}

// NewRecordingMailer creates an empty recorder that reports success.
func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{}
}

// FailAll makes subsequent sends report failure (they are still recorded).
func (r *RecordingMailer) FailAll(fail bool) {
	r.mu.Lock()
	r.fail = fail
	r.mu.Unlock()
}

// SendMail records the message and reports the configured outcome.
func (r *RecordingMailer) SendMail(ctx context.Context, to, subject, body string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := !r.fail
	r.records = append(r.records, Record{To: to, Subject: subject, Body: body, OK: ok})
	return ok
}

// Records returns a copy of everything sent so far.
func (r *RecordingMailer) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Reset clears recorded messages.
func (r *RecordingMailer) Reset() {
	r.mu.Lock()
	r.records = nil
	r.mu.Unlock()
}

// LogMailer writes messages to the log and reports success. Used when mail
// delivery is disabled.
type LogMailer struct {
	logger *logger.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

// SendMail logs the whole message at info level.
func (l *LogMailer) SendMail(ctx context.Context, to, subject, body string) bool {
	l.logger.InfoCtx(ctx, "mail delivery disabled, message logged",
		logger.Field{Key: "to", Value: to},
		logger.Field{Key: "subject", Value: subject},
		logger.Field{Key: "body", Value: body})
	return true
}
