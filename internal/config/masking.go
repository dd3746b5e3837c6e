package config

import (
	"net/url"
	"strings"
)

// maskSecret маскирует секрет, оставляя только первые 4 и последние 4 символа
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 8 {
		return "***"
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}

// maskTelegramToken keeps the bot id visible for diagnostics.
func maskTelegramToken(token string) string {
	if token == "" {
		return ""
	}
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return maskSecret(token)
	}
	return parts[0] + ":" + maskSecret(parts[1])
}

// MaskDSN hides the password of a URL-style DSN. Non-URL DSNs (sqlite paths,
// key=value strings) are returned with any password=... value masked.
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "***")
			return u.String()
		}
		return dsn
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}

// Redacted returns a copy of the configuration safe to print or log.
func (c *Config) Redacted() Config {
	out := *c
	out.Database.DSN = MaskDSN(c.Database.DSN)
	out.Redis.Password = maskSecret(c.Redis.Password)
	out.Mail.Password = maskSecret(c.Mail.Password)
	out.Notify.Telegram.Token = maskTelegramToken(c.Notify.Telegram.Token)
	return out
}

// formatValidationError форматирует ошибку валидации с маскированными секретами
func formatValidationError(field, message string, secret string) error {
	errorMsg := field + ": " + message
	if masked := maskSecret(secret); masked != "" {
		errorMsg += " (value: " + masked + ")"
	}
	return &ValidationError{Field: field, Message: errorMsg}
}

// ValidationError представляет ошибку валидации с дополнительной информацией
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
