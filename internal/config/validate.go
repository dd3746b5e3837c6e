package config

import (
	"fmt"
	"strings"
	"time"
)

func validateLogging(c LoggingConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Level)] {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Format)] {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Format))
	}

	if c.Output == "" {
		errs = append(errs, fmt.Errorf("logging.output is required"))
	}
	return errs
}

func validateDatabase(c DatabaseConfig) []error {
	var errs []error
	switch c.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %q", c.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid database.driver: %s (expected: memory, sqlite, postgres)", c.Driver))
	}
	if c.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("database.max_conns must not be negative"))
	}
	return errs
}

func validateSettings(c SettingsConfig) []error {
	var errs []error
	switch c.Backend {
	case "file":
		if c.Path == "" {
			errs = append(errs, fmt.Errorf("settings.path is required for the file backend"))
		}
	case "redis":
		if c.RedisKey == "" {
			errs = append(errs, fmt.Errorf("settings.redis_key is required for the redis backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("invalid settings.backend: %s (expected: file, redis, memory)", c.Backend))
	}
	return errs
}

func validateScheduler(c SchedulerConfig) []error {
	var errs []error
	if c.JobName == "" {
		errs = append(errs, fmt.Errorf("scheduler.job_name is required"))
	}
	if c.Interval < time.Minute {
		errs = append(errs, fmt.Errorf("scheduler.interval must be at least 1m (got %s)", c.Interval))
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("invalid scheduler.timezone %q: %w", c.Timezone, err))
		}
	}
	return errs
}

func validateLock(c LockConfig) []error {
	var errs []error
	switch c.Backend {
	case "local", "redis":
	default:
		errs = append(errs, fmt.Errorf("invalid lock.backend: %s (expected: local, redis)", c.Backend))
	}
	if c.TTL <= 0 {
		errs = append(errs, fmt.Errorf("lock.ttl must be positive"))
	}
	return errs
}

func validateMail(c MailConfig) []error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if c.Host == "" {
		errs = append(errs, fmt.Errorf("mail.host is required when mail is enabled"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("mail.port must be between 1 and 65535 (got %d)", c.Port))
	}
	if c.From == "" {
		errs = append(errs, fmt.Errorf("mail.from is required when mail is enabled"))
	} else if !looksLikeEmail(c.From) {
		errs = append(errs, fmt.Errorf("invalid mail.from: %s", c.From))
	}
	if c.Attempts < 0 || c.Attempts > 10 {
		errs = append(errs, fmt.Errorf("mail.attempts must be between 0 and 10 (got %d)", c.Attempts))
	}
	if c.Username != "" && c.Password == "" {
		errs = append(errs, formatValidationError("mail.password", "required when mail.username is set", ""))
	}
	return errs
}

func validateTelegramToken(token string) error {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return fmt.Errorf("telegram token has invalid format (expected format: <bot_id>:<token>, got: %s)", maskTelegramToken(token))
	}

	botID := parts[0]
	if len(botID) < 3 || len(botID) > 15 {
		return fmt.Errorf("telegram token has invalid bot ID length (expected 3-15 digits, got %d digits)", len(botID))
	}
	for _, r := range botID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram token has invalid bot ID (expected digits only, got: %s)", botID)
		}
	}

	if n := len(parts[1]); n < 10 || n > 50 {
		return fmt.Errorf("telegram token has invalid token length (expected 10-50 characters, got %d)", n)
	}
	return nil
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if strings.HasPrefix(path, "~") {
		return nil
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}
	return nil
}

// looksLikeEmail is a cheap shape check; the account boundary does the strict one.
func looksLikeEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \r\n")
}
