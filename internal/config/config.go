package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes TOML bytes, applies defaults, expands ${VAR} references and
// finally applies SUBPURGE_* environment overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandEnvVars(&cfg)

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &cfg, nil
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() []error {
	var errs []error

	if c.Site.Name == "" {
		errs = append(errs, fmt.Errorf("site.name is required"))
	}
	if c.Site.AdminEmail == "" {
		errs = append(errs, fmt.Errorf("site.admin_email is required"))
	} else if !looksLikeEmail(c.Site.AdminEmail) {
		errs = append(errs, fmt.Errorf("invalid site.admin_email: %s", c.Site.AdminEmail))
	}
	if c.Site.TargetRole == "" {
		errs = append(errs, fmt.Errorf("site.target_role is required"))
	}

	errs = append(errs, validateLogging(c.Logging)...)

	if err := validatePath(c.Data.Dir, "data.dir"); err != nil {
		errs = append(errs, err)
	}

	errs = append(errs, validateDatabase(c.Database)...)
	errs = append(errs, validateSettings(c.Settings)...)
	errs = append(errs, validateScheduler(c.Scheduler)...)

	if c.Purge.Timeout < 0 {
		errs = append(errs, fmt.Errorf("purge.timeout must not be negative"))
	}

	errs = append(errs, validateLock(c.Lock)...)

	if c.Settings.Backend == "redis" || c.Lock.Backend == "redis" {
		if c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis.addr is required when a redis backend is selected"))
		}
	}

	errs = append(errs, validateMail(c.Mail)...)

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.Token == "" {
			errs = append(errs, fmt.Errorf("notify.telegram.token is required when telegram is enabled"))
		} else if err := validateTelegramToken(c.Notify.Telegram.Token); err != nil {
			errs = append(errs, err)
		}
		if c.Notify.Telegram.ChatID == 0 {
			errs = append(errs, fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled"))
		}
	}

	if c.AdminAPI.Enabled && c.AdminAPI.Listen == "" {
		errs = append(errs, fmt.Errorf("admin_api.listen is required when admin_api is enabled"))
	}

	return errs
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) {
	for _, field := range []*string{
		&c.Site.AdminEmail,
		&c.Database.DSN,
		&c.Redis.Addr,
		&c.Redis.Password,
		&c.Mail.Host,
		&c.Mail.Username,
		&c.Mail.Password,
		&c.Mail.From,
		&c.Notify.Telegram.Token,
		&c.Data.Dir,
	} {
		if strings.HasPrefix(*field, "${") {
			*field = expandEnv(*field)
		}
	}

	c.Data.Dir = expandHome(c.Data.Dir)
	c.Settings.Path = expandHome(c.Settings.Path)
	if c.Database.Driver == "sqlite" {
		c.Database.DSN = expandHome(c.Database.DSN)
	}
}

// expandEnv расширяет переменную окружения формата ${VAR:default}
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		if val := os.Getenv(parts[0]); val != "" {
			return val
		}
		return parts[1]
	}

	return os.Getenv(content)
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
