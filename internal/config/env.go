package config

import (
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. SUBPURGE_DATABASE_DSN.
const EnvPrefix = "SUBPURGE"

// envOverrides lists the settings operators usually inject from the environment
// (secrets and endpoints). Unset variables leave the file value untouched.
type envOverrides struct {
	AdminEmail    string         `envconfig:"ADMIN_EMAIL"`
	LogLevel      string         `envconfig:"LOG_LEVEL"`
	DataDir       string         `envconfig:"DATA_DIR"`
	DatabaseDSN   string         `envconfig:"DATABASE_DSN"`
	RedisAddr     string         `envconfig:"REDIS_ADDR"`
	RedisPassword string         `envconfig:"REDIS_PASSWORD"`
	SMTPHost      string         `envconfig:"SMTP_HOST"`
	SMTPUsername  string         `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string         `envconfig:"SMTP_PASSWORD"`
	TelegramToken string         `envconfig:"TELEGRAM_TOKEN"`
	Interval      *time.Duration `envconfig:"INTERVAL"`
}

// ApplyEnvOverrides reads SUBPURGE_* variables and overrides matching fields.
func ApplyEnvOverrides(c *Config) error {
	var o envOverrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Site.AdminEmail, o.AdminEmail)
	set(&c.Logging.Level, o.LogLevel)
	if o.DataDir != "" {
		c.Data.Dir = expandHome(o.DataDir)
	}
	set(&c.Database.DSN, o.DatabaseDSN)
	set(&c.Redis.Addr, o.RedisAddr)
	set(&c.Redis.Password, o.RedisPassword)
	set(&c.Mail.Host, o.SMTPHost)
	set(&c.Mail.Username, o.SMTPUsername)
	set(&c.Mail.Password, o.SMTPPassword)
	set(&c.Notify.Telegram.Token, o.TelegramToken)
	if o.Interval != nil {
		c.Scheduler.Interval = *o.Interval
	}
	return nil
}

// LoadEnv загружает переменные окружения из .env файла.
// Строки формата KEY=VALUE, пустые строки и комментарии (#) пропускаются.
// Возвращает ошибку если файл не существует или не может быть прочитан.
func LoadEnv(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if key != "" {
			os.Setenv(key, value)
		}
	}

	return nil
}

// LoadEnvOptional loads the .env file only when it exists.
func LoadEnvOptional(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return LoadEnv(path)
}
