// Package config provides configuration loading and validation for subpurge.
// It supports TOML configuration files with environment variable expansion,
// default values, SUBPURGE_* environment overrides and validation.
//
// Configuration structure:
//   - [site]: Site name, administrator address, locale and the purged role
//   - [logging]: Logging level, format, and output
//   - [data]: Directory for local state (settings file, scheduler registry)
//   - [database]: Account store driver and DSN
//   - [settings]: Where the purge settings record is persisted
//   - [redis]: Redis connection shared by the settings backend and lock
//   - [scheduler]: Purge job name and interval
//   - [purge]: Per-cycle timeout
//   - [lock]: Single-flight guard for overlapping cycles
//   - [mail]: SMTP transport
//   - [notify.telegram]: Optional Telegram relay for admin notices
//   - [admin_api]: JSON admin API and /metrics
//
// Environment variables:
// Values can reference variables using ${VAR} or ${VAR:default} syntax.
// For example: password = "${SMTP_PASSWORD}"
package config

import (
	"path/filepath"
	"time"
)

// Config represents the main application configuration.
type Config struct {
	Site      SiteConfig      `toml:"site"`
	Logging   LoggingConfig   `toml:"logging"`
	Data      DataConfig      `toml:"data"`
	Database  DatabaseConfig  `toml:"database"`
	Settings  SettingsConfig  `toml:"settings"`
	Redis     RedisConfig     `toml:"redis"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Purge     PurgeConfig     `toml:"purge"`
	Lock      LockConfig      `toml:"lock"`
	Mail      MailConfig      `toml:"mail"`
	Notify    NotifyConfig    `toml:"notify"`
	AdminAPI  AdminAPIConfig  `toml:"admin_api"`
}

// SiteConfig describes the site whose accounts are purged.
type SiteConfig struct {
	Name       string `toml:"name"`
	AdminEmail string `toml:"admin_email"`
	Locale     string `toml:"locale"`
	TargetRole string `toml:"target_role"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// DataConfig points at the local state directory.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// DatabaseConfig selects the account store.
type DatabaseConfig struct {
	Driver   string `toml:"driver"` // memory, sqlite, postgres
	DSN      string `toml:"dsn"`
	Schema   string `toml:"schema"`
	MaxConns int32  `toml:"max_conns"`
}

// SettingsConfig selects where the purge settings record lives.
type SettingsConfig struct {
	Backend  string `toml:"backend"` // file, redis, memory
	Path     string `toml:"path"`
	RedisKey string `toml:"redis_key"`
}

// RedisConfig представляет подключение к Redis
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// SchedulerConfig configures the recurring purge job.
type SchedulerConfig struct {
	JobName  string        `toml:"job_name"`
	Interval time.Duration `toml:"interval"`
	Timezone string        `toml:"timezone"`
}

// PurgeConfig bounds a single cycle.
type PurgeConfig struct {
	Timeout time.Duration `toml:"timeout"`
}

// LockConfig configures mutual exclusion between overlapping cycles.
type LockConfig struct {
	Backend string        `toml:"backend"` // local, redis
	Key     string        `toml:"key"`
	TTL     time.Duration `toml:"ttl"`
}

// MailConfig представляет конфигурацию SMTP
type MailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	Attempts int    `toml:"attempts"`
}

// NotifyConfig groups optional extra notification channels.
type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

// TelegramConfig relays admin notices to a Telegram chat.
type TelegramConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
	ChatID  int64  `toml:"chat_id"`
}

// AdminAPIConfig configures the JSON admin API.
type AdminAPIConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

const (
	// CronSubdirectory holds the persisted scheduler registry inside the data dir.
	CronSubdirectory = "cron"
)

// CronDir возвращает путь к директории реестра заданий
func (c *Config) CronDir() string {
	return filepath.Join(c.Data.Dir, CronSubdirectory)
}

// SettingsPath returns the settings file location, relative paths resolved against the data dir.
func (c *Config) SettingsPath() string {
	if filepath.IsAbs(c.Settings.Path) {
		return c.Settings.Path
	}
	return filepath.Join(c.Data.Dir, c.Settings.Path)
}
