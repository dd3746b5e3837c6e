package config

import "time"

// Defaults for the service configuration.
const (
	DefaultSiteName         = "My Site"
	DefaultLocale           = "en"
	DefaultTargetRole       = "subscriber"
	DefaultDataDir          = "~/.subpurge"
	DefaultDatabaseDriver   = "sqlite"
	DefaultDatabaseDSN      = "subpurge.db"
	DefaultDatabaseSchema   = "public"
	DefaultSettingsBackend  = "file"
	DefaultSettingsPath     = "settings.yaml"
	DefaultSettingsRedisKey = "subpurge:settings"
	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultJobName          = "subpurge_purge_subscribers"
	DefaultInterval         = 15 * time.Minute
	DefaultPurgeTimeout     = 2 * time.Minute
	DefaultLockBackend      = "local"
	DefaultLockKey          = "subpurge:lock:purge"
	DefaultLockTTL          = 5 * time.Minute
	DefaultSMTPPort         = 587
	DefaultAdminListen      = "127.0.0.1:8088"
)

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Site.Name == "" {
		c.Site.Name = DefaultSiteName
	}
	if c.Site.Locale == "" {
		c.Site.Locale = DefaultLocale
	}
	if c.Site.TargetRole == "" {
		c.Site.TargetRole = DefaultTargetRole
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Data.Dir == "" {
		c.Data.Dir = DefaultDataDir
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = DefaultDatabaseDSN
	}
	if c.Database.Schema == "" {
		c.Database.Schema = DefaultDatabaseSchema
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 4
	}

	if c.Settings.Backend == "" {
		c.Settings.Backend = DefaultSettingsBackend
	}
	if c.Settings.Path == "" {
		c.Settings.Path = DefaultSettingsPath
	}
	if c.Settings.RedisKey == "" {
		c.Settings.RedisKey = DefaultSettingsRedisKey
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}

	if c.Scheduler.JobName == "" {
		c.Scheduler.JobName = DefaultJobName
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = DefaultInterval
	}

	if c.Purge.Timeout == 0 {
		c.Purge.Timeout = DefaultPurgeTimeout
	}

	if c.Lock.Backend == "" {
		c.Lock.Backend = DefaultLockBackend
	}
	if c.Lock.Key == "" {
		c.Lock.Key = DefaultLockKey
	}
	if c.Lock.TTL == 0 {
		c.Lock.TTL = DefaultLockTTL
	}

	if c.Mail.Port == 0 {
		c.Mail.Port = DefaultSMTPPort
	}

	if c.AdminAPI.Listen == "" {
		c.AdminAPI.Listen = DefaultAdminListen
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	return cfg
}
