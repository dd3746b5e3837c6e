package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	tests := []struct {
		name  string
		field string
		want  string
		got   string
	}{
		{"site name", "site.name", DefaultSiteName, cfg.Site.Name},
		{"target role", "site.target_role", "subscriber", cfg.Site.TargetRole},
		{"locale", "site.locale", "en", cfg.Site.Locale},
		{"logging level", "logging.level", "info", cfg.Logging.Level},
		{"logging format", "logging.format", "json", cfg.Logging.Format},
		{"logging output", "logging.output", "stdout", cfg.Logging.Output},
		{"database driver", "database.driver", "sqlite", cfg.Database.Driver},
		{"settings backend", "settings.backend", "file", cfg.Settings.Backend},
		{"job name", "scheduler.job_name", DefaultJobName, cfg.Scheduler.JobName},
		{"lock backend", "lock.backend", "local", cfg.Lock.Backend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %s = %s, got %s", tt.field, tt.want, tt.got)
			}
		})
	}

	if cfg.Scheduler.Interval != 15*time.Minute {
		t.Errorf("Expected scheduler.interval = 15m, got %s", cfg.Scheduler.Interval)
	}
	if cfg.Mail.Port != 587 {
		t.Errorf("Expected mail.port = 587, got %d", cfg.Mail.Port)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[site]
name = "Example Blog"
admin_email = "admin@example.com"

[data]
dir = "` + dir + `"

[scheduler]
interval = "30m"

[purge]
timeout = "45s"

[mail]
enabled = true
host = "smtp.example.com"
from = "noreply@example.com"
password = "${SUBPURGE_TEST_SMTP_PASSWORD:fallback-secret}"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Site.Name != "Example Blog" {
		t.Errorf("site.name = %q", cfg.Site.Name)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Errorf("scheduler.interval = %s, want 30m", cfg.Scheduler.Interval)
	}
	if cfg.Purge.Timeout != 45*time.Second {
		t.Errorf("purge.timeout = %s, want 45s", cfg.Purge.Timeout)
	}
	if cfg.Mail.Password != "fallback-secret" {
		t.Errorf("mail.password = %q, want default from ${VAR:default}", cfg.Mail.Password)
	}
	if got := cfg.SettingsPath(); got != filepath.Join(dir, DefaultSettingsPath) {
		t.Errorf("SettingsPath() = %q", got)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("expected valid config, got %v", errs)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := Parse([]byte("[site\nname=")); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Site: SiteConfig{AdminEmail: "admin@example.com"}}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing admin email", mutate: func(c *Config) { c.Site.AdminEmail = "" }, wantErr: "site.admin_email is required"},
		{name: "bad admin email", mutate: func(c *Config) { c.Site.AdminEmail = "nobody" }, wantErr: "invalid site.admin_email"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "invalid logging.level"},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "invalid database.driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }, wantErr: "database.dsn is required"},
		{name: "bad settings backend", mutate: func(c *Config) { c.Settings.Backend = "etcd" }, wantErr: "invalid settings.backend"},
		{name: "interval too short", mutate: func(c *Config) { c.Scheduler.Interval = time.Second }, wantErr: "scheduler.interval must be at least 1m"},
		{name: "bad timezone", mutate: func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, wantErr: "invalid scheduler.timezone"},
		{name: "bad lock backend", mutate: func(c *Config) { c.Lock.Backend = "zookeeper" }, wantErr: "invalid lock.backend"},
		{name: "mail without host", mutate: func(c *Config) { c.Mail.Enabled = true; c.Mail.From = "a@b.c" }, wantErr: "mail.host is required"},
		{name: "mail user without password", mutate: func(c *Config) {
			c.Mail = MailConfig{Enabled: true, Host: "smtp", Port: 25, From: "a@b.c", Username: "u"}
		}, wantErr: "mail.password: required"},
		{name: "telegram bad token", mutate: func(c *Config) {
			c.Notify.Telegram = TelegramConfig{Enabled: true, Token: "nocolon", ChatID: 1}
		}, wantErr: "telegram token has invalid format"},
		{name: "telegram missing chat", mutate: func(c *Config) {
			c.Notify.Telegram = TelegramConfig{Enabled: true, Token: "123456:abcdefghijklmnop"}
		}, wantErr: "notify.telegram.chat_id is required"},
		{name: "path traversal", mutate: func(c *Config) { c.Data.Dir = "/var/../etc" }, wantErr: "path traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			errs := cfg.Validate()

			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}

			found := false
			for _, e := range errs {
				if strings.Contains(e.Error(), tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, errs)
			}
		})
	}
}

func TestMaskDSN(t *testing.T) {
	masked := MaskDSN("postgres://app:hunter2@db:5432/site")
	if strings.Contains(masked, "hunter2") {
		t.Errorf("password leaked: %q", masked)
	}
	if !strings.HasPrefix(masked, "postgres://app:") || !strings.HasSuffix(masked, "@db:5432/site") {
		t.Errorf("unexpected masked DSN: %q", masked)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"postgres://db:5432/site", "postgres://db:5432/site"},
		{"host=db user=app password=hunter2", "host=db user=app password=***"},
		{"/var/lib/subpurge.db", "/var/lib/subpurge.db"},
	}
	for _, tt := range tests {
		if got := MaskDSN(tt.in); got != tt.want {
			t.Errorf("MaskDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Mail.Password = "supersecretpassword"
	cfg.Notify.Telegram.Token = "123456:abcdefghijklmnop"

	r := cfg.Redacted()
	if strings.Contains(r.Mail.Password, "secret") {
		t.Errorf("mail password not masked: %q", r.Mail.Password)
	}
	if !strings.HasPrefix(r.Notify.Telegram.Token, "123456:") || strings.Contains(r.Notify.Telegram.Token, "efghijkl") {
		t.Errorf("telegram token not masked: %q", r.Notify.Telegram.Token)
	}
	if cfg.Mail.Password != "supersecretpassword" {
		t.Error("Redacted() must not modify the original")
	}
}
