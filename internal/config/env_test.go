package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	// Создаем временный каталог для тестов
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantEnv map[string]string
	}{
		{
			name: "valid .env file",
			content: `
# Comment line
SUBPURGE_TEST_KEY1=value1
SUBPURGE_TEST_KEY2="quoted value"

SUBPURGE_TEST_KEY3=value with spaces
`,
			wantEnv: map[string]string{
				"SUBPURGE_TEST_KEY1": "value1",
				"SUBPURGE_TEST_KEY2": "quoted value",
				"SUBPURGE_TEST_KEY3": "value with spaces",
			},
		},
		{
			name:    "empty file",
			content: "",
			wantEnv: map[string]string{},
		},
		{
			name:    "malformed lines are skipped",
			content: "NOEQUALS\n=novalue\nSUBPURGE_TEST_KEY4=ok\n",
			wantEnv: map[string]string{"SUBPURGE_TEST_KEY4": "ok"},
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k := range tt.wantEnv {
				t.Setenv(k, "")
			}

			path := filepath.Join(tmpDir, "env"+string(rune('a'+i)))
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write .env: %v", err)
			}

			if err := LoadEnv(path); err != nil {
				t.Fatalf("LoadEnv() error = %v", err)
			}

			for k, want := range tt.wantEnv {
				if got := os.Getenv(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestLoadEnv_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.env")
	if err := LoadEnv(missing); err == nil {
		t.Error("LoadEnv() expected error for missing file")
	}
	if err := LoadEnvOptional(missing); err != nil {
		t.Errorf("LoadEnvOptional() error = %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SUBPURGE_ADMIN_EMAIL", "ops@example.com")
	t.Setenv("SUBPURGE_DATABASE_DSN", "postgres://app:pw@db/site")
	t.Setenv("SUBPURGE_SMTP_PASSWORD", "from-env")
	t.Setenv("SUBPURGE_INTERVAL", "20m")

	cfg := Default()
	cfg.Site.AdminEmail = "file@example.com"
	cfg.Redis.Addr = "redis:6379"

	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides() error = %v", err)
	}

	if cfg.Site.AdminEmail != "ops@example.com" {
		t.Errorf("admin email = %q", cfg.Site.AdminEmail)
	}
	if cfg.Database.DSN != "postgres://app:pw@db/site" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Mail.Password != "from-env" {
		t.Errorf("mail password = %q", cfg.Mail.Password)
	}
	if cfg.Scheduler.Interval != 20*time.Minute {
		t.Errorf("interval = %s", cfg.Scheduler.Interval)
	}
	// unset variables keep the file value
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
}

func TestApplyEnvOverrides_BadDuration(t *testing.T) {
	t.Setenv("SUBPURGE_INTERVAL", "soon")
	if err := ApplyEnvOverrides(Default()); err == nil {
		t.Error("expected error for unparsable SUBPURGE_INTERVAL")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SUBPURGE_TEST_HOST", "mail.example.com")

	tests := []struct {
		in   string
		want string
	}{
		{"${SUBPURGE_TEST_HOST}", "mail.example.com"},
		{"${SUBPURGE_TEST_UNSET:fallback}", "fallback"},
		{"${SUBPURGE_TEST_HOST:fallback}", "mail.example.com"},
		{"plain", "plain"},
		{"${broken", "${broken"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
