package builders

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aatumaykin/subpurge/internal/config"
	"github.com/aatumaykin/subpurge/internal/logger"
	"github.com/aatumaykin/subpurge/internal/settings"
)

type SettingsBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewSettingsBuilder(cfg *config.Config, log *logger.Logger) *SettingsBuilder {
	return &SettingsBuilder{
		config: cfg,
		logger: log,
	}
}

// Build returns the settings accessor over the configured backend. rdb is
// required only for the redis backend.
func (b *SettingsBuilder) Build(rdb *redis.Client) (*settings.Accessor, error) {
	var backend settings.Backend
	switch b.config.Settings.Backend {
	case "file":
		fb := settings.NewFileBackend(b.config.SettingsPath())
		b.logger.Info("settings stored in file", logger.Field{Key: "path", Value: fb.Path()})
		backend = fb
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("settings backend redis requires a redis client")
		}
		b.logger.Info("settings stored in redis", logger.Field{Key: "key", Value: b.config.Settings.RedisKey})
		backend = settings.NewRedisBackend(rdb, b.config.Settings.RedisKey)
	case "memory":
		b.logger.Warn("settings stored in memory, changes are lost on restart")
		backend = settings.NewMemoryBackend(nil)
	default:
		return nil, fmt.Errorf("unsupported settings backend: %s", b.config.Settings.Backend)
	}
	return settings.NewAccessor(backend, b.logger), nil
}
