package builders

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aatumaykin/subpurge/internal/account"
	"github.com/aatumaykin/subpurge/internal/config"
	"github.com/aatumaykin/subpurge/internal/logger"
)

type StoreBuilder struct {
	config *config.Config
	logger *logger.Logger
}

func NewStoreBuilder(cfg *config.Config, log *logger.Logger) *StoreBuilder {
	return &StoreBuilder{
		config: cfg,
		logger: log,
	}
}

// Build opens the account store selected by database.driver. The returned
// close func is never nil.
func (b *StoreBuilder) Build(ctx context.Context) (account.Store, func() error, error) {
	db := b.config.Database
	switch db.Driver {
	case "memory":
		b.logger.Warn("using in-memory account store, nothing will be purged from a real site")
		return account.NewMemoryStore(), func() error { return nil }, nil

	case "sqlite":
		path := b.sqlitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := account.OpenSQLite(path, b.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		b.logger.Info("account store ready",
			logger.Field{Key: "driver", Value: "sqlite"},
			logger.Field{Key: "path", Value: path})
		return store, store.Close, nil

	case "postgres":
		pool, err := account.ConnectPostgres(ctx, db.DSN, db.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres (%s): %w", config.MaskDSN(db.DSN), err)
		}
		store := account.NewPostgresStore(pool, db.Schema, b.logger)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres store: %w", err)
		}
		b.logger.Info("account store ready",
			logger.Field{Key: "driver", Value: "postgres"},
			logger.Field{Key: "dsn", Value: config.MaskDSN(db.DSN)})
		return store, func() error { pool.Close(); return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", db.Driver)
	}
}

// sqlitePath resolves a relative DSN against the data dir.
func (b *StoreBuilder) sqlitePath() string {
	dsn := b.config.Database.DSN
	if dsn == ":memory:" || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(b.config.Data.Dir, dsn)
}
