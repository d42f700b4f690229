package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	repo "github.com/joseph-ayodele/payables-tracker/internal/repository"
)

// ConnectDB opens the configured store, pings it and, when enabled, applies
// the schema.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.Store, error) {
	store, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if err := PingDB(ctx, store, logger, cfg.DialTimeout); err != nil {
		store.Close()
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			store.Close()
			return nil, err
		}
		logger.Info("database schema up to date")
	}
	logger.Info("successfully connected to database", "driver", store.Dialect())
	return store, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, store *repo.Store, logger *slog.Logger, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	logger.Debug("pinging database")
	if err := store.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
