package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
)

// Create applies the schema to the database behind drv. It is additive:
// columns and indexes are never dropped.
func Create(ctx context.Context, drv dialect.Driver, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	m, err := schema.NewMigrate(drv, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		logger.Error("db.migrate.failed", "dialect", drv.Dialect(), "error", err)
		return fmt.Errorf("migrate: create: %w", err)
	}
	logger.Info("db.migrate.ok",
		"dialect", drv.Dialect(),
		"tables", len(Tables),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
