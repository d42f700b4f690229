package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/server"
)

// seed-categories inserts every taxonomy category that is not stored yet.
func main() {
	_ = godotenv.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}
	store, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer store.Close()

	n, err := store.Repos().Categories.SeedCategories(ctx, constants.DefaultTaxonomy())
	if err != nil {
		logger.Error("seed categories", "error", err)
		os.Exit(1)
	}
	logger.Info("categories seeded", "inserted", n, "total", len(constants.DefaultTaxonomy().Categories()))
}
