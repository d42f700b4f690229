package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payables-tracker/internal/app"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func parseDate(flagName, raw string) *civil.Date {
	if raw == "" {
		return nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		printError("Error: invalid --%s date format, use YYYY-MM-DD: %v\n", flagName, err)
		os.Exit(1)
	}
	return &d
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to process invoices from (required)")
		save    = flag.Bool("save", true, "reconcile and persist every extracted invoice")
		out     = flag.String("out", "", "output XLSX file path (optional)")
		fromStr = flag.String("from", "", "export from date YYYY-MM-DD")
		toStr   = flag.String("to", "", "export to date YYYY-MM-DD")
		workers = flag.Int("workers", 0, "worker count (defaults to BATCH_WORKERS)")
		watch   = flag.Bool("watch", false, "keep running and process new files as they appear")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	from, to := parseDate("from", *fromStr), parseDate("to", *toStr)

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	opts := ingest.BatchOptions{
		Workers:    cfg.Pipeline.BatchWorkers,
		QueueSize:  cfg.Pipeline.BatchQueueSize,
		JobTimeout: cfg.Pipeline.InvocationTimeout,
		Save:       *save,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	files, stats, err := ingest.Scan(ctx, *dir, ingest.ScanOptions{SkipHidden: true})
	if err != nil {
		logger.Error("scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("directory scanned", "scanned", stats.Scanned, "matched", stats.Matched, "duplicates", stats.Duplicates, "failed", stats.Failed)

	results, err := ingest.RunBatch(ctx, files, a.Processor, opts, logger)
	if err != nil {
		logger.Error("batch aborted", "error", err)
	}
	report(results)

	if *out != "" {
		if err := writeExport(ctx, a, *out, from, to); err != nil {
			logger.Error("export failed", "out", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "out", *out)
	}

	if *watch {
		if err := watchDir(ctx, a, *dir, opts, logger); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
	}

	if _, failed, _ := ingest.Summarize(results); failed > 0 {
		os.Exit(3)
	}
}

func report(results []ingest.FileResult) {
	for _, r := range results {
		name := filepath.Base(r.File.Path)
		switch {
		case r.Skipped:
			fmt.Printf("SKIP  %s (duplicate)\n", name)
		case !r.OK():
			msg := r.Process.Error
			if msg == "" && r.Save != nil {
				msg = r.Save.Error
			}
			fmt.Printf("FAIL  %s: %s\n", name, msg)
		default:
			fmt.Printf("OK    %s\n", name)
			if r.Save != nil && r.Save.Report != "" {
				fmt.Println(indent(r.Save.Report))
			}
		}
	}
	ok, failed, skipped := ingest.Summarize(results)
	fmt.Printf("\n%d ok, %d failed, %d skipped\n", ok, failed, skipped)
}

func indent(s string) string {
	return "      " + strings.ReplaceAll(s, "\n", "\n      ")
}

func writeExport(ctx context.Context, a *app.App, out string, from, to *civil.Date) error {
	xlsx, err := a.Export.ExportPayablesXLSX(ctx, from, to)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(out, xlsx, 0o644)
}

func watchDir(ctx context.Context, a *app.App, dir string, opts ingest.BatchOptions, logger *slog.Logger) error {
	paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{Roots: []string{dir}, Debounce: 2 * time.Second}, logger)
	if err != nil {
		return err
	}
	logger.Info("watching for new invoices", "dir", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			results, err := ingest.RunBatch(ctx, []ingest.File{{Path: p}}, a.Processor, opts, logger)
			if err != nil {
				return err
			}
			report(results)
		}
	}
}
