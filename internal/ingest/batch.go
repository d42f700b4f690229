package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/joseph-ayodele/payables-tracker/internal/async"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/pipeline"
)

// Processor is the slice of pipeline.Processor a batch needs.
type Processor interface {
	ProcessInvoice(ctx context.Context, pdf []byte) pipeline.ProcessResult
	ReconcileAndPersist(ctx context.Context, inv *invoice.Invoice, labels []string) pipeline.SaveResult
}

type BatchOptions struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	Save       bool // reconcile and persist every extracted invoice
}

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	File    File
	Process pipeline.ProcessResult
	Save    *pipeline.SaveResult
	Skipped bool // duplicate content, not processed
}

// OK reports whether every stage that ran succeeded.
func (r FileResult) OK() bool {
	if r.Skipped {
		return true
	}
	return r.Process.Success && (r.Save == nil || r.Save.Success)
}

// RunBatch processes files on a worker pool and returns one result per file,
// in input order. Duplicates are skipped. Each file is an independent
// invocation; a failure never stops the batch.
func RunBatch(ctx context.Context, files []File, proc Processor, opts BatchOptions, logger *slog.Logger) ([]FileResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]FileResult, len(files))
	index := make(map[string]int, len(files))
	var mu sync.Mutex

	pool := async.NewPool(func(ctx context.Context, job async.Job) error {
		mu.Lock()
		i := index[job.Path]
		mu.Unlock()

		res := processFile(ctx, files[i], proc, opts.Save)

		mu.Lock()
		results[i] = res
		mu.Unlock()
		if !res.OK() {
			return fmt.Errorf("%s: %s", job.Path, firstError(res))
		}
		return nil
	}, logger, async.WithWorkers(opts.Workers), async.WithQueueSize(opts.QueueSize), async.WithJobTimeout(opts.JobTimeout))

	var enqueueErr error
	for i, f := range files {
		results[i].File = f
		if f.Duplicate {
			results[i].Skipped = true
			logger.Info("ingest.batch.duplicate", "path", f.Path, "hash", f.HashHex)
			continue
		}
		mu.Lock()
		index[f.Path] = i
		mu.Unlock()
		if err := pool.Enqueue(ctx, async.Job{Path: f.Path}); err != nil {
			enqueueErr = fmt.Errorf("enqueue %s: %w", f.Path, err)
			break
		}
	}
	pool.Shutdown(context.WithoutCancel(ctx))
	return results, enqueueErr
}

func processFile(ctx context.Context, f File, proc Processor, save bool) FileResult {
	out := FileResult{File: f}
	pdf, err := os.ReadFile(f.Path)
	if err != nil {
		out.Process = pipeline.ProcessResult{Error: err.Error()}
		return out
	}
	out.Process = proc.ProcessInvoice(ctx, pdf)
	if !out.Process.Success || !save {
		return out
	}
	saved := proc.ReconcileAndPersist(ctx, out.Process.Invoice, nil)
	out.Save = &saved
	return out
}

func firstError(r FileResult) string {
	if r.Process.Error != "" {
		return r.Process.Error
	}
	if r.Save != nil {
		return r.Save.Error
	}
	return "unknown failure"
}

// Summarize counts the outcomes of a batch.
func Summarize(results []FileResult) (ok, failed, skipped int) {
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.OK():
			ok++
		default:
			failed++
		}
	}
	return ok, failed, skipped
}
