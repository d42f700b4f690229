package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Poppler shells out to pdftotext. It handles some layouts the in-process
// reader cannot, at the cost of an external binary.
type Poppler struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

// NewPoppler builds a pdftotext extractor. A nil runner executes the real binary.
func NewPoppler(bin string, runner Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &Poppler{bin: bin, runner: runner, logger: logger}
}

func (p *Poppler) Extract(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	res := Result{Method: BackendPoppler}
	if len(data) == 0 {
		return res, &ExtractionError{Method: BackendPoppler, Err: errors.New("empty input")}
	}

	path, cleanup, err := writeTemp(data)
	if err != nil {
		return res, err
	}
	defer cleanup()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	res.Duration = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			res.Warnings = append(res.Warnings, msg)
		}
		return res, &ExtractionError{Method: BackendPoppler, Err: err}
	}

	// form feeds separate pages
	pages := strings.Split(strings.TrimRight(string(out), "\f"), "\f")
	for i := range pages {
		pages[i] = strings.TrimSpace(pages[i])
	}
	res.Pages = len(pages)
	res.Text = Normalize(strings.Join(pages, "\n"))
	p.logger.Debug("textextract.pdftotext.ok", "pages", res.Pages, "chars", len(res.Text), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

// writeTemp stores data in a temp PDF file for the external tools.
func writeTemp(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "pt-invoice-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp pdf: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp pdf: %w", err)
	}
	return path, cleanup, nil
}
