package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts embedded text in-process. Scanned pages without a text
// layer come back empty.
type PDFReader struct {
	logger *slog.Logger
}

func NewPDFReader(logger *slog.Logger) *PDFReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFReader{logger: logger}
}

func (p *PDFReader) Extract(ctx context.Context, data []byte) (res Result, err error) {
	start := time.Now()
	res.Method = BackendPDFReader
	defer func() {
		// malformed object graphs can panic deep inside the parser
		if r := recover(); r != nil {
			res = Result{Method: BackendPDFReader}
			err = &ExtractionError{Method: BackendPDFReader, Err: fmt.Errorf("parser panic: %v", r)}
		}
		res.Duration = time.Since(start)
	}()

	if len(data) == 0 {
		return res, &ExtractionError{Method: BackendPDFReader, Err: errors.New("empty input")}
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		p.logger.Warn("textextract.pdf.open_failed", "bytes", len(data), "error", err)
		return res, &ExtractionError{Method: BackendPDFReader, Err: err}
	}

	res.Pages = reader.NumPage()
	pages := make([]string, 0, res.Pages)
	for i := 1; i <= res.Pages; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: missing page object", i))
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	res.Text = Normalize(strings.Join(pages, "\n"))
	p.logger.Debug("textextract.pdf.ok",
		"pages", res.Pages,
		"chars", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
