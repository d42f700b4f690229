// Package textextract turns invoice PDF bytes into page-ordered plain text.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	BackendPDFReader = "pdf"
	BackendPoppler   = "pdftotext"
	BackendOCR       = "ocr"
)

// Extractor is the first pipeline stage: PDF bytes -> text.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (Result, error)
}

type Result struct {
	Text     string
	Pages    int
	Method   string // BackendPDFReader | BackendPoppler | BackendOCR
	Duration time.Duration
	Warnings []string
}

// ExtractionError reports a stream that could not be parsed as a PDF.
type ExtractionError struct {
	Method string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction (%s): %v", e.Method, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type Config struct {
	Backend     string // BackendPDFReader (default), BackendPoppler or BackendOCR
	Pdftotext   string // binary name or absolute path; if empty -> "pdftotext"
	OCRFallback bool   // run OCR when the text layer is empty
	OCR         OCRConfig
}

// New returns the extractor selected by cfg.Backend.
func New(cfg Config, logger *slog.Logger) (Extractor, error) {
	var ex Extractor
	switch cfg.Backend {
	case "", BackendPDFReader:
		ex = NewPDFReader(logger)
	case BackendPoppler:
		ex = NewPoppler(cfg.Pdftotext, nil, logger)
	case BackendOCR:
		return NewOCR(cfg.OCR, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown text extractor backend %q", cfg.Backend)
	}
	if cfg.OCRFallback {
		ex = WithOCRFallback(ex, NewOCR(cfg.OCR, nil, logger), logger)
	}
	return ex, nil
}
