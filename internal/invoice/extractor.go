package invoice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

// ErrEmptyText is returned when there is no invoice text to extract from.
var ErrEmptyText = errors.New("invoice text is empty")

// Classifier labels a product description with an expense category.
type Classifier interface {
	Classify(ctx context.Context, description string) string
}

// Extractor prompts a completer for the invoice JSON and repairs the answer.
type Extractor struct {
	completer  llm.Completer
	classifier Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClassifier attaches an expense category to every extracted invoice
// that carries a product description.
func WithClassifier(c Classifier) Option {
	return func(e *Extractor) { e.classifier = c }
}

// WithClock overrides the processed_at stamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func NewExtractor(completer llm.Completer, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{completer: completer, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the structured invoice for text. Provider exhaustion is
// returned as *llm.ExhaustedError and unparseable output as
// *MalformedResponseError.
func (e *Extractor) Extract(ctx context.Context, text string) (*Invoice, error) {
	logger := common.LoggerFrom(ctx, e.logger)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()
	raw, err := e.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		logger.Error("invoice.extract.completion_failed", "err", err)
		return nil, err
	}

	m, err := decodeObject(raw)
	if err != nil {
		logger.Warn("invoice.extract.malformed", "raw_len", len(raw), "err", err)
		return nil, err
	}
	dropped := sanitize(m, logger)

	inv, err := toInvoice(m)
	if err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	if e.classifier != nil && inv.Description != "" {
		inv.Category = e.classifier.Classify(ctx, inv.Description)
	}
	at := e.now().UTC()
	inv.ProcessedAt = &at

	logger.Info("invoice.extract.ok",
		"number", inv.Number,
		"supplier_tax_id", inv.Supplier.TaxID,
		"category", inv.Category,
		"dropped", len(dropped),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return inv, nil
}
