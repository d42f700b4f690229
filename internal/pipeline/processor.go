// Package pipeline exposes the two entry points of invoice processing: turning
// a PDF into a structured invoice, and reconciling an invoice into payables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/llm"
	"github.com/joseph-ayodele/payables-tracker/internal/reconcile"
	"github.com/joseph-ayodele/payables-tracker/internal/textextract"
)

// DefaultTimeout bounds one invocation when no timeout is configured.
const DefaultTimeout = 2 * time.Minute

type InvoiceExtractor interface {
	Extract(ctx context.Context, text string) (*invoice.Invoice, error)
}

type Reconciler interface {
	ReconcileAndPersist(ctx context.Context, inv *invoice.Invoice, labels []string) (*reconcile.Result, error)
}

type ProcessResult struct {
	Success bool             `json:"success"`
	Invoice *invoice.Invoice `json:"invoice,omitempty"`
	Pages   int              `json:"pages,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type SaveResult struct {
	Success bool              `json:"success"`
	Report  string            `json:"analysis_message,omitempty"`
	Created reconcile.Created `json:"created"`
	IDs     reconcile.IDs     `json:"ids"`
	Error   string            `json:"error,omitempty"`
}

// Processor coordinates text extraction, structured extraction and
// reconciliation.
type Processor struct {
	logger     *slog.Logger
	text       textextract.Extractor
	extractor  InvoiceExtractor
	reconciler Reconciler
	timeout    time.Duration
}

func NewProcessor(logger *slog.Logger, text textextract.Extractor, extractor InvoiceExtractor, reconciler Reconciler, timeout time.Duration) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Processor{logger: logger, text: text, extractor: extractor, reconciler: reconciler, timeout: timeout}
}

// ProcessInvoice extracts the PDF text and then the structured invoice. It
// never panics; failures are reported in the result.
func (p *Processor) ProcessInvoice(ctx context.Context, pdf []byte) (res ProcessResult) {
	ctx, rid := common.EnsureRequestID(ctx)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	logger := p.logger.With("req_id", rid)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.process.panic", "panic", fmt.Sprint(r))
			res = ProcessResult{Error: "internal error while processing invoice"}
		}
	}()

	text, err := p.text.Extract(ctx, pdf)
	if err != nil {
		logger.Error("pipeline.text.failed", "err", err)
		return ProcessResult{Error: describe(err)}
	}
	logger.Info("pipeline.text.ok", "method", text.Method, "pages", text.Pages, "chars", len(text.Text))

	inv, err := p.extractor.Extract(ctx, text.Text)
	if err != nil {
		logger.Error("pipeline.extract.failed", "err", err)
		return ProcessResult{Pages: text.Pages, Error: describe(err)}
	}

	logger.Info("pipeline.process.ok", "number", inv.Number, "elapsed_ms", time.Since(start).Milliseconds())
	return ProcessResult{Success: true, Invoice: inv, Pages: text.Pages}
}

// ReconcileAndPersist reconciles inv against the master data. It never
// panics; failures are reported in the result.
func (p *Processor) ReconcileAndPersist(ctx context.Context, inv *invoice.Invoice, labels []string) (res SaveResult) {
	ctx, rid := common.EnsureRequestID(ctx)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	logger := p.logger.With("req_id", rid)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline.reconcile.panic", "panic", fmt.Sprint(r))
			res = SaveResult{Error: "internal error while saving invoice"}
		}
	}()

	out, err := p.reconciler.ReconcileAndPersist(ctx, inv, labels)
	if err != nil {
		return SaveResult{Error: describe(err)}
	}
	return SaveResult{Success: true, Report: out.Report, Created: out.Created, IDs: out.IDs}
}

// describe maps the typed pipeline errors to caller-facing messages.
func describe(err error) string {
	var (
		extractErr  *textextract.ExtractionError
		exhausted   *llm.ExhaustedError
		malformed   *invoice.MalformedResponseError
		invalid     *reconcile.ValidationError
		persistence *reconcile.PersistenceError
	)
	switch {
	case errors.As(err, &extractErr):
		return "could not extract text from PDF: " + extractErr.Error()
	case errors.Is(err, invoice.ErrEmptyText):
		return "the PDF contains no extractable text"
	case errors.As(err, &exhausted):
		return "no model provider could complete the request: " + exhausted.Error()
	case errors.As(err, &malformed):
		return "the model returned an unreadable answer"
	case errors.As(err, &invalid):
		return invalid.Error()
	case errors.As(err, &persistence):
		return "could not save invoice: " + persistence.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "processing timed out"
	default:
		return err.Error()
	}
}
