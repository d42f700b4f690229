package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/llm"
	"github.com/joseph-ayodele/payables-tracker/internal/reconcile"
	"github.com/joseph-ayodele/payables-tracker/internal/textextract"
)

type fakeText struct {
	res textextract.Result
	err error
}

func (f fakeText) Extract(context.Context, []byte) (textextract.Result, error) { return f.res, f.err }

type fakeExtractor struct {
	inv    *invoice.Invoice
	err    error
	panic  bool
	wait   bool
	gotRID string
}

func (f *fakeExtractor) Extract(ctx context.Context, _ string) (*invoice.Invoice, error) {
	f.gotRID = common.RequestIDFromContext(ctx)
	if f.panic {
		panic("boom")
	}
	if f.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.inv, f.err
}

type fakeReconciler struct {
	res *reconcile.Result
	err error
}

func (f fakeReconciler) ReconcileAndPersist(context.Context, *invoice.Invoice, []string) (*reconcile.Result, error) {
	return f.res, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func okText() fakeText {
	return fakeText{res: textextract.Result{Text: "NOTA FISCAL", Pages: 1, Method: textextract.BackendPDFReader}}
}

func TestProcessInvoiceSuccess(t *testing.T) {
	ex := &fakeExtractor{inv: &invoice.Invoice{Number: "4711"}}
	p := NewProcessor(quiet(), okText(), ex, fakeReconciler{}, time.Second)

	res := p.ProcessInvoice(context.Background(), []byte("%PDF"))
	require.True(t, res.Success)
	require.Empty(t, res.Error)
	require.Equal(t, "4711", res.Invoice.Number)
	require.Equal(t, 1, res.Pages)
	require.NotEmpty(t, ex.gotRID)
}

func TestProcessInvoiceMapsTypedErrors(t *testing.T) {
	cases := []struct {
		name string
		text fakeText
		err  error
		want string
	}{
		{"extraction", fakeText{err: &textextract.ExtractionError{Method: "pdf", Err: errors.New("not a PDF")}}, nil, "could not extract text from PDF"},
		{"empty", okText(), invoice.ErrEmptyText, "no extractable text"},
		{"exhausted", okText(), &llm.ExhaustedError{Last: errors.New("quota")}, "no model provider"},
		{"malformed", okText(), &invoice.MalformedResponseError{Raw: "x", Err: errors.New("bad")}, "unreadable answer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProcessor(quiet(), tc.text, &fakeExtractor{err: tc.err}, fakeReconciler{}, time.Second)
			res := p.ProcessInvoice(context.Background(), nil)
			require.False(t, res.Success)
			require.Nil(t, res.Invoice)
			require.Contains(t, res.Error, tc.want)
		})
	}
}

func TestProcessInvoiceRecoversFromPanic(t *testing.T) {
	p := NewProcessor(quiet(), okText(), &fakeExtractor{panic: true}, fakeReconciler{}, time.Second)
	var res ProcessResult
	require.NotPanics(t, func() { res = p.ProcessInvoice(context.Background(), nil) })
	require.False(t, res.Success)
	require.Contains(t, res.Error, "internal error")
}

func TestProcessInvoiceHonorsTimeout(t *testing.T) {
	p := NewProcessor(quiet(), okText(), &fakeExtractor{wait: true}, fakeReconciler{}, 20*time.Millisecond)
	res := p.ProcessInvoice(context.Background(), nil)
	require.False(t, res.Success)
	require.Equal(t, "processing timed out", res.Error)
}

func TestReconcileAndPersistResults(t *testing.T) {
	id := uuid.New()
	ok := NewProcessor(quiet(), okText(), &fakeExtractor{}, fakeReconciler{res: &reconcile.Result{
		Report:  "FORNECEDOR:",
		Created: reconcile.Created{Supplier: true},
		IDs:     reconcile.IDs{PayableID: id},
	}}, time.Second)
	res := ok.ReconcileAndPersist(context.Background(), &invoice.Invoice{}, nil)
	require.True(t, res.Success)
	require.Equal(t, id, res.IDs.PayableID)
	require.True(t, res.Created.Supplier)

	invalid := NewProcessor(quiet(), okText(), &fakeExtractor{}, fakeReconciler{
		err: &reconcile.ValidationError{Problems: []string{"fornecedor: missing properties: 'cnpj'"}},
	}, time.Second)
	res = invalid.ReconcileAndPersist(context.Background(), &invoice.Invoice{}, nil)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "cnpj")

	failed := NewProcessor(quiet(), okText(), &fakeExtractor{}, fakeReconciler{
		err: &reconcile.PersistenceError{Op: "payable", Err: errors.New("disk full")},
	}, time.Second)
	res = failed.ReconcileAndPersist(context.Background(), &invoice.Invoice{}, nil)
	require.False(t, res.Success)
	require.Contains(t, res.Error, "could not save invoice")
}
