package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payables-tracker/internal/entity"
)

type stubLister struct {
	rows     []*entity.PayableSummary
	from, to *civil.Date
}

func (s *stubLister) List(_ context.Context, from, to *civil.Date) ([]*entity.PayableSummary, error) {
	s.from, s.to = from, to
	return s.rows, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestExportWritesOneRowPerPayable(t *testing.T) {
	due := civil.Date{Year: 2025, Month: time.April, Day: 10}
	lister := &stubLister{rows: []*entity.PayableSummary{{
		Payable: entity.Payable{
			DocumentNumber: "4711",
			IssueDate:      civil.Date{Year: 2025, Month: time.March, Day: 10},
			Description:    "Óleo Diesel S10",
			Total:          decimal.RequireFromString("1234.56"),
		},
		SupplierName:    "Posto Rio Verde LTDA",
		SupplierTaxID:   "12.345.678/0001-90",
		BilledPartyName: "João da Silva",
		Categories:      []string{"MANUTENÇÃO E OPERAÇÃO"},
		Installments:    1,
		NextDueDate:     &due,
		Outstanding:     decimal.RequireFromString("1234.56"),
	}}}

	out, err := NewService(lister, quiet()).ExportPayablesXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Nil(t, lister.from)
	require.Nil(t, lister.to)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, headers, rows[0])
	require.Equal(t, []string{
		"2025-03-10", "4711", "Posto Rio Verde LTDA", "12.345.678/0001-90", "João da Silva",
		"MANUTENÇÃO E OPERAÇÃO", "Óleo Diesel S10", "1234.56", "1", "2025-04-10", "1234.56",
	}, rows[1])
}

func TestExportWindowDefaultsToToday(t *testing.T) {
	lister := &stubLister{}
	svc := NewService(lister, quiet())
	svc.today = func() civil.Date { return civil.Date{Year: 2025, Month: time.June, Day: 1} }

	from := civil.Date{Year: 2025, Month: time.January, Day: 1}
	_, err := svc.ExportPayablesXLSX(context.Background(), &from, nil)
	require.NoError(t, err)
	require.Equal(t, "2025-06-01", lister.to.String())

	to := civil.Date{Year: 2024, Month: time.December, Day: 31}
	_, err = svc.ExportPayablesXLSX(context.Background(), &from, &to)
	require.Error(t, err)
}
