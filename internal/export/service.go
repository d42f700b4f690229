// Package export renders payables as XLSX workbooks.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payables-tracker/internal/entity"
)

// SheetName is the worksheet holding the payables rows.
const SheetName = "Contas a Pagar"

// PayableLister is satisfied by repository.PayableRepository.
type PayableLister interface {
	List(ctx context.Context, fromDate, toDate *civil.Date) ([]*entity.PayableSummary, error)
}

// Service produces XLSX bytes for payables exports.
type Service struct {
	payables PayableLister
	logger   *slog.Logger
	today    func() civil.Date
}

func NewService(payables PayableLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{payables: payables, logger: logger, today: func() civil.Date { return civil.DateOf(time.Now().UTC()) }}
}

var headers = []string{
	"Data de Emissão",
	"Nota Fiscal",
	"Fornecedor",
	"CNPJ",
	"Faturado",
	"Classificações",
	"Descrição",
	"Valor Total",
	"Parcelas",
	"Próximo Vencimento",
	"Em Aberto",
}

// ExportPayablesXLSX returns a workbook for payables issued in the window.
// If only from is provided the window ends today; if neither is provided
// every payable is exported.
func (s *Service) ExportPayablesXLSX(ctx context.Context, from, to *civil.Date) ([]byte, error) {
	start := time.Now()
	if from != nil && to == nil {
		today := s.today()
		to = &today
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("export window ends (%s) before it starts (%s)", to, from)
	}

	rows, err := s.payables.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query payables: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	_ = f.SetRowStyle(SheetName, 1, 1, bold)

	row := 2
	for _, p := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, p.IssueDate.String())
		write(2, p.DocumentNumber)
		write(3, p.SupplierName)
		write(4, p.SupplierTaxID)
		write(5, p.BilledPartyName)
		write(6, strings.Join(p.Categories, ", "))
		write(7, truncate(p.Description, 140))
		write(8, p.Total.InexactFloat64())
		write(9, p.Installments)
		if p.NextDueDate != nil {
			write(10, p.NextDueDate.String())
		}
		write(11, p.Outstanding.InexactFloat64())
		row++
	}
	if row > 2 {
		_ = f.SetCellStyle(SheetName, "H2", fmt.Sprintf("H%d", row-1), money)
		_ = f.SetCellStyle(SheetName, "K2", fmt.Sprintf("K%d", row-1), money)
	}

	_ = f.SetColWidth(SheetName, "A", "B", 14)
	_ = f.SetColWidth(SheetName, "C", "C", 32)
	_ = f.SetColWidth(SheetName, "D", "D", 20)
	_ = f.SetColWidth(SheetName, "E", "F", 28)
	_ = f.SetColWidth(SheetName, "G", "G", 48)
	_ = f.SetColWidth(SheetName, "H", "K", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
