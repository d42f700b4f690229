// Package server exposes the payables pipeline and its administration over
// gRPC as payables.v1.PayablesService.
package server

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joseph-ayodele/payables-tracker/internal/entity"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payables-tracker/internal/services/masterdata"
	"github.com/joseph-ayodele/payables-tracker/internal/services/payables"
)

// Pipeline is satisfied by *pipeline.Processor.
type Pipeline interface {
	ProcessInvoice(ctx context.Context, pdf []byte) pipeline.ProcessResult
	ReconcileAndPersist(ctx context.Context, inv *invoice.Invoice, labels []string) pipeline.SaveResult
}

// MasterData is satisfied by *masterdata.Service.
type MasterData interface {
	ListCategories(ctx context.Context, onlyActive bool) ([]*entity.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*entity.Category, error)
	SetLifecycle(ctx context.Context, kind masterdata.Kind, id, status string) error
}

// Payables is satisfied by *payables.Service.
type Payables interface {
	ListPayables(ctx context.Context, from, to *civil.Date) ([]*entity.PayableSummary, error)
	AddClassifications(ctx context.Context, payableID string, labels []string) ([]string, error)
	Reschedule(ctx context.Context, req payables.RescheduleRequest) ([]*entity.Installment, error)
	MarkInstallmentPaid(ctx context.Context, installmentID string, paidDate civil.Date, amount decimal.Decimal) error
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	ExportPayablesXLSX(ctx context.Context, from, to *civil.Date) ([]byte, error)
}

type PayablesService struct {
	pipeline   Pipeline
	masterdata MasterData
	payables   Payables
	exporter   Exporter
	logger     *zap.Logger
}

func NewPayablesService(p Pipeline, md MasterData, pay Payables, exp Exporter, logger *zap.Logger) *PayablesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayablesService{pipeline: p, masterdata: md, payables: pay, exporter: exp, logger: logger}
}
