package server

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// ExportPayables returns an XLSX workbook of payables issued in the window.
// Only from_date means from..today; only to_date means everything up to it.
func (s *PayablesService) ExportPayables(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	var w window
	if err := decode(req, &w); err != nil {
		return nil, err
	}
	from, to, err := w.dates()
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, common.InvalidArgumentError("to_date must not be before from_date")
	}

	xlsx, err := s.exporter.ExportPayablesXLSX(ctx, from, to)
	if err != nil {
		s.logger.Warn("export payables failed", zap.String("from", w.FromDate), zap.String("to", w.ToDate), zap.Error(err))
		return nil, common.InternalError("export payables failed")
	}
	return wrapperspb.Bytes(xlsx), nil
}
