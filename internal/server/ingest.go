package server

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
)

// ProcessInvoice runs text and structured extraction on the PDF bytes.
// Pipeline failures are reported in the returned struct, not as a status.
func (s *PayablesService) ProcessInvoice(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error) {
	if len(req.GetValue()) == 0 {
		return nil, common.InvalidArgumentError("pdf bytes are required")
	}
	s.logger.Info("starting invoice processing", zap.Int("bytes", len(req.GetValue())))
	res := s.pipeline.ProcessInvoice(ctx, req.GetValue())
	if !res.Success {
		s.logger.Warn("invoice processing failed", zap.String("error", res.Error))
	}
	out, err := toStruct(res)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

type reconcileRequest struct {
	Invoice *invoice.Invoice `json:"invoice"`
	Labels  []string         `json:"labels"`
}

// ReconcileAndPersist saves an extracted invoice. The request carries
// "invoice" (the ProcessInvoice output) and optional "labels".
func (s *PayablesService) ReconcileAndPersist(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in reconcileRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if in.Invoice == nil {
		return nil, common.InvalidArgumentError("invoice is required")
	}
	var labels []string
	for _, l := range in.Labels {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}

	res := s.pipeline.ReconcileAndPersist(ctx, in.Invoice, labels)
	if res.Success {
		s.logger.Info("invoice saved", zap.Stringer("payable_id", res.IDs.PayableID))
	} else {
		s.logger.Warn("invoice save failed", zap.String("error", res.Error))
	}
	out, err := toStruct(res)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}
