package server

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/services/payables"
)

func (s *PayablesService) ListPayables(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var w window
	if err := decode(req, &w); err != nil {
		return nil, err
	}
	from, to, err := w.dates()
	if err != nil {
		return nil, err
	}
	list, err := s.payables.ListPayables(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out, err := toStruct(map[string]any{"payables": list})
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

type classificationsRequest struct {
	PayableID string   `json:"payable_id"`
	Labels    []string `json:"labels"`
}

func (s *PayablesService) AddClassifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in classificationsRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	names, err := s.payables.AddClassifications(ctx, in.PayableID, in.Labels)
	if err != nil {
		return nil, err
	}
	out, err := toStruct(map[string]any{"categories": names})
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

type rescheduleRequest struct {
	PayableID      string `json:"payable_id"`
	Installments   int    `json:"installments"`
	FirstDue       string `json:"first_due"`
	IntervalMonths int    `json:"interval_months"`
}

// Reschedule replaces the installment plan of a payable with no payments.
func (s *PayablesService) Reschedule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in rescheduleRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	first, err := civil.ParseDate(in.FirstDue)
	if err != nil {
		return nil, common.InvalidArgumentError("first_due must be YYYY-MM-DD")
	}
	plan, err := s.payables.Reschedule(ctx, payables.RescheduleRequest{
		PayableID:      in.PayableID,
		Installments:   in.Installments,
		FirstDue:       first,
		IntervalMonths: in.IntervalMonths,
	})
	if err != nil {
		return nil, err
	}
	out, err := toStruct(map[string]any{"installments": plan})
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

type paymentRequest struct {
	InstallmentID string `json:"installment_id"`
	PaidDate      string `json:"paid_date"`
	Amount        string `json:"amount"`
}

func (s *PayablesService) MarkInstallmentPaid(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var in paymentRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	paid, err := civil.ParseDate(in.PaidDate)
	if err != nil {
		return nil, common.InvalidArgumentError("paid_date must be YYYY-MM-DD")
	}
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil {
		return nil, common.InvalidArgumentError("amount must be a decimal number")
	}
	if err := s.payables.MarkInstallmentPaid(ctx, in.InstallmentID, paid, amount); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}
