// Package payables handles classification, scheduling and settlement of
// accounts payable after they were reconciled.
package payables

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
	"github.com/joseph-ayodele/payables-tracker/internal/repository"
)

// MaxInstallments caps a reschedule.
const MaxInstallments = 120

type Service struct {
	store    *repository.Store
	taxonomy *constants.Taxonomy
	logger   *slog.Logger
}

func NewService(store *repository.Store, taxonomy *constants.Taxonomy, logger *slog.Logger) *Service {
	if taxonomy == nil {
		taxonomy = constants.DefaultTaxonomy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, taxonomy: taxonomy, logger: logger}
}

// ListPayables returns payables issued inside the optional window.
func (s *Service) ListPayables(ctx context.Context, from, to *civil.Date) ([]*entity.PayableSummary, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, common.InvalidArgumentError("to_date must not be before from_date")
	}
	out, err := s.store.Repos().Payables.List(ctx, from, to)
	if err != nil {
		return nil, common.ToStatus(err, "list payables")
	}
	return out, nil
}

// AddClassifications links the payable to each label, resolved against the
// taxonomy. Existing links are kept. It returns the payable's categories.
func (s *Service) AddClassifications(ctx context.Context, payableID string, labels []string) ([]string, error) {
	id, err := parseID("payable_id", payableID)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, common.InvalidArgumentError("at least one label is required")
	}

	var names []string
	err = s.store.WithTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if _, err := r.Payables.Get(ctx, id); err != nil {
			return err
		}
		for _, label := range labels {
			if strings.TrimSpace(label) == "" {
				continue
			}
			name, _ := s.taxonomy.Canonicalize(label)
			def, _ := s.taxonomy.Lookup(name)
			cat, _, err := r.Categories.CreateOrGet(ctx, entity.Category{Name: string(name), Description: def.Description()})
			if err != nil {
				return err
			}
			if _, err := r.Payables.AddClassification(ctx, id, cat.ID); err != nil {
				return err
			}
		}
		names, err = r.Payables.Classifications(ctx, id)
		return err
	})
	if err != nil {
		return nil, common.ToStatus(err, "add classifications")
	}
	s.logger.Info("payables.classifications.added", "payable_id", id, "categories", names)
	return names, nil
}

type RescheduleRequest struct {
	PayableID      string
	Installments   int
	FirstDue       civil.Date
	IntervalMonths int // defaults to 1
}

// Reschedule replaces the installment plan with n installments whose amounts
// sum exactly to the payable total. It is refused once any installment was
// paid.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) ([]*entity.Installment, error) {
	id, err := parseID("payable_id", req.PayableID)
	if err != nil {
		return nil, err
	}
	if req.Installments < 1 || req.Installments > MaxInstallments {
		return nil, common.InvalidArgumentErrorf("installments must be between 1 and %d", MaxInstallments)
	}
	if !req.FirstDue.IsValid() {
		return nil, common.InvalidArgumentError("first_due must be a valid date")
	}
	interval := req.IntervalMonths
	if interval <= 0 {
		interval = 1
	}

	var plan []*entity.Installment
	err = s.store.WithTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		p, err := r.Payables.Get(ctx, id)
		if err != nil {
			return err
		}
		current, err := r.Payables.Installments(ctx, id, false)
		if err != nil {
			return err
		}
		for _, inst := range current {
			if inst.PaidDate != nil {
				return fmt.Errorf("installment %d already paid: %w", inst.Seq, common.ErrPrecondition)
			}
		}
		if _, err := r.Payables.DeleteInstallments(ctx, id); err != nil {
			return err
		}
		for i, amount := range SplitAmount(p.Total, req.Installments) {
			inst, err := r.Payables.AddInstallment(ctx, entity.Installment{
				PayableID: id,
				Seq:       i + 1,
				DueDate:   addMonthsClamped(req.FirstDue, i*interval),
				Amount:    amount,
			})
			if err != nil {
				return err
			}
			plan = append(plan, inst)
		}
		return nil
	})
	if err != nil {
		return nil, common.ToStatus(err, "reschedule payable")
	}
	s.logger.Info("payables.rescheduled", "payable_id", id, "installments", len(plan))
	return plan, nil
}

// MarkInstallmentPaid settles one installment.
func (s *Service) MarkInstallmentPaid(ctx context.Context, installmentID string, paidDate civil.Date, amount decimal.Decimal) error {
	id, err := parseID("installment_id", installmentID)
	if err != nil {
		return err
	}
	if !paidDate.IsValid() {
		return common.InvalidArgumentError("paid_date must be a valid date")
	}
	if !amount.IsPositive() {
		return common.InvalidArgumentError("amount must be positive")
	}
	if err := s.store.Repos().Payables.MarkInstallmentPaid(ctx, id, paidDate, amount); err != nil {
		return common.ToStatus(err, "mark installment paid")
	}
	s.logger.Info("payables.installment.paid", "installment_id", id, "amount", amount.StringFixed(2))
	return nil
}

// SplitAmount divides total into n two-digit amounts. Every slice but the
// last is total/n rounded down to the cent; the last absorbs the remainder.
func SplitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		return nil
	}
	share := total.Div(decimal.NewFromInt(int64(n))).RoundFloor(2)
	out := make([]decimal.Decimal, n)
	sum := decimal.Zero
	for i := 0; i < n-1; i++ {
		out[i] = share
		sum = sum.Add(share)
	}
	out[n-1] = total.Sub(sum)
	return out
}

// addMonthsClamped moves d by n months, clamping the day to the target
// month's length.
func addMonthsClamped(d civil.Date, n int) civil.Date {
	first := civil.Date{Year: d.Year, Month: d.Month, Day: 1}.AddMonths(n)
	last := civil.DateOf(time.Date(first.Year, first.Month+1, 0, 0, 0, 0, 0, time.UTC)).Day
	if d.Day < last {
		last = d.Day
	}
	return civil.Date{Year: first.Year, Month: first.Month, Day: last}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, common.InvalidArgumentErrorf("%s must be a UUID", field)
	}
	return id, nil
}
