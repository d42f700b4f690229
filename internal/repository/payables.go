package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
)

type PayableRepository interface {
	Create(ctx context.Context, p entity.Payable) (*entity.Payable, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Payable, error)
	SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error
	List(ctx context.Context, fromDate, toDate *civil.Date) ([]*entity.PayableSummary, error)

	AddInstallment(ctx context.Context, inst entity.Installment) (*entity.Installment, error)
	Installments(ctx context.Context, payableID uuid.UUID, onlyActive bool) ([]*entity.Installment, error)
	// DeleteInstallments removes every installment of the payable; used when
	// a schedule is replaced before anything was paid.
	DeleteInstallments(ctx context.Context, payableID uuid.UUID) (int64, error)
	MarkInstallmentPaid(ctx context.Context, installmentID uuid.UUID, paidDate civil.Date, amount decimal.Decimal) error

	// AddClassification links a payable to a category. Existing links are
	// left untouched and reported as not added.
	AddClassification(ctx context.Context, payableID, categoryID uuid.UUID) (bool, error)
	Classifications(ctx context.Context, payableID uuid.UUID) ([]string, error)
}

type payableRepository struct {
	q      querier
	logger *slog.Logger
}

func NewPayableRepository(q querier, logger *slog.Logger) PayableRepository {
	return &payableRepository{q: q, logger: logger}
}

const (
	payablesTable        = "payables"
	installmentsTable    = "payable_installments"
	classificationsTable = "payable_classifications"
)

var (
	payableColumns = []string{"id", "supplier_id", "billed_party_id", "document_number", "issue_date",
		"description", "total", "status", "created_at", "updated_at"}
	installmentColumns = []string{"id", "payable_id", "seq", "due_date", "amount", "paid_date", "paid_amount", "status"}
)

func (r *payableRepository) Create(ctx context.Context, p entity.Payable) (*entity.Payable, error) {
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.Status = constants.LifecycleActive
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.q.exec(ctx, r.q.sql().Insert(payablesTable).
		Columns(payableColumns...).
		Values(p.ID, p.SupplierID, p.BilledPartyID, p.DocumentNumber, p.IssueDate,
			p.Description, p.Total.StringFixed(2), string(p.Status), now, now))
	if err != nil {
		r.logger.Error("failed to insert payable", "document_number", p.DocumentNumber, "error", err)
		return nil, fmt.Errorf("insert payable: %w", err)
	}
	return &p, nil
}

func (r *payableRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Payable, error) {
	var out []*entity.Payable
	sel := r.q.sql().Select(payableColumns...).From(r.q.sql().Table(payablesTable)).Where(entsql.EQ("id", id))
	err := r.q.query(ctx, sel, func(rows *entsql.Rows) error {
		var p entity.Payable
		var status string
		if err := rows.Scan(&p.ID, &p.SupplierID, &p.BilledPartyID, &p.DocumentNumber, &p.IssueDate,
			&p.Description, &p.Total, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		p.Status = constants.Lifecycle(status)
		out = append(out, &p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return firstOrNotFound(out, "payable", id.String())
}

func (r *payableRepository) SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error {
	return r.q.setLifecycle(ctx, payablesTable, id, status)
}

// List returns payables issued inside the optional window, newest first,
// with supplier, billed party, category and open-balance details.
func (r *payableRepository) List(ctx context.Context, fromDate, toDate *civil.Date) ([]*entity.PayableSummary, error) {
	b := r.q.sql()
	p := b.Table(payablesTable).As("p")
	s := b.Table(suppliersTable).As("s")
	bp := b.Table(billedPartiesTable).As("bp")

	sel := b.Select(
		p.C("id"), p.C("supplier_id"), p.C("billed_party_id"), p.C("document_number"), p.C("issue_date"),
		p.C("description"), p.C("total"), p.C("status"), p.C("created_at"), p.C("updated_at"),
		s.C("legal_name"), s.C("tax_id"), bp.C("full_name"),
	).
		From(p).
		Join(s).On(p.C("supplier_id"), s.C("id")).
		Join(bp).On(p.C("billed_party_id"), bp.C("id"))
	if fromDate != nil {
		sel = sel.Where(entsql.GTE(p.C("issue_date"), *fromDate))
	}
	if toDate != nil {
		sel = sel.Where(entsql.LTE(p.C("issue_date"), *toDate))
	}
	sel = sel.OrderBy(entsql.Desc(p.C("issue_date")), p.C("document_number"))

	var out []*entity.PayableSummary
	byID := make(map[uuid.UUID]*entity.PayableSummary)
	err := r.q.query(ctx, sel, func(rows *entsql.Rows) error {
		var ps entity.PayableSummary
		var status string
		if err := rows.Scan(&ps.ID, &ps.SupplierID, &ps.BilledPartyID, &ps.DocumentNumber, &ps.IssueDate,
			&ps.Description, &ps.Total, &status, &ps.CreatedAt, &ps.UpdatedAt,
			&ps.SupplierName, &ps.SupplierTaxID, &ps.BilledPartyName); err != nil {
			return err
		}
		ps.Status = constants.Lifecycle(status)
		out = append(out, &ps)
		byID[ps.ID] = &ps
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list payables", "error", err)
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]any, 0, len(out))
	for _, ps := range out {
		ids = append(ids, ps.ID)
	}
	if err := r.attachInstallments(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, ids, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *payableRepository) attachInstallments(ctx context.Context, ids []any, byID map[uuid.UUID]*entity.PayableSummary) error {
	sel := r.q.sql().Select(installmentColumns...).
		From(r.q.sql().Table(installmentsTable)).
		Where(entsql.And(
			entsql.In("payable_id", ids...),
			entsql.EQ("status", string(constants.LifecycleActive)),
		)).
		OrderBy("payable_id", "seq")
	return r.q.query(ctx, sel, func(rows *entsql.Rows) error {
		inst, err := scanInstallment(rows)
		if err != nil {
			return err
		}
		ps := byID[inst.PayableID]
		if ps == nil {
			return nil
		}
		ps.Installments++
		if inst.PaidDate != nil {
			return nil
		}
		ps.Outstanding = ps.Outstanding.Add(inst.Amount)
		if ps.NextDueDate == nil || inst.DueDate.Before(*ps.NextDueDate) {
			due := inst.DueDate
			ps.NextDueDate = &due
		}
		return nil
	})
}

func (r *payableRepository) attachCategories(ctx context.Context, ids []any, byID map[uuid.UUID]*entity.PayableSummary) error {
	b := r.q.sql()
	pc := b.Table(classificationsTable).As("pc")
	c := b.Table(categoriesTable).As("c")
	sel := b.Select(pc.C("payable_id"), c.C("name")).
		From(pc).
		Join(c).On(pc.C("category_id"), c.C("id")).
		Where(entsql.In(pc.C("payable_id"), ids...)).
		OrderBy(pc.C("payable_id"), c.C("name"))
	return r.q.query(ctx, sel, func(rows *entsql.Rows) error {
		var payableID uuid.UUID
		var name string
		if err := rows.Scan(&payableID, &name); err != nil {
			return err
		}
		if ps := byID[payableID]; ps != nil {
			ps.Categories = append(ps.Categories, name)
		}
		return nil
	})
}

func scanInstallment(rows *entsql.Rows) (*entity.Installment, error) {
	var inst entity.Installment
	var status string
	if err := rows.Scan(&inst.ID, &inst.PayableID, &inst.Seq, &inst.DueDate, &inst.Amount,
		&inst.PaidDate, &inst.PaidAmount, &status); err != nil {
		return nil, err
	}
	inst.Status = constants.Lifecycle(status)
	return &inst, nil
}

func (r *payableRepository) AddInstallment(ctx context.Context, inst entity.Installment) (*entity.Installment, error) {
	inst.ID = uuid.New()
	if inst.Status == "" {
		inst.Status = constants.LifecycleActive
	}
	var paidAmount any
	if inst.PaidAmount != nil {
		paidAmount = inst.PaidAmount.StringFixed(2)
	}
	_, err := r.q.exec(ctx, r.q.sql().Insert(installmentsTable).
		Columns(installmentColumns...).
		Values(inst.ID, inst.PayableID, inst.Seq, inst.DueDate, inst.Amount.StringFixed(2),
			inst.PaidDate, paidAmount, string(inst.Status)))
	if err != nil {
		return nil, fmt.Errorf("insert installment %d: %w", inst.Seq, err)
	}
	return &inst, nil
}

// Installments returns every installment of the payable ordered by seq.
func (r *payableRepository) Installments(ctx context.Context, payableID uuid.UUID, onlyActive bool) ([]*entity.Installment, error) {
	preds := []*entsql.Predicate{entsql.EQ("payable_id", payableID)}
	if onlyActive {
		preds = append(preds, entsql.EQ("status", string(constants.LifecycleActive)))
	}
	sel := r.q.sql().Select(installmentColumns...).
		From(r.q.sql().Table(installmentsTable)).
		Where(entsql.And(preds...)).
		OrderBy("seq")
	var out []*entity.Installment
	err := r.q.query(ctx, sel, func(rows *entsql.Rows) error {
		inst, err := scanInstallment(rows)
		if err != nil {
			return err
		}
		out = append(out, inst)
		return nil
	})
	return out, err
}

func (r *payableRepository) DeleteInstallments(ctx context.Context, payableID uuid.UUID) (int64, error) {
	n, err := r.q.exec(ctx, r.q.sql().Delete(installmentsTable).Where(entsql.EQ("payable_id", payableID)))
	if err != nil {
		return 0, fmt.Errorf("delete installments: %w", err)
	}
	return n, nil
}

func (r *payableRepository) MarkInstallmentPaid(ctx context.Context, installmentID uuid.UUID, paidDate civil.Date, amount decimal.Decimal) error {
	n, err := r.q.exec(ctx, r.q.sql().Update(installmentsTable).
		Set("paid_date", paidDate).
		Set("paid_amount", amount.StringFixed(2)).
		Where(entsql.EQ("id", installmentID)))
	if err != nil {
		return fmt.Errorf("mark installment paid: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("installment %s: %w", installmentID, common.ErrNotFound)
	}
	return nil
}

func (r *payableRepository) AddClassification(ctx context.Context, payableID, categoryID uuid.UUID) (bool, error) {
	return r.q.insertIgnoringKey(ctx, classificationsTable, []string{"payable_id", "category_id"},
		[]string{"id", "payable_id", "category_id", "status", "created_at"},
		[]any{uuid.New(), payableID, categoryID, string(constants.LifecycleActive), time.Now().UTC()})
}

func (r *payableRepository) Classifications(ctx context.Context, payableID uuid.UUID) ([]string, error) {
	b := r.q.sql()
	pc := b.Table(classificationsTable).As("pc")
	c := b.Table(categoriesTable).As("c")
	sel := b.Select(c.C("name")).
		From(pc).
		Join(c).On(pc.C("category_id"), c.C("id")).
		Where(entsql.EQ(pc.C("payable_id"), payableID)).
		OrderBy(c.C("name"))
	var names []string
	err := r.q.query(ctx, sel, func(rows *entsql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	})
	return names, err
}
