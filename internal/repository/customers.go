package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
)

type CustomerRepository interface {
	FindByTaxID(ctx context.Context, taxID string) (*entity.Customer, error)
	CreateOrGet(ctx context.Context, c entity.Customer) (*entity.Customer, bool, error)
	Create(ctx context.Context, c entity.Customer) (*entity.Customer, error)
	SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error
	List(ctx context.Context, onlyActive bool) ([]*entity.Customer, error)
}

type customerRepository struct {
	q      querier
	logger *slog.Logger
}

func NewCustomerRepository(q querier, logger *slog.Logger) CustomerRepository {
	return &customerRepository{q: q, logger: logger}
}

const customersTable = "customers"

var customerColumns = []string{"id", "name", "tax_id", "status", "created_at", "updated_at"}

func (r *customerRepository) selectWhere(ctx context.Context, s *entsql.Selector) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.q.query(ctx, s, func(rows *entsql.Rows) error {
		var c entity.Customer
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		c.Status = constants.Lifecycle(status)
		out = append(out, &c)
		return nil
	})
	return out, err
}

func (r *customerRepository) FindByTaxID(ctx context.Context, taxID string) (*entity.Customer, error) {
	key := normalizeKey(taxID)
	rows, err := r.selectWhere(ctx, r.q.selectMaster(customersTable, customerColumns, false, "").
		Where(entsql.EQ("tax_id", key)))
	if err != nil {
		r.logger.Error("failed to find customer", "tax_id", key, "error", err)
		return nil, err
	}
	return firstOrNotFound(rows, "customer", key)
}

func (r *customerRepository) CreateOrGet(ctx context.Context, c entity.Customer) (*entity.Customer, bool, error) {
	now := time.Now().UTC()
	insert := func(ctx context.Context) (bool, error) {
		return r.q.insertIgnoringKey(ctx, customersTable, []string{"tax_id"}, customerColumns,
			[]any{uuid.New(), c.Name, normalizeKey(c.TaxID), string(constants.LifecycleActive), now, now})
	}
	return createOrGet(ctx, insert, func(ctx context.Context) (*entity.Customer, error) {
		return r.FindByTaxID(ctx, c.TaxID)
	})
}

func (r *customerRepository) Create(ctx context.Context, c entity.Customer) (*entity.Customer, error) {
	got, created, err := r.CreateOrGet(ctx, c)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, conflict("customer", c.TaxID)
	}
	return got, nil
}

func (r *customerRepository) SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error {
	return r.q.setLifecycle(ctx, customersTable, id, status)
}

func (r *customerRepository) List(ctx context.Context, onlyActive bool) ([]*entity.Customer, error) {
	return r.selectWhere(ctx, r.q.selectMaster(customersTable, customerColumns, onlyActive, "name"))
}
