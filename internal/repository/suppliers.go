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

type SupplierRepository interface {
	FindByTaxID(ctx context.Context, taxID string) (*entity.Supplier, error)
	CreateOrGet(ctx context.Context, s entity.Supplier) (*entity.Supplier, bool, error)
	Create(ctx context.Context, s entity.Supplier) (*entity.Supplier, error)
	SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error
	List(ctx context.Context, onlyActive bool) ([]*entity.Supplier, error)
}

type supplierRepository struct {
	q      querier
	logger *slog.Logger
}

func NewSupplierRepository(q querier, logger *slog.Logger) SupplierRepository {
	return &supplierRepository{q: q, logger: logger}
}

const suppliersTable = "suppliers"

var supplierColumns = []string{"id", "legal_name", "trade_name", "tax_id", "status", "created_at", "updated_at"}

func scanSupplier(rows *entsql.Rows) (*entity.Supplier, error) {
	var s entity.Supplier
	var status string
	if err := rows.Scan(&s.ID, &s.LegalName, &s.TradeName, &s.TaxID, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = constants.Lifecycle(status)
	return &s, nil
}

func (r *supplierRepository) selectWhere(ctx context.Context, s *entsql.Selector) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.q.query(ctx, s, func(rows *entsql.Rows) error {
		sup, err := scanSupplier(rows)
		if err != nil {
			return err
		}
		out = append(out, sup)
		return nil
	})
	return out, err
}

// FindByTaxID looks the supplier up by CNPJ across active and inactive rows.
func (r *supplierRepository) FindByTaxID(ctx context.Context, taxID string) (*entity.Supplier, error) {
	key := normalizeKey(taxID)
	rows, err := r.selectWhere(ctx, r.q.selectMaster(suppliersTable, supplierColumns, false, "").
		Where(entsql.EQ("tax_id", key)))
	if err != nil {
		r.logger.Error("failed to find supplier", "tax_id", key, "error", err)
		return nil, err
	}
	return firstOrNotFound(rows, "supplier", key)
}

func (r *supplierRepository) insert(s entity.Supplier) func(context.Context) (bool, error) {
	now := time.Now().UTC()
	return func(ctx context.Context) (bool, error) {
		return r.q.insertIgnoringKey(ctx, suppliersTable, []string{"tax_id"}, supplierColumns,
			[]any{uuid.New(), s.LegalName, s.TradeName, normalizeKey(s.TaxID), string(constants.LifecycleActive), now, now})
	}
}

func (r *supplierRepository) CreateOrGet(ctx context.Context, s entity.Supplier) (*entity.Supplier, bool, error) {
	return createOrGet(ctx, r.insert(s), func(ctx context.Context) (*entity.Supplier, error) {
		return r.FindByTaxID(ctx, s.TaxID)
	})
}

// Create inserts a new supplier and fails with a conflict if the CNPJ exists.
func (r *supplierRepository) Create(ctx context.Context, s entity.Supplier) (*entity.Supplier, error) {
	got, created, err := r.CreateOrGet(ctx, s)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, conflict("supplier", s.TaxID)
	}
	return got, nil
}

func (r *supplierRepository) SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error {
	return r.q.setLifecycle(ctx, suppliersTable, id, status)
}

func (r *supplierRepository) List(ctx context.Context, onlyActive bool) ([]*entity.Supplier, error) {
	return r.selectWhere(ctx, r.q.selectMaster(suppliersTable, supplierColumns, onlyActive, "legal_name"))
}
