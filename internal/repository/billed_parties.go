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

type BilledPartyRepository interface {
	FindByTaxID(ctx context.Context, taxID string) (*entity.BilledParty, error)
	CreateOrGet(ctx context.Context, p entity.BilledParty) (*entity.BilledParty, bool, error)
	Create(ctx context.Context, p entity.BilledParty) (*entity.BilledParty, error)
	SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error
	List(ctx context.Context, onlyActive bool) ([]*entity.BilledParty, error)
}

type billedPartyRepository struct {
	q      querier
	logger *slog.Logger
}

func NewBilledPartyRepository(q querier, logger *slog.Logger) BilledPartyRepository {
	return &billedPartyRepository{q: q, logger: logger}
}

const billedPartiesTable = "billed_parties"

var billedPartyColumns = []string{"id", "full_name", "tax_id", "status", "created_at", "updated_at"}

func (r *billedPartyRepository) selectWhere(ctx context.Context, s *entsql.Selector) ([]*entity.BilledParty, error) {
	var out []*entity.BilledParty
	err := r.q.query(ctx, s, func(rows *entsql.Rows) error {
		var p entity.BilledParty
		var status string
		if err := rows.Scan(&p.ID, &p.FullName, &p.TaxID, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		p.Status = constants.Lifecycle(status)
		out = append(out, &p)
		return nil
	})
	return out, err
}

func (r *billedPartyRepository) FindByTaxID(ctx context.Context, taxID string) (*entity.BilledParty, error) {
	key := normalizeKey(taxID)
	rows, err := r.selectWhere(ctx, r.q.selectMaster(billedPartiesTable, billedPartyColumns, false, "").
		Where(entsql.EQ("tax_id", key)))
	if err != nil {
		r.logger.Error("failed to find billed party", "tax_id", key, "error", err)
		return nil, err
	}
	return firstOrNotFound(rows, "billed party", key)
}

func (r *billedPartyRepository) CreateOrGet(ctx context.Context, p entity.BilledParty) (*entity.BilledParty, bool, error) {
	now := time.Now().UTC()
	insert := func(ctx context.Context) (bool, error) {
		return r.q.insertIgnoringKey(ctx, billedPartiesTable, []string{"tax_id"}, billedPartyColumns,
			[]any{uuid.New(), p.FullName, normalizeKey(p.TaxID), string(constants.LifecycleActive), now, now})
	}
	return createOrGet(ctx, insert, func(ctx context.Context) (*entity.BilledParty, error) {
		return r.FindByTaxID(ctx, p.TaxID)
	})
}

func (r *billedPartyRepository) Create(ctx context.Context, p entity.BilledParty) (*entity.BilledParty, error) {
	got, created, err := r.CreateOrGet(ctx, p)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, conflict("billed party", p.TaxID)
	}
	return got, nil
}

func (r *billedPartyRepository) SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error {
	return r.q.setLifecycle(ctx, billedPartiesTable, id, status)
}

func (r *billedPartyRepository) List(ctx context.Context, onlyActive bool) ([]*entity.BilledParty, error) {
	return r.selectWhere(ctx, r.q.selectMaster(billedPartiesTable, billedPartyColumns, onlyActive, "full_name"))
}
