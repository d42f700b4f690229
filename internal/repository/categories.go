package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/entity"
)

type CategoryRepository interface {
	FindByName(ctx context.Context, name string) (*entity.Category, error)
	CreateOrGet(ctx context.Context, c entity.Category) (*entity.Category, bool, error)
	Create(ctx context.Context, c entity.Category) (*entity.Category, error)
	SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error
	List(ctx context.Context, onlyActive bool) ([]*entity.Category, error)
	// SeedCategories creates every taxonomy entry that is missing and
	// returns how many rows were inserted.
	SeedCategories(ctx context.Context, taxonomy *constants.Taxonomy) (int, error)
}

type categoryRepository struct {
	q      querier
	logger *slog.Logger
}

func NewCategoryRepository(q querier, logger *slog.Logger) CategoryRepository {
	return &categoryRepository{q: q, logger: logger}
}

const categoriesTable = "categories"

var categoryColumns = []string{"id", "name", "description", "status", "created_at", "updated_at"}

func (r *categoryRepository) selectWhere(ctx context.Context, s *entsql.Selector) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.q.query(ctx, s, func(rows *entsql.Rows) error {
		var c entity.Category
		var status string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		c.Status = constants.Lifecycle(status)
		out = append(out, &c)
		return nil
	})
	return out, err
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	key := normalizeKey(name)
	rows, err := r.selectWhere(ctx, r.q.selectMaster(categoriesTable, categoryColumns, false, "").
		Where(entsql.EQ("name", key)))
	if err != nil {
		r.logger.Error("failed to find category", "name", key, "error", err)
		return nil, err
	}
	return firstOrNotFound(rows, "category", key)
}

func (r *categoryRepository) CreateOrGet(ctx context.Context, c entity.Category) (*entity.Category, bool, error) {
	now := time.Now().UTC()
	insert := func(ctx context.Context) (bool, error) {
		return r.q.insertIgnoringKey(ctx, categoriesTable, []string{"name"}, categoryColumns,
			[]any{uuid.New(), normalizeKey(c.Name), strings.TrimSpace(c.Description), string(constants.LifecycleActive), now, now})
	}
	return createOrGet(ctx, insert, func(ctx context.Context) (*entity.Category, error) {
		return r.FindByName(ctx, c.Name)
	})
}

func (r *categoryRepository) Create(ctx context.Context, c entity.Category) (*entity.Category, error) {
	got, created, err := r.CreateOrGet(ctx, c)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, conflict("category", c.Name)
	}
	return got, nil
}

func (r *categoryRepository) SetLifecycle(ctx context.Context, id uuid.UUID, status constants.Lifecycle) error {
	return r.q.setLifecycle(ctx, categoriesTable, id, status)
}

func (r *categoryRepository) List(ctx context.Context, onlyActive bool) ([]*entity.Category, error) {
	return r.selectWhere(ctx, r.q.selectMaster(categoriesTable, categoryColumns, onlyActive, "name"))
}

func (r *categoryRepository) SeedCategories(ctx context.Context, taxonomy *constants.Taxonomy) (int, error) {
	inserted := 0
	for _, def := range taxonomy.Categories() {
		_, created, err := r.CreateOrGet(ctx, entity.Category{Name: string(def.Name), Description: def.Description()})
		if err != nil {
			return inserted, err
		}
		if created {
			inserted++
		}
	}
	r.logger.Info("repository.categories.seeded", "inserted", inserted, "total", len(taxonomy.Categories()))
	return inserted, nil
}
