package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// maxCreateAttempts bounds the insert-then-reselect loop used when a natural
// key is created concurrently by another transaction.
const maxCreateAttempts = 3

// createOrGet inserts a row keyed by a unique natural key, ignoring conflicts,
// then reads the row back by that key. The returned flag reports whether this
// call inserted it.
func createOrGet[T any](ctx context.Context, insert func(context.Context) (bool, error), find func(context.Context) (*T, error)) (*T, bool, error) {
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		inserted, err := insert(ctx)
		if err != nil {
			return nil, false, err
		}
		row, err := find(ctx)
		if err == nil {
			return row, inserted, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, false, err
		}
		// the conflicting row was rolled back between our insert and read
	}
	return nil, false, fmt.Errorf("natural key unresolved after %d attempts: %w", maxCreateAttempts, common.ErrConflict)
}

// insertIgnoringKey runs INSERT ... ON CONFLICT (key) DO NOTHING.
func (q querier) insertIgnoringKey(ctx context.Context, table string, key []string, columns []string, values []any) (bool, error) {
	n, err := q.exec(ctx, q.sql().Insert(table).
		Columns(columns...).
		Values(values...).
		OnConflict(entsql.ConflictColumns(key...), entsql.DoNothing()))
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", table, err)
	}
	return n > 0, nil
}

func (q querier) setLifecycle(ctx context.Context, table string, id uuid.UUID, status constants.Lifecycle) error {
	n, err := q.exec(ctx, q.sql().Update(table).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, common.ErrNotFound)
	}
	return nil
}

// selectMaster builds a SELECT over a master table, optionally restricted to
// active rows. Key lookups never restrict on status.
func (q querier) selectMaster(table string, columns []string, onlyActive bool, orderBy string) *entsql.Selector {
	s := q.sql().Select(columns...).From(q.sql().Table(table))
	if onlyActive {
		s = s.Where(entsql.EQ("status", string(constants.LifecycleActive)))
	}
	if orderBy != "" {
		s = s.OrderBy(orderBy)
	}
	return s
}

func normalizeKey(s string) string { return strings.TrimSpace(s) }

func firstOrNotFound[T any](rows []*T, what, key string) (*T, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %q: %w", what, key, common.ErrNotFound)
	}
	return rows[0], nil
}

func conflict(what, key string) error {
	return common.NewAppError("ALREADY_EXISTS", fmt.Sprintf("%s with key %q already exists", what, key), common.ErrConflict)
}
