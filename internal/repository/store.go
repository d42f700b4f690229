package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Suppliers     SupplierRepository
	BilledParties BilledPartyRepository
	Customers     CustomerRepository
	Categories    CategoryRepository
	Payables      PayableRepository
}

func newRepos(conn dialect.ExecQuerier, d string, logger *slog.Logger) *Repos {
	q := querier{conn: conn, dialect: d}
	return &Repos{
		Suppliers:     NewSupplierRepository(q, logger),
		BilledParties: NewBilledPartyRepository(q, logger),
		Customers:     NewCustomerRepository(q, logger),
		Categories:    NewCategoryRepository(q, logger),
		Payables:      NewPayableRepository(q, logger),
	}
}

// Repos returns repositories that run each statement in its own implicit
// transaction. Use WithTx when several writes must commit together.
func (s *Store) Repos() *Repos {
	return newRepos(s.drv, s.drv.Dialect(), s.logger)
}

// WithTx runs fn inside one database transaction. Every write issued through
// the passed Repos is visible to later reads in the same fn. The transaction
// commits when fn returns nil and rolls back otherwise, including on panic.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) (err error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepos(tx, s.drv.Dialect(), s.logger)); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			s.logger.Error("db.tx.rollback_failed", "error", rerr)
			return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// querier executes ent SQL builders against a connection or transaction.
type querier struct {
	conn    dialect.ExecQuerier
	dialect string
}

func (q querier) sql() *entsql.DialectBuilder { return entsql.Dialect(q.dialect) }

func (q querier) query(ctx context.Context, b entsql.Querier, scan func(rows *entsql.Rows) error) error {
	query, args := b.Query()
	rows := &entsql.Rows{}
	if err := q.conn.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (q querier) exec(ctx context.Context, b entsql.Querier) (int64, error) {
	query, args := b.Query()
	var res sql.Result
	if err := q.conn.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
