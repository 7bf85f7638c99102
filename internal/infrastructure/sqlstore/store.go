package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/jmoiron/sqlx"
)

var _ application.UnitOfWork = (*Store)(nil)

// Do runs fn in one transaction.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &repos{q: querier{tx: tx}}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("sqlstore: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

type repos struct{ q querier }

func (r *repos) Stock() inventory.Ledger      { return ledger{r.q} }
func (r *repos) Carts() cart.Repository       { return carts{r.q} }
func (r *repos) Orders() order.Repository     { return orders{r.q} }
func (r *repos) Payments() payment.Repository { return payments{r.q} }
func (r *repos) Catalog() catalog.Repository  { return products{r.q} }

// querier rebinds "?" placeholders for the transaction's driver.
type querier struct{ tx *sqlx.Tx }

func (q querier) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.tx.ExecContext(ctx, q.tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q querier) get(ctx context.Context, dst any, query string, args ...any) error {
	return q.tx.GetContext(ctx, dst, q.tx.Rebind(query), args...)
}

func (q querier) sel(ctx context.Context, dst any, query string, args ...any) error {
	return q.tx.SelectContext(ctx, dst, q.tx.Rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (q querier) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := q.tx.QueryRowxContext(ctx, q.tx.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
