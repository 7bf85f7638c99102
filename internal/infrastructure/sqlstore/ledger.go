package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

type ledger struct{ q querier }

func (l ledger) Variant(ctx context.Context, productID int64, size string) (*inventory.Variant, error) {
	var v inventory.Variant
	err := l.q.get(ctx, &v, `
		SELECT id, product_id, size, stock_quantity, updated_at
		FROM product_variants
		WHERE product_id = ? AND size = ?`, productID, size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load variant: %w", err)
	}
	return &v, nil
}

func (l ledger) CheckAvailability(ctx context.Context, productID int64, size string, quantity int) (bool, error) {
	v, err := l.Variant(ctx, productID, size)
	if errors.Is(err, inventory.ErrVariantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.Covers(quantity), nil
}

func (l ledger) Decrement(ctx context.Context, productID int64, size string, quantity int) error {
	n, err := l.q.exec(ctx, `
		UPDATE product_variants
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE product_id = ? AND size = ? AND stock_quantity >= ?`,
		quantity, time.Now().UTC(), productID, size, quantity)
	if err != nil {
		return fmt.Errorf("sqlstore: decrement stock: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := l.Variant(ctx, productID, size); err != nil {
		return err
	}
	return inventory.ErrInsufficientStock
}

func (l ledger) Set(ctx context.Context, productID int64, size string, quantity int) error {
	if quantity < 0 {
		return inventory.ErrInvalidQuantity
	}
	_, err := l.q.exec(ctx, `
		INSERT INTO product_variants (product_id, size, stock_quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (product_id, size) DO UPDATE SET
			stock_quantity = excluded.stock_quantity,
			updated_at = excluded.updated_at`,
		productID, size, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlstore: set stock: %w", err)
	}
	return nil
}

func (l ledger) ListByProduct(ctx context.Context, productID int64) ([]inventory.Variant, error) {
	var out []inventory.Variant
	err := l.q.sel(ctx, &out, `
		SELECT id, product_id, size, stock_quantity, updated_at
		FROM product_variants
		WHERE product_id = ?
		ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list variants: %w", err)
	}
	return out, nil
}
