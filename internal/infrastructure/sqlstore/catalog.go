package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

type products struct{ q querier }

func (p products) Insert(ctx context.Context, pr *catalog.Product) error {
	id, err := p.q.insert(ctx, `
		INSERT INTO products (name, price, discount_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		pr.Name, pr.Price, pr.DiscountPrice, pr.CreatedAt, pr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlstore: insert product: %w", err)
	}
	pr.ID = id
	return nil
}

func (p products) Get(ctx context.Context, id int64) (*catalog.Product, error) {
	var pr catalog.Product
	err := p.q.get(ctx, &pr, `
		SELECT id, name, price, discount_price, created_at, updated_at
		FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get product: %w", err)
	}
	return &pr, nil
}

func (p products) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, discount decimal.NullDecimal) error {
	n, err := p.q.exec(ctx, `
		UPDATE products SET price = ?, discount_price = ?, updated_at = ?
		WHERE id = ?`, price, discount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlstore: update price: %w", err)
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
