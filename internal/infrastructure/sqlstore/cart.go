package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
)

type carts struct{ q querier }

// Items joins live prices and stock; a vanished variant shows as zero available.
func (c carts) Items(ctx context.Context, userID int64) ([]cart.Item, error) {
	var out []cart.Item
	err := c.q.sel(ctx, &out, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.size, ci.quantity,
		       p.name AS product_name, p.price, p.discount_price,
		       COALESCE(pv.stock_quantity, 0) AS available
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		LEFT JOIN product_variants pv ON pv.product_id = ci.product_id AND pv.size = ci.size
		WHERE ci.user_id = ?
		ORDER BY ci.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: cart items: %w", err)
	}
	return out, nil
}

func (c carts) Find(ctx context.Context, userID, productID int64, size string) (*cart.Line, error) {
	var l cart.Line
	err := c.q.get(ctx, &l, `
		SELECT id, user_id, product_id, size, quantity
		FROM cart_items
		WHERE user_id = ? AND product_id = ? AND size = ?`, userID, productID, size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: find cart line: %w", err)
	}
	return &l, nil
}

func (c carts) Get(ctx context.Context, userID, lineID int64) (*cart.Line, error) {
	var l cart.Line
	err := c.q.get(ctx, &l, `
		SELECT id, user_id, product_id, size, quantity
		FROM cart_items
		WHERE id = ? AND user_id = ?`, lineID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get cart line: %w", err)
	}
	return &l, nil
}

func (c carts) Insert(ctx context.Context, line *cart.Line) error {
	id, err := c.q.insert(ctx, `
		INSERT INTO cart_items (user_id, product_id, size, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		line.UserID, line.ProductID, line.Size, line.Quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlstore: insert cart line: %w", err)
	}
	line.ID = id
	return nil
}

func (c carts) SetQuantity(ctx context.Context, lineID int64, quantity int) error {
	n, err := c.q.exec(ctx, `UPDATE cart_items SET quantity = ? WHERE id = ?`, quantity, lineID)
	if err != nil {
		return fmt.Errorf("sqlstore: update cart line: %w", err)
	}
	if n == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (c carts) Delete(ctx context.Context, userID, lineID int64) error {
	n, err := c.q.exec(ctx, `DELETE FROM cart_items WHERE id = ? AND user_id = ?`, lineID, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: delete cart line: %w", err)
	}
	if n == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

func (c carts) Clear(ctx context.Context, userID int64) error {
	if _, err := c.q.exec(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlstore: clear cart: %w", err)
	}
	return nil
}
