package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

type orders struct{ q querier }

const orderColumns = `o.id, o.user_id, o.total_amount, o.payment_status, o.order_status,
	o.shipping_address, o.created_at, o.updated_at`

func (r orders) Insert(ctx context.Context, o *order.Order, lines []order.Line) error {
	id, err := r.q.insert(ctx, `
		INSERT INTO orders (user_id, total_amount, payment_status, order_status, shipping_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		o.UserID, o.TotalAmount, o.PaymentStatus, o.Status, o.ShippingAddress, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlstore: insert order: %w", err)
	}
	o.ID = id

	for i := range lines {
		l := &lines[i]
		l.OrderID = id
		lineID, err := r.q.insert(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, size, quantity, price)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			l.OrderID, l.ProductID, l.ProductName, l.Size, l.Quantity, l.Price)
		if err != nil {
			return fmt.Errorf("sqlstore: insert order line: %w", err)
		}
		l.ID = lineID
	}
	return nil
}

func (r orders) Get(ctx context.Context, id int64) (*order.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ?`, id)
}

func (r orders) GetForUser(ctx context.Context, userID, id int64) (*order.Order, error) {
	return r.one(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = ? AND o.user_id = ?`, id, userID)
}

func (r orders) one(ctx context.Context, query string, args ...any) (*order.Order, error) {
	var o order.Order
	err := r.q.get(ctx, &o, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get order: %w", err)
	}
	return &o, nil
}

func (r orders) Lines(ctx context.Context, orderID int64) ([]order.Line, error) {
	var out []order.Line
	err := r.q.sel(ctx, &out, `
		SELECT id, order_id, product_id, product_name, size, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: order lines: %w", err)
	}
	return out, nil
}

func (r orders) ClaimPaid(ctx context.Context, id int64) (bool, error) {
	n, err := r.q.exec(ctx, `
		UPDATE orders
		SET payment_status = ?,
		    order_status = CASE WHEN order_status = ? THEN ? ELSE order_status END,
		    updated_at = ?
		WHERE id = ? AND payment_status <> ?`,
		order.PaymentPaid, order.StatusPending, order.StatusProcessing, time.Now().UTC(), id, order.PaymentPaid)
	if err != nil {
		return false, fmt.Errorf("sqlstore: claim paid: %w", err)
	}
	return n == 1, nil
}

func (r orders) SetPaymentStatus(ctx context.Context, id int64, to order.PaymentStatus) (bool, error) {
	n, err := r.q.exec(ctx, `
		UPDATE orders SET payment_status = ?, updated_at = ?
		WHERE id = ? AND payment_status <> ? AND payment_status <> ?`,
		to, time.Now().UTC(), id, order.PaymentPaid, to)
	if err != nil {
		return false, fmt.Errorf("sqlstore: set payment status: %w", err)
	}
	return n == 1, nil
}

func (r orders) AdvanceStatus(ctx context.Context, id int64, from, to order.Status) (bool, error) {
	n, err := r.q.exec(ctx, `
		UPDATE orders SET order_status = ?, updated_at = ?
		WHERE id = ? AND order_status = ?`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("sqlstore: advance status: %w", err)
	}
	return n == 1, nil
}

const listQuery = `SELECT ` + orderColumns + `, COUNT(oi.id) AS item_count
	FROM orders o
	LEFT JOIN order_items oi ON oi.order_id = o.id
	WHERE 1 = 1`

const listTail = ` GROUP BY ` + orderColumns + ` ORDER BY o.created_at DESC, o.id DESC`

func (r orders) ListForUser(ctx context.Context, userID int64) ([]order.ListEntry, error) {
	var out []order.ListEntry
	if err := r.q.sel(ctx, &out, listQuery+` AND o.user_id = ?`+listTail, userID); err != nil {
		return nil, fmt.Errorf("sqlstore: list user orders: %w", err)
	}
	return out, nil
}

func (r orders) List(ctx context.Context, f order.Filter) ([]order.ListEntry, error) {
	var (
		where strings.Builder
		args  []any
	)
	if f.PaymentStatus != "" {
		where.WriteString(` AND o.payment_status = ?`)
		args = append(args, f.PaymentStatus)
	}
	if f.Status != "" {
		where.WriteString(` AND o.order_status = ?`)
		args = append(args, f.Status)
	}
	if !f.From.IsZero() {
		where.WriteString(` AND o.created_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where.WriteString(` AND o.created_at < ?`)
		args = append(args, f.To.UTC())
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where.WriteString(` AND (CAST(o.id AS TEXT) = ? OR o.shipping_address LIKE ?)`)
		args = append(args, s, "%"+s+"%")
	}

	var out []order.ListEntry
	if err := r.q.sel(ctx, &out, listQuery+where.String()+listTail, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: list orders: %w", err)
	}
	return out, nil
}

func (r orders) Summary(ctx context.Context) (*order.Summary, error) {
	var s order.Summary
	err := r.q.get(ctx, &s, `
		SELECT COUNT(*) AS total_orders,
		       COALESCE(SUM(CASE WHEN payment_status = 'Pending' THEN 1 ELSE 0 END), 0) AS pending_payments,
		       COALESCE(SUM(CASE WHEN order_status = 'Processing' THEN 1 ELSE 0 END), 0) AS processing_orders,
		       COALESCE(SUM(CASE WHEN order_status = 'Shipped' THEN 1 ELSE 0 END), 0) AS shipped_orders,
		       COALESCE(SUM(CASE WHEN order_status = 'Delivered' THEN 1 ELSE 0 END), 0) AS delivered_orders
		FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: order summary: %w", err)
	}

	// Money is TEXT on SQLite, where SUM would go through float.
	var paid []decimal.Decimal
	if err := r.q.sel(ctx, &paid, `SELECT total_amount FROM orders WHERE payment_status = 'Paid'`); err != nil {
		return nil, fmt.Errorf("sqlstore: order revenue: %w", err)
	}
	s.TotalRevenue = decimal.Sum(decimal.Zero, paid...)
	return &s, nil
}
