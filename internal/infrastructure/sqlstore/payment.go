package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
)

type payments struct{ q querier }

func (p payments) Insert(ctx context.Context, r *payment.Record) error {
	id, err := p.q.insert(ctx, `
		INSERT INTO payments (order_id, gateway_order_id, payment_method, payment_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		r.OrderID, r.GatewayOrderID, r.Method, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlstore: insert payment: %w", err)
	}
	r.ID = id
	return nil
}

func (p payments) GetByOrder(ctx context.Context, orderID int64) (*payment.Record, error) {
	var r payment.Record
	err := p.q.get(ctx, &r, `
		SELECT id, order_id, gateway_order_id, transaction_id, signature, payment_method,
		       payment_status, failure_reason, created_at, updated_at
		FROM payments WHERE order_id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get payment: %w", err)
	}
	return &r, nil
}

func (p payments) MarkSuccess(ctx context.Context, orderID int64, transactionID, signature string) error {
	return p.update(ctx, `
		UPDATE payments
		SET payment_status = ?, transaction_id = ?, signature = ?, failure_reason = '', updated_at = ?
		WHERE order_id = ?`,
		payment.StatusSuccess, transactionID, signature, time.Now().UTC(), orderID)
}

func (p payments) MarkFailed(ctx context.Context, orderID int64, reason string) error {
	return p.update(ctx, `
		UPDATE payments SET payment_status = ?, failure_reason = ?, updated_at = ?
		WHERE order_id = ?`,
		payment.StatusFailed, reason, time.Now().UTC(), orderID)
}

func (p payments) SetStatus(ctx context.Context, orderID int64, status payment.Status, transactionID string) error {
	if transactionID == "" {
		return p.update(ctx, `
			UPDATE payments SET payment_status = ?, updated_at = ?
			WHERE order_id = ?`,
			status, time.Now().UTC(), orderID)
	}
	return p.update(ctx, `
		UPDATE payments SET payment_status = ?, transaction_id = ?, updated_at = ?
		WHERE order_id = ?`,
		status, transactionID, time.Now().UTC(), orderID)
}

func (p payments) update(ctx context.Context, query string, args ...any) error {
	n, err := p.q.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlstore: update payment: %w", err)
	}
	if n == 0 {
		return payment.ErrNotFound
	}
	return nil
}
