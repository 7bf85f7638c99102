package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("payment: record not found")
	ErrGateway  = errors.New("payment: gateway request failed")
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// MethodUPI is recorded for every gateway-backed payment.
const MethodUPI = "UPI"

// Record tracks the gateway round-trips for exactly one order.
type Record struct {
	ID             int64     `db:"id" json:"id"`
	OrderID        int64     `db:"order_id" json:"orderId"`
	GatewayOrderID string    `db:"gateway_order_id" json:"gatewayOrderId"`
	TransactionID  string    `db:"transaction_id" json:"transactionId,omitempty"`
	Signature      string    `db:"signature" json:"-"`
	Method         string    `db:"payment_method" json:"paymentMethod"`
	Status         Status    `db:"payment_status" json:"paymentStatus"`
	FailureReason  string    `db:"failure_reason" json:"failureReason,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

func NewRecord(orderID int64, gatewayOrderID string) *Record {
	now := time.Now().UTC()
	return &Record{
		OrderID:        orderID,
		GatewayOrderID: gatewayOrderID,
		Method:         MethodUPI,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type Repository interface {
	Insert(ctx context.Context, r *Record) error
	GetByOrder(ctx context.Context, orderID int64) (*Record, error)
	// MarkSuccess stores the gateway transaction id and signature.
	MarkSuccess(ctx context.Context, orderID int64, transactionID, signature string) error
	MarkFailed(ctx context.Context, orderID int64, reason string) error
	// SetStatus is the operator override; an empty transactionID keeps the stored one.
	SetStatus(ctx context.Context, orderID int64, status Status, transactionID string) error
}

// Gateway is the external payment provider as seen by the order workflow.
type Gateway interface {
	// CreateRemoteOrder registers amount with the provider and returns its order handle.
	CreateRemoteOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	// KeyID is the public key the client checkout needs; empty for the mock.
	KeyID() string
	Mock() bool
}
