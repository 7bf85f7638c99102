package order

import (
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrShippingAddressMissing = errors.New("order: shipping address is required")
	ErrInvalidStatus          = errors.New("order: unknown status")
	ErrInvalidTransition      = errors.New("order: invalid status transition")
	ErrPaymentSettled         = errors.New("order: payment already confirmed")
	ErrSignatureInvalid       = errors.New("order: payment signature mismatch")
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

// Status is the fulfillment progression, independent of payment.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
)

type Order struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"userId"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"totalAmount"`
	PaymentStatus   PaymentStatus   `db:"payment_status" json:"paymentStatus"`
	Status          Status          `db:"order_status" json:"orderStatus"`
	ShippingAddress string          `db:"shipping_address" json:"shippingAddress"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

func (o *Order) Paid() bool { return o.PaymentStatus == PaymentPaid }

// Line is the immutable snapshot of one cart line at order creation.
type Line struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"orderId"`
	ProductID   int64           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Size        string          `db:"size" json:"size"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// New freezes validated cart items into a pending order and its lines.
// The total is fixed here and never recomputed.
func New(userID int64, shippingAddress string, items []cart.Item) (*Order, []Line, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, nil, ErrShippingAddressMissing
	}
	if len(items) == 0 {
		return nil, nil, cart.ErrEmptyCart
	}

	lines := make([]Line, 0, len(items))
	total := decimal.Zero
	for _, it := range items {
		l := Line{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Size:        it.Size,
			Quantity:    it.Quantity,
			Price:       it.UnitPrice(),
		}
		total = total.Add(l.Subtotal())
		lines = append(lines, l)
	}

	now := time.Now().UTC()
	return &Order{
		UserID:          userID,
		TotalAmount:     total,
		PaymentStatus:   PaymentPending,
		Status:          StatusPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, lines, nil
}

// ListEntry is an order row with its line count, as shown in order lists.
type ListEntry struct {
	Order
	ItemCount int `db:"item_count" json:"itemCount"`
}

// Filter narrows the operator order list. Zero values mean "any".
type Filter struct {
	PaymentStatus PaymentStatus
	Status        Status
	From          time.Time
	To            time.Time
	// Search matches the order id exactly or the shipping address by substring.
	Search string
}

type Summary struct {
	TotalOrders     int             `db:"total_orders" json:"totalOrders"`
	TotalRevenue    decimal.Decimal `db:"total_revenue" json:"totalRevenue"`
	PendingPayments int             `db:"pending_payments" json:"pendingPayments"`
	Processing      int             `db:"processing_orders" json:"processingOrders"`
	Shipped         int             `db:"shipped_orders" json:"shippedOrders"`
	Delivered       int             `db:"delivered_orders" json:"deliveredOrders"`
}
