package order

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlacedEvent is emitted after an order and its pending payment record are committed.
type PlacedEvent struct {
	ID             string          `json:"id"`
	OrderID        int64           `json:"orderId"`
	UserID         int64           `json:"userId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	GatewayOrderID string          `json:"gatewayOrderId"`
	OccurredAt     time.Time       `json:"occurredAt"`
}

func (PlacedEvent) EventName() string  { return "order.placed" }
func (e PlacedEvent) EventKey() string { return strconv.FormatInt(e.OrderID, 10) }

func NewPlacedEvent(o *Order, gatewayOrderID string) PlacedEvent {
	return PlacedEvent{
		ID:             uuid.NewString(),
		OrderID:        o.ID,
		UserID:         o.UserID,
		TotalAmount:    o.TotalAmount,
		GatewayOrderID: gatewayOrderID,
		OccurredAt:     time.Now().UTC(),
	}
}

// PaidLine is the part of a line stock consumers need.
type PaidLine struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// PaidEvent is emitted once per order, by whichever confirmation won the Paid transition.
type PaidEvent struct {
	ID            string     `json:"id"`
	OrderID       int64      `json:"orderId"`
	UserID        int64      `json:"userId"`
	Source        string     `json:"source"`
	TransactionID string     `json:"transactionId"`
	Lines         []PaidLine `json:"lines"`
	OccurredAt    time.Time  `json:"occurredAt"`
}

func (PaidEvent) EventName() string  { return "order.paid" }
func (e PaidEvent) EventKey() string { return strconv.FormatInt(e.OrderID, 10) }

func NewPaidEvent(o *Order, lines []Line, source, transactionID string) PaidEvent {
	paid := make([]PaidLine, 0, len(lines))
	for _, l := range lines {
		paid = append(paid, PaidLine{ProductID: l.ProductID, Size: l.Size, Quantity: l.Quantity})
	}
	return PaidEvent{
		ID:            uuid.NewString(),
		OrderID:       o.ID,
		UserID:        o.UserID,
		Source:        source,
		TransactionID: transactionID,
		Lines:         paid,
		OccurredAt:    time.Now().UTC(),
	}
}

type PaymentFailedEvent struct {
	ID         string    `json:"id"`
	OrderID    int64     `json:"orderId"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (PaymentFailedEvent) EventName() string  { return "order.payment_failed" }
func (e PaymentFailedEvent) EventKey() string { return strconv.FormatInt(e.OrderID, 10) }

func NewPaymentFailedEvent(orderID int64, reason string) PaymentFailedEvent {
	return PaymentFailedEvent{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

type StatusAdvancedEvent struct {
	ID         string    `json:"id"`
	OrderID    int64     `json:"orderId"`
	From       Status    `json:"from"`
	To         Status    `json:"to"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (StatusAdvancedEvent) EventName() string  { return "order.fulfillment_advanced" }
func (e StatusAdvancedEvent) EventKey() string { return strconv.FormatInt(e.OrderID, 10) }

func NewStatusAdvancedEvent(orderID int64, from, to Status) StatusAdvancedEvent {
	return StatusAdvancedEvent{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		From:       from,
		To:         to,
		OccurredAt: time.Now().UTC(),
	}
}

// EventNames lists every order event, for subscribers that relay all of them.
var EventNames = []string{
	PlacedEvent{}.EventName(),
	PaidEvent{}.EventName(),
	PaymentFailedEvent{}.EventName(),
	StatusAdvancedEvent{}.EventName(),
}
