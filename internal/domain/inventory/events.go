package inventory

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// StockSetEvent is emitted when an operator overwrites a variant's quantity.
type StockSetEvent struct {
	ID         string    `json:"id"`
	ProductID  int64     `json:"productId"`
	Size       string    `json:"size"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (StockSetEvent) EventName() string  { return "inventory.stock_set" }
func (e StockSetEvent) EventKey() string { return strconv.FormatInt(e.ProductID, 10) }

func NewStockSetEvent(productID int64, size string, quantity int) StockSetEvent {
	return StockSetEvent{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Size:       size,
		Quantity:   quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// SoldOutEvent is emitted when a confirmed payment drains a variant to zero.
type SoldOutEvent struct {
	ID         string    `json:"id"`
	ProductID  int64     `json:"productId"`
	Size       string    `json:"size"`
	OrderID    int64     `json:"orderId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (SoldOutEvent) EventName() string  { return "inventory.sold_out" }
func (e SoldOutEvent) EventKey() string { return strconv.FormatInt(e.ProductID, 10) }

func NewSoldOutEvent(productID int64, size string, orderID int64) SoldOutEvent {
	return SoldOutEvent{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Size:       size,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}
