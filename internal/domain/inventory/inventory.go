package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrVariantNotFound   = errors.New("inventory: size unavailable")
	ErrInvalidQuantity   = errors.New("inventory: quantity must not be negative")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrStockExhausted is reported when stock moved between order creation and payment confirmation.
	ErrStockExhausted = errors.New("inventory: stock exhausted at confirmation")
)

// Variant is one (product, size) row of the stock ledger.
type Variant struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"productId"`
	Size      string    `db:"size" json:"size"`
	Quantity  int       `db:"stock_quantity" json:"stockQuantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Covers reports whether the variant can satisfy quantity units.
func (v Variant) Covers(quantity int) bool {
	return quantity <= v.Quantity
}

// StockIssue describes one line whose requested quantity exceeds live stock.
type StockIssue struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Size        string `json:"size"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
	// InCart is the quantity already held in the cart when adding more.
	InCart int `json:"inCart,omitempty"`
}

func (i StockIssue) String() string {
	return fmt.Sprintf("%s (%s): requested %d, available %d", i.ProductName, i.Size, i.Requested, i.Available)
}

// StockError carries every violating line. It unwraps to ErrInsufficientStock or ErrStockExhausted.
type StockError struct {
	Kind   error
	Issues []StockIssue
}

func NewStockError(kind error, issues ...StockIssue) *StockError {
	if kind == nil {
		kind = ErrInsufficientStock
	}
	return &StockError{Kind: kind, Issues: issues}
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		parts = append(parts, i.String())
	}
	return e.Kind.Error() + ": " + strings.Join(parts, "; ")
}

func (e *StockError) Unwrap() error { return e.Kind }
