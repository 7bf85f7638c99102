package cart

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound    = errors.New("cart: line not found")
	ErrEmptyCart       = errors.New("cart: cart is empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be at least 1")
)

// Line is one (product, size) selection in a user's cart. Prices are never stored here.
type Line struct {
	ID        int64  `db:"id" json:"id"`
	UserID    int64  `db:"user_id" json:"userId"`
	ProductID int64  `db:"product_id" json:"productId"`
	Size      string `db:"size" json:"size"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// Item is a cart line joined with the live catalog price and stock ledger.
type Item struct {
	Line
	ProductName   string              `db:"product_name"`
	Price         decimal.Decimal     `db:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price"`
	// Available is zero when the variant no longer exists.
	Available int `db:"available"`
}

func (i Item) UnitPrice() decimal.Decimal {
	return catalog.EffectivePrice(i.Price, i.DiscountPrice)
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Issues re-checks every item against its live availability and returns all violations.
func Issues(items []Item) []inventory.StockIssue {
	var issues []inventory.StockIssue
	for _, it := range items {
		if it.Quantity <= it.Available {
			continue
		}
		issues = append(issues, inventory.StockIssue{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Size:        it.Size,
			Requested:   it.Quantity,
			Available:   it.Available,
		})
	}
	return issues
}

// Total sums the live subtotals.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type Repository interface {
	Items(ctx context.Context, userID int64) ([]Item, error)
	// Find returns nil, nil when the user has no line for (productID, size).
	Find(ctx context.Context, userID, productID int64, size string) (*Line, error)
	// Get returns ErrLineNotFound unless the line exists and belongs to userID.
	Get(ctx context.Context, userID, lineID int64) (*Line, error)
	Insert(ctx context.Context, line *Line) error
	SetQuantity(ctx context.Context, lineID int64, quantity int) error
	Delete(ctx context.Context, userID, lineID int64) error
	Clear(ctx context.Context, userID int64) error
}
