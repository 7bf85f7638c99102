package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrInvalidPrice = errors.New("catalog: price must be positive")
	ErrInvalidName  = errors.New("catalog: name is required")
)

type Product struct {
	ID            int64               `db:"id"`
	Name          string              `db:"name"`
	Price         decimal.Decimal     `db:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price"`
	CreatedAt     time.Time           `db:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

// EffectivePrice is the discount price when one is set and positive, else the list price.
func EffectivePrice(price decimal.Decimal, discount decimal.NullDecimal) decimal.Decimal {
	if discount.Valid && discount.Decimal.IsPositive() {
		return discount.Decimal
	}
	return price
}

func (p Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.DiscountPrice)
}

// NewProduct validates a product before it is inserted.
func NewProduct(name string, price decimal.Decimal, discount decimal.NullDecimal) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if err := ValidatePrice(price, discount); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Product{
		Name:          name,
		Price:         price,
		DiscountPrice: discount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ValidatePrice rejects non-positive list prices and negative discounts.
func ValidatePrice(price decimal.Decimal, discount decimal.NullDecimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	if discount.Valid && discount.Decimal.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id int64) (*Product, error)
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal, discount decimal.NullDecimal) error
}
