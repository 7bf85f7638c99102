package inventory

import "context"

// Ledger is the authoritative per-(product, size) stock counter.
type Ledger interface {
	// Variant returns ErrVariantNotFound when the product has no such size.
	Variant(ctx context.Context, productID int64, size string) (*Variant, error)
	CheckAvailability(ctx context.Context, productID int64, size string, quantity int) (bool, error)
	// Decrement removes quantity units only if at least that many are available,
	// failing with ErrInsufficientStock otherwise.
	Decrement(ctx context.Context, productID int64, size string, quantity int) error
	// Set overwrites the available quantity, creating the variant when missing.
	Set(ctx context.Context, productID int64, size string, quantity int) error
	ListByProduct(ctx context.Context, productID int64) ([]Variant, error)
}
