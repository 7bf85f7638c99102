package application

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Tx exposes the repositories bound to one database transaction.
type Tx interface {
	Stock() inventory.Ledger
	Carts() cart.Repository
	Orders() order.Repository
	Payments() payment.Repository
	Catalog() catalog.Repository
}

// UnitOfWork runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including on panic.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
