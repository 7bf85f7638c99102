// Package sqlstoretest opens throwaway SQLite stores for tests.
package sqlstoretest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated store backed by a file in t.TempDir().
func Open(t testing.TB) *sqlstore.Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "storefront.db")
	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// Product inserts a product with the given prices (discount may be empty) and per-size stock.
func Product(t testing.TB, store *sqlstore.Store, name, price, discount string, stock map[string]int) int64 {
	t.Helper()
	var d decimal.NullDecimal
	if discount != "" {
		d = decimal.NewNullDecimal(decimal.RequireFromString(discount))
	}
	p, err := catalog.NewProduct(name, decimal.RequireFromString(price), d)
	require.NoError(t, err)

	err = store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		if err := tx.Catalog().Insert(ctx, p); err != nil {
			return err
		}
		for size, qty := range stock {
			if err := tx.Stock().Set(ctx, p.ID, size, qty); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return p.ID
}

// Stock reads the current quantity of a variant.
func Stock(t testing.TB, store *sqlstore.Store, productID int64, size string) int {
	t.Helper()
	var v *inventory.Variant
	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		var err error
		v, err = tx.Stock().Variant(ctx, productID, size)
		return err
	})
	require.NoError(t, err)
	return v.Quantity
}

// Count returns the number of rows in table.
func Count(t testing.TB, store *sqlstore.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

// SetStock overwrites a variant's quantity.
func SetStock(t testing.TB, store *sqlstore.Store, productID int64, size string, qty int) {
	t.Helper()
	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		return tx.Stock().Set(ctx, productID, size, qty)
	})
	require.NoError(t, err)
}

// AddToCart inserts a cart line directly, bypassing the stock check.
func AddToCart(t testing.TB, store *sqlstore.Store, userID, productID int64, size string, qty int) {
	t.Helper()
	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		return tx.Carts().Insert(ctx, &cart.Line{UserID: userID, ProductID: productID, Size: size, Quantity: qty})
	})
	require.NoError(t, err)
}
