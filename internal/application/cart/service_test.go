package cart_test

import (
	"context"
	"errors"
	"testing"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID = int64(1)

func TestAddLineMergesAndChecksStock(t *testing.T) {
	store := sqlstoretest.Open(t)
	pid := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "40.00", map[string]int{"M": 3})
	svc := appcart.NewService(store, nil)
	ctx := context.Background()

	line, err := svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: pid, Size: "M", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	line, err = svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: pid, Size: "M"})
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity, "zero quantity defaults to one and merges into the existing line")
	assert.Equal(t, 1, sqlstoretest.Count(t, store, "cart_items"))

	_, err = svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: pid, Size: "M", Quantity: 1})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	var se *inventory.StockError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Issues, 1)
	assert.Equal(t, 3, se.Issues[0].Available)
	assert.Equal(t, 3, se.Issues[0].InCart)
	assert.Equal(t, 4, se.Issues[0].Requested)

	assert.Equal(t, 3, sqlstoretest.Stock(t, store, pid, "M"), "adding to the cart never reserves stock")
}

func TestAddLineRejectsBadInput(t *testing.T) {
	store := sqlstoretest.Open(t)
	pid := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 3})
	svc := appcart.NewService(store, nil)
	ctx := context.Background()

	_, err := svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: pid, Size: "XL", Quantity: 1})
	assert.ErrorIs(t, err, inventory.ErrVariantNotFound)

	_, err = svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: pid, Size: "M", Quantity: -1})
	assert.ErrorIs(t, err, domcart.ErrInvalidQuantity)

	assert.Equal(t, 0, sqlstoretest.Count(t, store, "cart_items"))
}

func TestUpdateAndRemoveLine(t *testing.T) {
	store := sqlstoretest.Open(t)
	pid := sqlstoretest.Product(t, store, "Chinos", "80.00", "", map[string]int{"32": 2})
	svc := appcart.NewService(store, nil)
	ctx := context.Background()

	line, err := svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: pid, Size: "32", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLine(ctx, userID, line.ID, 2))
	assert.ErrorIs(t, svc.UpdateLine(ctx, userID, line.ID, 3), inventory.ErrInsufficientStock)
	assert.ErrorIs(t, svc.UpdateLine(ctx, userID, line.ID, 0), domcart.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.UpdateLine(ctx, userID+1, line.ID, 1), domcart.ErrLineNotFound, "lines are scoped to their owner")

	assert.ErrorIs(t, svc.RemoveLine(ctx, userID+1, line.ID), domcart.ErrLineNotFound)
	require.NoError(t, svc.RemoveLine(ctx, userID, line.ID))
	assert.ErrorIs(t, svc.RemoveLine(ctx, userID, line.ID), domcart.ErrLineNotFound)
}

func TestValidateReportsEveryIssue(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 2})
	chinos := sqlstoretest.Product(t, store, "Chinos", "80.00", "", map[string]int{"32": 1})
	svc := appcart.NewService(store, nil)
	ctx := context.Background()

	res, err := svc.Validate(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, appcart.ReasonEmptyCart, res.Reason)

	_, err = svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: shirt, Size: "M", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: chinos, Size: "32", Quantity: 1})
	require.NoError(t, err)

	res, err = svc.Validate(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 2, res.ItemCount)

	sqlstoretest.SetStock(t, store, shirt, "M", 1)
	sqlstoretest.SetStock(t, store, chinos, "32", 0)

	res, err = svc.Validate(ctx, userID)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.StockIssues, 2)
	assert.Equal(t, "Linen Shirt", res.StockIssues[0].ProductName)
	assert.Equal(t, 1, res.StockIssues[0].Available)
	assert.Equal(t, 0, res.StockIssues[1].Available)
}

func TestViewUsesLivePrices(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "40.00", map[string]int{"M": 5})
	chinos := sqlstoretest.Product(t, store, "Chinos", "80.00", "", map[string]int{"32": 5})
	svc := appcart.NewService(store, nil)
	ctx := context.Background()

	_, err := svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: shirt, Size: "M", Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddLine(ctx, appcart.AddLineInput{UserID: userID, ProductID: chinos, Size: "32", Quantity: 1})
	require.NoError(t, err)

	v, err := svc.View(ctx, userID)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "40", v.Items[0].UnitPrice.String())
	assert.Equal(t, "80", v.Items[0].Subtotal.String())
	assert.Equal(t, 5, v.Items[0].Available)
	assert.Equal(t, "160", v.Total.String())

	empty, err := svc.View(ctx, userID+1)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.Total.IsZero())
}
