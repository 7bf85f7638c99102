package inventory_test

import (
	"context"
	"sync"
	"testing"

	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func TestSetStock(t *testing.T) {
	store := sqlstoretest.Open(t)
	pid := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 1})
	pub := &recordingPublisher{}
	svc := appinventory.NewAdminService(store, pub, nil)
	ctx := context.Background()

	v, err := svc.SetStock(ctx, appinventory.SetStockInput{ProductID: pid, Size: "M", Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, v.Quantity)

	v, err = svc.SetStock(ctx, appinventory.SetStockInput{ProductID: pid, Size: "XL", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "XL", v.Size)
	assert.Equal(t, 2, sqlstoretest.Stock(t, store, pid, "XL"))

	_, err = svc.SetStock(ctx, appinventory.SetStockInput{ProductID: pid, Size: "M", Quantity: -1})
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
	_, err = svc.SetStock(ctx, appinventory.SetStockInput{ProductID: pid + 1, Size: "M", Quantity: 1})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	require.Len(t, pub.events, 2)
	assert.Equal(t, "inventory.stock_set", pub.events[0].EventName())
}

func TestCreateProductAndUpdatePrice(t *testing.T) {
	store := sqlstoretest.Open(t)
	svc := appinventory.NewAdminService(store, nil, nil)
	ctx := context.Background()

	view, err := svc.CreateProduct(ctx, appinventory.CreateProductInput{
		Name:          "Chinos",
		Price:         decimal.RequireFromString("80.00"),
		DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("70.00")),
		Stock:         map[string]int{"30": 2, "32": 4},
	})
	require.NoError(t, err)
	assert.Len(t, view.Variants, 2)
	assert.Equal(t, 4, sqlstoretest.Stock(t, store, view.ID, "32"))

	_, err = svc.CreateProduct(ctx, appinventory.CreateProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, catalog.ErrInvalidName)
	_, err = svc.CreateProduct(ctx, appinventory.CreateProductInput{Name: "Free", Price: decimal.Zero})
	assert.ErrorIs(t, err, catalog.ErrInvalidPrice)

	updated, err := svc.UpdatePrice(ctx, appinventory.UpdatePriceInput{ProductID: view.ID, Price: decimal.RequireFromString("90.00")})
	require.NoError(t, err)
	assert.Equal(t, "90", updated.Price.String())
	assert.False(t, updated.DiscountPrice.Valid)

	_, err = svc.UpdatePrice(ctx, appinventory.UpdatePriceInput{ProductID: view.ID + 1, Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSoldOutWorker(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 0})
	chinos := sqlstoretest.Product(t, store, "Chinos", "80.00", "", map[string]int{"32": 3})

	pub := &recordingPublisher{}
	sub := &captureSubscriber{}
	appinventory.NewWorker(sub, appinventory.NewSoldOutUseCase(store, pub, nil), nil).Start()

	h, ok := sub.handlers["order.paid"]
	require.True(t, ok)

	evt := domorder.PaidEvent{
		OrderID: 9,
		Lines: []domorder.PaidLine{
			{ProductID: shirt, Size: "M", Quantity: 2},
			{ProductID: chinos, Size: "32", Quantity: 1},
		},
	}
	require.NoError(t, h(context.Background(), evt))

	require.Len(t, pub.events, 1)
	soldOut, ok := pub.events[0].(inventory.SoldOutEvent)
	require.True(t, ok)
	assert.Equal(t, shirt, soldOut.ProductID)
	assert.Equal(t, int64(9), soldOut.OrderID)

	require.NoError(t, h(context.Background(), domorder.PaymentFailedEvent{}), "unexpected payloads are ignored")
}

type captureSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (c *captureSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if c.handlers == nil {
		c.handlers = map[string]domoutbox.Handler{}
	}
	c.handlers[name] = h
}
