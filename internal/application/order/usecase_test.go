package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore/sqlstoretest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	buyer   = int64(10)
	address = "12 MG Road, Bengaluru"
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

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type failingGateway struct{ payment.Gateway }

var _ payment.Gateway = failingGateway{}

func (failingGateway) CreateRemoteOrder(context.Context, decimal.Decimal, string, string) (string, error) {
	return "", errors.New("connection reset")
}

func TestCreateOrderSnapshotsCart(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "40.00", map[string]int{"M": 2})
	chinos := sqlstoretest.Product(t, store, "Chinos", "80.00", "", map[string]int{"32": 1})
	sqlstoretest.AddToCart(t, store, buyer, shirt, "M", 2)
	sqlstoretest.AddToCart(t, store, buyer, chinos, "32", 1)

	pub := &recordingPublisher{}
	uc := apporder.NewCreateOrderUseCase(store, gateway.NewMock(), pub, "INR", nil)

	res, err := uc.Execute(context.Background(), apporder.CreateOrderInput{UserID: buyer, ShippingAddress: address})
	require.NoError(t, err)
	assert.Equal(t, "160", res.TotalAmount.String())
	assert.Equal(t, "INR", res.Currency)
	assert.True(t, res.MockMode)
	assert.Contains(t, res.GatewayOrderID, "order_mock_")
	assert.Equal(t, []string{"order.placed"}, pub.names())

	q := apporder.NewQueries(store, nil)
	d, err := q.Get(context.Background(), buyer, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.PaymentPending, d.PaymentStatus)
	assert.Equal(t, domorder.StatusPending, d.Status)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "40", d.Items[0].Price.String())
	require.NotNil(t, d.Payment)
	assert.Equal(t, res.GatewayOrderID, d.Payment.GatewayOrderID)
	assert.Equal(t, payment.StatusPending, d.Payment.Status)
	assert.Equal(t, payment.MethodUPI, d.Payment.Method)

	assert.Equal(t, 2, sqlstoretest.Stock(t, store, shirt, "M"), "placing an order does not touch stock")
	assert.Equal(t, 2, sqlstoretest.Count(t, store, "cart_items"), "the cart survives until payment")
}

func TestCreateOrderIsAtomicOnStockFailure(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 1})
	chinos := sqlstoretest.Product(t, store, "Chinos", "80.00", "", map[string]int{"32": 0})
	sqlstoretest.AddToCart(t, store, buyer, shirt, "M", 2)
	sqlstoretest.AddToCart(t, store, buyer, chinos, "32", 1)

	uc := apporder.NewCreateOrderUseCase(store, gateway.NewMock(), nil, "INR", nil)
	_, err := uc.Execute(context.Background(), apporder.CreateOrderInput{UserID: buyer, ShippingAddress: address})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	var se *inventory.StockError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Issues, 2)
	assert.Equal(t, "Linen Shirt", se.Issues[0].ProductName)
	assert.Equal(t, 2, se.Issues[0].Requested)
	assert.Equal(t, 1, se.Issues[0].Available)

	for _, table := range []string{"orders", "order_items", "payments"} {
		assert.Equal(t, 0, sqlstoretest.Count(t, store, table), table)
	}
}

func TestCreateOrderRollsBackOnGatewayFailure(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 1})
	sqlstoretest.AddToCart(t, store, buyer, shirt, "M", 1)

	uc := apporder.NewCreateOrderUseCase(store, failingGateway{gateway.NewMock()}, nil, "INR", nil)
	_, err := uc.Execute(context.Background(), apporder.CreateOrderInput{UserID: buyer, ShippingAddress: address})
	require.ErrorIs(t, err, payment.ErrGateway)

	assert.Equal(t, 0, sqlstoretest.Count(t, store, "orders"))
	assert.Equal(t, 0, sqlstoretest.Count(t, store, "order_items"))
}

func TestCreateOrderValidation(t *testing.T) {
	store := sqlstoretest.Open(t)
	uc := apporder.NewCreateOrderUseCase(store, gateway.NewMock(), nil, "INR", nil)

	_, err := uc.Execute(context.Background(), apporder.CreateOrderInput{UserID: buyer, ShippingAddress: address})
	assert.ErrorIs(t, err, cart.ErrEmptyCart)

	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 1})
	sqlstoretest.AddToCart(t, store, buyer, shirt, "M", 1)
	_, err = uc.Execute(context.Background(), apporder.CreateOrderInput{UserID: buyer, ShippingAddress: "   "})
	assert.ErrorIs(t, err, domorder.ErrShippingAddressMissing)
	assert.Equal(t, 0, sqlstoretest.Count(t, store, "orders"))
}

func placeOrder(t *testing.T, store *sqlstore.Store, userID, productID int64, size string, qty int) int64 {
	t.Helper()
	sqlstoretest.AddToCart(t, store, userID, productID, size, qty)
	uc := apporder.NewCreateOrderUseCase(store, gateway.NewMock(), nil, "INR", nil)
	res, err := uc.Execute(context.Background(), apporder.CreateOrderInput{UserID: userID, ShippingAddress: address})
	require.NoError(t, err)
	return res.OrderID
}

func TestUpdateStatusIsForwardOnly(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 5})
	id := placeOrder(t, store, buyer, shirt, "M", 1)

	pub := &recordingPublisher{}
	uc := apporder.NewUpdateStatusUseCase(store, pub, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, apporder.UpdateStatusInput{OrderID: id, Status: "Shipped"})
	var te *domorder.TransitionError
	require.True(t, errors.As(err, &te), "skipping a step is rejected")
	assert.Equal(t, domorder.StatusPending, te.Current)
	assert.Equal(t, domorder.StatusShipped, te.Requested)

	for _, st := range []string{"Processing", "Shipped", "Delivered"} {
		o, err := uc.Execute(ctx, apporder.UpdateStatusInput{OrderID: id, Status: st})
		require.NoError(t, err, st)
		assert.Equal(t, domorder.Status(st), o.Status)
	}

	_, err = uc.Execute(ctx, apporder.UpdateStatusInput{OrderID: id, Status: "Processing"})
	assert.ErrorIs(t, err, domorder.ErrInvalidTransition, "no way back")
	_, err = uc.Execute(ctx, apporder.UpdateStatusInput{OrderID: id, Status: "Lost"})
	assert.ErrorIs(t, err, domorder.ErrInvalidStatus)
	_, err = uc.Execute(ctx, apporder.UpdateStatusInput{OrderID: id + 100, Status: "Processing"})
	assert.ErrorIs(t, err, domorder.ErrNotFound)

	assert.Equal(t, []string{
		"order.fulfillment_advanced",
		"order.fulfillment_advanced",
		"order.fulfillment_advanced",
	}, pub.names())
}

func TestPriceSnapshotSurvivesCatalogChange(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 5})
	id := placeOrder(t, store, buyer, shirt, "M", 2)

	err := store.Do(context.Background(), func(ctx context.Context, tx application.Tx) error {
		return tx.Catalog().UpdatePrice(ctx, shirt, decimal.RequireFromString("99.00"), decimal.NullDecimal{})
	})
	require.NoError(t, err)

	d, err := apporder.NewQueries(store, nil).AdminGet(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "100", d.TotalAmount.String())
	assert.Equal(t, "50", d.Items[0].Price.String())
}

func TestQueries(t *testing.T) {
	store := sqlstoretest.Open(t)
	shirt := sqlstoretest.Product(t, store, "Linen Shirt", "50.00", "", map[string]int{"M": 5})
	first := placeOrder(t, store, buyer, shirt, "M", 1)
	second := placeOrder(t, store, buyer+1, shirt, "M", 2)

	q := apporder.NewQueries(store, nil)
	ctx := context.Background()

	mine, err := q.ListForUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first, mine[0].ID)
	assert.Equal(t, 1, mine[0].ItemCount)

	_, err = q.Get(ctx, buyer, second)
	assert.ErrorIs(t, err, domorder.ErrNotFound, "other users' orders are invisible")

	all, err := q.List(ctx, apporder.ListInput{PaymentStatus: "Pending"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = q.List(ctx, apporder.ListInput{Status: "Lost"})
	assert.ErrorIs(t, err, domorder.ErrInvalidStatus)
	_, err = q.List(ctx, apporder.ListInput{From: "yesterday"})
	assert.ErrorIs(t, err, apporder.ErrInvalidDate)

	s, err := q.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalOrders)
	assert.Equal(t, 2, s.PendingPayments)
	assert.True(t, s.TotalRevenue.IsZero())
}

func TestListInputFilterDates(t *testing.T) {
	f, err := apporder.ListInput{From: "2024-03-01", To: "2024-03-31", Search: " 12 "}.Filter()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", f.From.Format("2006-01-02"))
	assert.Equal(t, "2024-04-01", f.To.Format("2006-01-02"), "the upper bound is exclusive of the next day")
	assert.Equal(t, "12", f.Search)
}
