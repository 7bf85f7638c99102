package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/shopspring/decimal"

	"go.opentelemetry.io/otel/attribute"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
	gatewayPeer        = "payment-gateway"
	gatewayEndpoint    = "create_order"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("order: repository failure")
)

// CreateOrderUseCase turns the caller's cart into a pending order with a gateway order attached.
type CreateOrderUseCase struct {
	uow       application.UnitOfWork
	gateway   payment.Gateway
	publisher domoutbox.Publisher
	currency  string
	inst      *application.Instrument
}

func NewCreateOrderUseCase(
	uow application.UnitOfWork,
	gateway payment.Gateway,
	publisher domoutbox.Publisher,
	currency string,
	tel observability.Observability,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		uow:       uow,
		gateway:   gateway,
		publisher: publisher,
		currency:  currency,
		inst:      application.NewInstrument(orderService, tel),
	}
}

type CreateOrderInput struct {
	UserID          int64
	ShippingAddress string
}

type CreateOrderResult struct {
	OrderID        int64           `json:"orderId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Currency       string          `json:"currency"`
	GatewayOrderID string          `json:"gatewayOrderId"`
	KeyID          string          `json:"keyId"`
	MockMode       bool            `json:"mockMode"`
}

// Execute validates the cart against live stock and writes the order, its lines and the
// pending payment record in one transaction. Nothing is written when any line is short.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *CreateOrderResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.Int64("order.user_id", cmd.UserID),
	)
	defer func() { run.End(ctx, err) }()

	var (
		o         *domain.Order
		lines     []domain.Line
		gatewayID string
	)
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		items, err := tx.Carts().Items(ctx, cmd.UserID)
		if err != nil {
			run.Fail("CART_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		if len(items) == 0 {
			run.Reject("EMPTY_CART")
			return cart.ErrEmptyCart
		}
		if issues := cart.Issues(items); len(issues) > 0 {
			run.Reject("INSUFFICIENT_STOCK")
			run.Field("stock_issues", len(issues))
			return inventory.NewStockError(inventory.ErrInsufficientStock, issues...)
		}

		o, lines, err = domain.New(cmd.UserID, cmd.ShippingAddress, items)
		if err != nil {
			run.Reject("ORDER_INVALID")
			return err
		}
		if err := tx.Orders().Insert(ctx, o, lines); err != nil {
			run.Fail("ORDER_INSERT_FAILED")
			return wrapRepositoryError(err)
		}
		run.Span().SetAttributes(attribute.Int64("order.id", o.ID))

		started := time.Now()
		gatewayID, err = uc.gateway.CreateRemoteOrder(ctx, o.TotalAmount, uc.currency, receipt(o.ID))
		run.External(gatewayPeer, gatewayEndpoint, started, err)
		if err != nil {
			run.Fail("GATEWAY_FAILED")
			return fmt.Errorf("%w: %w", payment.ErrGateway, err)
		}

		if err := tx.Payments().Insert(ctx, payment.NewRecord(o.ID, gatewayID)); err != nil {
			run.Fail("PAYMENT_INSERT_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	run.Field("order_id", o.ID)
	run.Field("total_amount", o.TotalAmount.String())
	run.Publish(ctx, uc.publisher, domain.NewPlacedEvent(o, gatewayID))

	return &CreateOrderResult{
		OrderID:        o.ID,
		TotalAmount:    o.TotalAmount,
		Currency:       uc.currency,
		GatewayOrderID: gatewayID,
		KeyID:          uc.gateway.KeyID(),
		MockMode:       uc.gateway.Mock(),
	}, nil
}

func receipt(orderID int64) string {
	return "order_" + strconv.FormatInt(orderID, 10)
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
