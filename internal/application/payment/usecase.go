package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService        = "payment-service"
	useCaseVerify         = "payment.verify"
	useCaseReportFailure  = "payment.report_failure"
	useCaseManualOverride = "payment.manual_update"

	SourceGateway = "gateway"
	SourceManual  = "manual"
)

var ErrRepository = errors.New("payment: repository failure")

type VerifyInput struct {
	UserID           int64
	OrderID          int64
	GatewayPaymentID string
	Signature        string
}

type VerifyResult struct {
	OrderID       int64                  `json:"orderId"`
	PaymentStatus domorder.PaymentStatus `json:"paymentStatus"`
	OrderStatus   domorder.Status        `json:"orderStatus"`
	AlreadyPaid   bool                   `json:"alreadyPaid"`
}

// VerifyPaymentUseCase confirms a gateway payment and commits the stock it pays for.
type VerifyPaymentUseCase struct {
	uow        application.UnitOfWork
	gateway    dompayment.Gateway
	publisher  domoutbox.Publisher
	inst       *application.Instrument
	decrements observability.Counter // stock_decrements_total{source}
}

func NewVerifyPaymentUseCase(
	uow application.UnitOfWork,
	gateway dompayment.Gateway,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *VerifyPaymentUseCase {
	return &VerifyPaymentUseCase{
		uow:        uow,
		gateway:    gateway,
		publisher:  publisher,
		inst:       application.NewInstrument(paymentService, tel),
		decrements: decrementCounter(tel),
	}
}

// Execute checks the signature before touching anything. A verified payment marks the
// order Paid, decrements every line and clears the buyer's cart in one transaction;
// verifying an order that is already Paid is an idempotent success.
func (uc *VerifyPaymentUseCase) Execute(ctx context.Context, cmd VerifyInput) (res *VerifyResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseVerify, "VerifyPayment",
		attribute.Int64("order.id", cmd.OrderID),
		attribute.Int64("order.user_id", cmd.UserID),
	)
	defer func() { run.End(ctx, err) }()

	var (
		o     *domorder.Order
		lines []domorder.Line
	)
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		o, err = tx.Orders().GetForUser(ctx, cmd.UserID, cmd.OrderID)
		if errors.Is(err, domorder.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return wrapRepositoryError(err)
		}

		rec, err := tx.Payments().GetByOrder(ctx, o.ID)
		if errors.Is(err, dompayment.ErrNotFound) {
			run.Reject("PAYMENT_NOT_FOUND")
			return domorder.ErrNotFound
		}
		if err != nil {
			run.Fail("PAYMENT_LOAD_FAILED")
			return wrapRepositoryError(err)
		}

		if !uc.gateway.VerifySignature(rec.GatewayOrderID, cmd.GatewayPaymentID, cmd.Signature) {
			run.Reject("SIGNATURE_INVALID")
			return domorder.ErrSignatureInvalid
		}

		res = &VerifyResult{OrderID: o.ID}
		if o.Paid() {
			res.AlreadyPaid = true
			return nil
		}

		var claimed bool
		lines, claimed, err = confirm(ctx, tx, o, inventory.ErrStockExhausted)
		if errors.Is(err, inventory.ErrStockExhausted) {
			run.Reject("STOCK_EXHAUSTED")
			return err
		}
		if err != nil {
			run.Fail("CONFIRM_FAILED")
			return wrapRepositoryError(err)
		}
		if !claimed {
			res.AlreadyPaid = true
			return nil
		}

		if err := tx.Payments().MarkSuccess(ctx, o.ID, cmd.GatewayPaymentID, cmd.Signature); err != nil {
			run.Fail("PAYMENT_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		if err := tx.Carts().Clear(ctx, o.UserID); err != nil {
			run.Fail("CART_CLEAR_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyPaid {
		run.Note("ALREADY_PAID")
		res.PaymentStatus, res.OrderStatus = domorder.PaymentPaid, o.Status
		if o.Status == domorder.StatusPending {
			res.OrderStatus = domorder.StatusProcessing
		}
		return res, nil
	}

	res.PaymentStatus, res.OrderStatus = o.PaymentStatus, o.Status
	uc.decrements.Add(float64(units(lines)), observability.L("source", SourceGateway))
	run.Publish(ctx, uc.publisher, domorder.NewPaidEvent(o, lines, SourceGateway, cmd.GatewayPaymentID))
	return res, nil
}

type ReportFailureInput struct {
	UserID  int64
	OrderID int64
	Reason  string
}

type ReportFailureResult struct {
	OrderID       int64                  `json:"orderId"`
	PaymentStatus domorder.PaymentStatus `json:"paymentStatus"`
}

// ReportFailureUseCase records a failed payment attempt. It never downgrades a Paid order.
type ReportFailureUseCase struct {
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	inst      *application.Instrument
}

func NewReportFailureUseCase(uow application.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *ReportFailureUseCase {
	return &ReportFailureUseCase{
		uow:       uow,
		publisher: publisher,
		inst:      application.NewInstrument(paymentService, tel),
	}
}

func (uc *ReportFailureUseCase) Execute(ctx context.Context, cmd ReportFailureInput) (res *ReportFailureResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseReportFailure, "ReportPaymentFailure",
		attribute.Int64("order.id", cmd.OrderID),
		attribute.Int64("order.user_id", cmd.UserID),
	)
	defer func() { run.End(ctx, err) }()

	changed := false
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		o, err := tx.Orders().GetForUser(ctx, cmd.UserID, cmd.OrderID)
		if errors.Is(err, domorder.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		res = &ReportFailureResult{OrderID: o.ID, PaymentStatus: o.PaymentStatus}

		changed, err = tx.Orders().SetPaymentStatus(ctx, o.ID, domorder.PaymentFailed)
		if err != nil {
			run.Fail("ORDER_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		if !changed {
			return nil
		}
		res.PaymentStatus = domorder.PaymentFailed

		err = tx.Payments().MarkFailed(ctx, o.ID, cmd.Reason)
		if err != nil && !errors.Is(err, dompayment.ErrNotFound) {
			run.Fail("PAYMENT_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		run.Note("NO_CHANGE")
		return res, nil
	}
	run.Publish(ctx, uc.publisher, domorder.NewPaymentFailedEvent(res.OrderID, cmd.Reason))
	return res, nil
}

func decrementCounter(tel observability.Observability) observability.Counter {
	if tel == nil {
		return observability.NopCounter()
	}
	return tel.Metrics().Counter(observability.MStockDecrements)
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
