package payment

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	dompayment "github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

type ManualUpdateInput struct {
	OrderID       int64
	Status        string
	TransactionID string
}

type ManualUpdateResult struct {
	OrderID       int64                  `json:"orderId"`
	PaymentStatus domorder.PaymentStatus `json:"paymentStatus"`
	OrderStatus   domorder.Status        `json:"orderStatus"`
	StockReduced  bool                   `json:"stockReduced"`
}

// ManualUpdateUseCase lets an operator set the payment status of any order.
type ManualUpdateUseCase struct {
	uow        application.UnitOfWork
	publisher  domoutbox.Publisher
	inst       *application.Instrument
	decrements observability.Counter
}

func NewManualUpdateUseCase(uow application.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *ManualUpdateUseCase {
	return &ManualUpdateUseCase{
		uow:        uow,
		publisher:  publisher,
		inst:       application.NewInstrument(paymentService, tel),
		decrements: decrementCounter(tel),
	}
}

var recordStatus = map[domorder.PaymentStatus]dompayment.Status{
	domorder.PaymentPending: dompayment.StatusPending,
	domorder.PaymentPaid:    dompayment.StatusSuccess,
	domorder.PaymentFailed:  dompayment.StatusFailed,
}

// Execute confirms, resets or fails the payment. Confirming an unpaid order takes the
// same path as a gateway verification so stock leaves the ledger exactly once; a Paid
// order can only have its transaction id amended.
func (uc *ManualUpdateUseCase) Execute(ctx context.Context, cmd ManualUpdateInput) (res *ManualUpdateResult, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseManualOverride, "UpdatePaymentStatus",
		attribute.Int64("order.id", cmd.OrderID),
		attribute.String("payment.requested_status", cmd.Status),
	)
	defer func() { run.End(ctx, err) }()

	to, err := domorder.ParsePaymentStatus(cmd.Status)
	if err != nil {
		run.Reject("STATUS_INVALID")
		return nil, err
	}

	var (
		o       *domorder.Order
		lines   []domorder.Line
		changed bool
	)
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		o, err = tx.Orders().Get(ctx, cmd.OrderID)
		if errors.Is(err, domorder.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return wrapRepositoryError(err)
		}
		res = &ManualUpdateResult{OrderID: o.ID}

		switch {
		case to == domorder.PaymentPaid && !o.Paid():
			var claimed bool
			lines, claimed, err = confirm(ctx, tx, o, inventory.ErrInsufficientStock)
			if errors.Is(err, inventory.ErrInsufficientStock) {
				run.Reject("INSUFFICIENT_STOCK")
				return err
			}
			if err != nil {
				run.Fail("CONFIRM_FAILED")
				return wrapRepositoryError(err)
			}
			res.StockReduced = claimed
			changed = claimed
		case to != domorder.PaymentPaid && o.Paid():
			run.Reject("PAYMENT_SETTLED")
			return domorder.ErrPaymentSettled
		case to != domorder.PaymentPaid:
			changed, err = tx.Orders().SetPaymentStatus(ctx, o.ID, to)
			if err != nil {
				run.Fail("ORDER_UPDATE_FAILED")
				return wrapRepositoryError(err)
			}
			if changed {
				o.PaymentStatus = to
			}
		}

		err = tx.Payments().SetStatus(ctx, o.ID, recordStatus[to], cmd.TransactionID)
		if errors.Is(err, dompayment.ErrNotFound) {
			run.Field("payment_record", "missing")
			return nil
		}
		if err != nil {
			run.Fail("PAYMENT_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	current, err := uc.reload(ctx, o.ID)
	if err != nil {
		run.Fail("ORDER_LOAD_FAILED")
		return nil, err
	}
	res.PaymentStatus, res.OrderStatus = current.PaymentStatus, current.Status

	if !changed {
		run.Note("NO_CHANGE")
		return res, nil
	}
	switch to {
	case domorder.PaymentPaid:
		uc.decrements.Add(float64(units(lines)), observability.L("source", SourceManual))
		run.Publish(ctx, uc.publisher, domorder.NewPaidEvent(o, lines, SourceManual, cmd.TransactionID))
	case domorder.PaymentFailed:
		run.Publish(ctx, uc.publisher, domorder.NewPaymentFailedEvent(o.ID, "manual"))
	}
	return res, nil
}

func (uc *ManualUpdateUseCase) reload(ctx context.Context, id int64) (o *domorder.Order, err error) {
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		o, err = tx.Orders().Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, wrapRepositoryError(err)
	}
	return o, nil
}
