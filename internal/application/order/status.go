package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderAdvance = "order.update_status"

// UpdateStatusUseCase moves an order one step along the fulfillment chain.
type UpdateStatusUseCase struct {
	uow       application.UnitOfWork
	publisher domoutbox.Publisher
	inst      *application.Instrument
}

func NewUpdateStatusUseCase(uow application.UnitOfWork, publisher domoutbox.Publisher, tel observability.Observability) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		uow:       uow,
		publisher: publisher,
		inst:      application.NewInstrument(orderService, tel),
	}
}

type UpdateStatusInput struct {
	OrderID int64
	Status  string
}

// Execute applies the transition. The write only lands while the stored status still
// equals the one that was validated, so two operators cannot skip a step between them.
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, cmd UpdateStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseOrderAdvance, "UpdateOrderStatus",
		attribute.Int64("order.id", cmd.OrderID),
		attribute.String("order.requested_status", cmd.Status),
	)
	defer func() { run.End(ctx, err) }()

	to, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		run.Reject("STATUS_INVALID")
		return nil, err
	}

	var (
		o    *domain.Order
		from domain.Status
	)
	err = uc.uow.Do(ctx, func(ctx context.Context, tx application.Tx) error {
		var err error
		o, err = tx.Orders().Get(ctx, cmd.OrderID)
		if errors.Is(err, domain.ErrNotFound) {
			run.Reject("ORDER_NOT_FOUND")
			return err
		}
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return wrapRepositoryError(err)
		}

		from = o.Status
		if err := domain.CanAdvance(from, to); err != nil {
			run.Reject("TRANSITION_INVALID")
			return err
		}

		ok, err := tx.Orders().AdvanceStatus(ctx, o.ID, from, to)
		if err != nil {
			run.Fail("ORDER_UPDATE_FAILED")
			return wrapRepositoryError(err)
		}
		if !ok {
			current, err := tx.Orders().Get(ctx, o.ID)
			if err != nil {
				run.Fail("ORDER_LOAD_FAILED")
				return wrapRepositoryError(err)
			}
			run.Reject("TRANSITION_LOST")
			return &domain.TransitionError{Current: current.Status, Requested: to}
		}
		o.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	run.Field("from", string(from))
	run.Field("to", string(to))
	run.Publish(ctx, uc.publisher, domain.NewStatusAdvancedEvent(o.ID, from, to))
	return o, nil
}
