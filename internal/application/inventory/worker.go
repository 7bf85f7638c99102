package inventory

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const workerService = "inventory_worker"

// Worker reacts to paid orders after they commit.
type Worker struct {
	subscriber domoutbox.Subscriber
	useCase    application.UseCase[domorder.PaidEvent, *SoldOutResult]

	log        observability.Logger
	reqCounter observability.Counter // usecase_requests_total{use_case,outcome}
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	useCase application.UseCase[domorder.PaidEvent, *SoldOutResult],
	tel observability.Observability,
) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		useCase:    useCase,
		log:        tel.Logger().With(observability.F("service", workerService)),
		reqCounter: tel.Metrics().Counter(observability.MUsecaseRequests),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.useCase == nil {
		return
	}
	w.subscriber.Subscribe(domorder.PaidEvent{}.EventName(), w.handleOrderPaid)
}

func (w *Worker) handleOrderPaid(ctx context.Context, e domoutbox.Event) error {
	const useCase = "inventory.worker.order_paid"
	evt, ok := e.(domorder.PaidEvent)
	if !ok {
		w.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", "ignored"),
		)
		return nil
	}

	if _, err := w.useCase.Execute(ctx, evt); err != nil {
		return fmt.Errorf("worker: sold out check for order %d: %w", evt.OrderID, err)
	}
	return nil
}
