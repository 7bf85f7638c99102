// Package events forwards committed domain events to the external event sink.
package events

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

const (
	relayService  = "event_relay"
	outcomeSent   = "sent"
	outcomeLogged = "logged"
	outcomeFailed = "failed"
)

// Names lists every event the relay forwards.
func Names() []string {
	names := append([]string(nil), domorder.EventNames...)
	return append(names,
		inventory.StockSetEvent{}.EventName(),
		inventory.SoldOutEvent{}.EventName(),
	)
}

// Relay copies events from the in-process bus to a Sink. Without a sink the events are
// only logged.
type Relay struct {
	subscriber domoutbox.Subscriber
	sink       domoutbox.Sink

	log     observability.Logger
	relayed observability.Counter // events_relayed_total{event,outcome}
}

func NewRelay(subscriber domoutbox.Subscriber, sink domoutbox.Sink, tel observability.Observability) *Relay {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Relay{
		subscriber: subscriber,
		sink:       sink,
		log:        tel.Logger().With(observability.F("service", relayService)),
		relayed:    tel.Metrics().Counter(observability.MEventsRelayed),
	}
}

func (r *Relay) Start() {
	if r.subscriber == nil {
		return
	}
	for _, name := range Names() {
		r.subscriber.Subscribe(name, r.handle)
	}
}

func (r *Relay) handle(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, r.log)

	if r.sink == nil {
		r.count(e, outcomeLogged)
		logger.Info("event_relayed", observability.F("sink", "log"))
		return nil
	}

	if err := r.sink.Send(ctx, e); err != nil {
		r.count(e, outcomeFailed)
		logger.Warn("event_relay_failed", observability.F("error", err.Error()))
		return fmt.Errorf("relay: %s: %w", e.EventName(), err)
	}
	r.count(e, outcomeSent)
	return nil
}

func (r *Relay) count(e domoutbox.Event, outcome string) {
	r.relayed.Add(1,
		observability.L("event", e.EventName()),
		observability.L("outcome", outcome),
	)
}
