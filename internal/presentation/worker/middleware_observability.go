package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for one event delivery.
// Dynamic fields only: event name, event key when the event has one, a fresh
// delivery_id, plus trace_id/span_id when the context carries a valid span.
func WithEventContext(ctx context.Context, base observability.Logger, e domoutbox.Event) context.Context {
	if base == nil {
		base = logctx.FromOr(ctx, nil)
	}

	fields := make([]observability.Field, 0, 5)
	fields = append(fields,
		observability.F("event", e.EventName()),
		observability.F("delivery_id", uuid.NewString()),
	)
	if k, ok := e.(domoutbox.Keyed); ok && k.EventKey() != "" {
		fields = append(fields, observability.F("event_key", k.EventKey()))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	return logctx.With(ctx, base.With(fields...))
}

// Subscriber decorates every handler registered through it with WithEventContext.
type Subscriber struct {
	next domoutbox.Subscriber
	log  observability.Logger
}

func NewSubscriber(next domoutbox.Subscriber, base observability.Logger) *Subscriber {
	if base == nil {
		base = observability.NopLogger()
	}
	return &Subscriber{next: next, log: base}
}

func (s *Subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.next.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		return h(WithEventContext(ctx, s.log, e), e)
	})
}
