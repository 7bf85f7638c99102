package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)
	var calls atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)
	h := func(context.Context, domoutbox.Event) error {
		calls.Add(1)
		wg.Done()
		return nil
	}
	bus.Subscribe("order.paid", h)
	bus.Subscribe("order.paid", h)
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{"order.paid"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{"order.placed"}))
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	bus.Stop(ctx)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBusSurvivesHandlerPanicAndError(t *testing.T) {
	bus := NewBus(nil)
	delivered := make(chan struct{}, 1)
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { panic("boom") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error { return errors.New("nope") })
	bus.Subscribe("e", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return nil
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{"e"}))
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	bus.Stop(context.Background())
}

func TestBusPropagatesSpanContext(t *testing.T) {
	bus := NewBus(nil)
	got := make(chan trace.SpanContext, 1)
	bus.Subscribe("e", func(ctx context.Context, _ domoutbox.Event) error {
		got <- trace.SpanContextFromContext(ctx)
		return nil
	})
	bus.Start(context.Background())

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	require.NoError(t, bus.Publish(ctx, testEvent{"e"}))

	select {
	case seen := <-got:
		assert.Equal(t, sc.TraceID(), seen.TraceID())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
	bus.Stop(context.Background())
}

func TestPublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	bus.Stop(context.Background())

	err := bus.Publish(context.Background(), testEvent{"e"})
	assert.ErrorIs(t, err, ErrStopped)
	assert.NoError(t, bus.Publish(context.Background(), nil))
}
