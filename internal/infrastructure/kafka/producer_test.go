package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type paidEvent struct {
	OrderID int64 `json:"orderId"`
}

func (paidEvent) EventName() string { return "order.paid" }
func (paidEvent) EventKey() string  { return "42" }

func TestSendWritesKeyedMessageWithTraceHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	mp := mocks.NewSyncProducer(t, NewConfig())
	var sent *sarama.ProducerMessage
	mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		sent = msg
		return nil
	})

	p := NewProducer(mp, "order_events", nil)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xa},
		SpanID:     trace.SpanID{0xb},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	require.NoError(t, p.Send(ctx, paidEvent{OrderID: 42}))
	require.NoError(t, p.Close())
	require.NotNil(t, sent)

	assert.Equal(t, "order_events", sent.Topic)
	key, err := sent.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "42", string(key))

	value, err := sent.Value.Encode()
	require.NoError(t, err)
	var body struct {
		Event   string    `json:"event"`
		Payload paidEvent `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(value, &body))
	assert.Equal(t, "order.paid", body.Event)
	assert.Equal(t, int64(42), body.Payload.OrderID)

	carrier := headerCarrier(sent.Headers)
	assert.Equal(t, "order.paid", carrier.Get(headerEventName))
	assert.Contains(t, carrier.Get("traceparent"), sc.TraceID().String())
}

func TestSendReportsBrokerFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, NewConfig())
	mp.ExpectSendMessageAndFail(errors.New("leader not available"))

	p := NewProducer(mp, "order_events", nil)
	err := p.Send(context.Background(), paidEvent{OrderID: 1})
	assert.ErrorContains(t, err, "leader not available")
	require.NoError(t, p.Close())
}
