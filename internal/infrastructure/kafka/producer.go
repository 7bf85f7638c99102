package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel"
)

const headerEventName = "event-name"

// Producer is an outbox.Sink that writes domain events to one Kafka topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	log      observability.Logger
}

var _ domoutbox.Sink = (*Producer)(nil)

// NewConfig is the producer configuration: wait for all in-sync replicas and retry.
func NewConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewHashPartitioner
	return config
}

func Dial(brokers []string, topic string, logger observability.Logger) (*Producer, error) {
	p, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}
	return NewProducer(p, topic, logger), nil
}

func NewProducer(p sarama.SyncProducer, topic string, logger observability.Logger) *Producer {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Producer{
		producer: p,
		topic:    topic,
		log:      logger.With(observability.F("component", "kafka_producer"), observability.F("topic", topic)),
	}
}

type message struct {
	Event   string          `json:"event"`
	SentAt  time.Time       `json:"sentAt"`
	Payload domoutbox.Event `json:"payload"`
}

func (p *Producer) Send(ctx context.Context, e domoutbox.Event) error {
	body, err := json.Marshal(message{Event: e.EventName(), SentAt: time.Now().UTC(), Payload: e})
	if err != nil {
		return fmt.Errorf("kafka: marshal %s: %w", e.EventName(), err)
	}

	carrier := headerCarrier{{Key: []byte(headerEventName), Value: []byte(e.EventName())}}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Value:   sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader(carrier),
	}
	if k, ok := e.(domoutbox.Keyed); ok {
		msg.Key = sarama.StringEncoder(k.EventKey())
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka: send %s: %w", e.EventName(), err)
	}

	fields := []observability.Field{
		observability.F("event", e.EventName()),
		observability.F("partition", partition),
		observability.F("offset", offset),
	}
	logctx.FromOr(ctx, p.log).Debug("event_sent", append(fields, observability.TraceFields(ctx)...)...)
	return nil
}

func (p *Producer) Close() error { return p.producer.Close() }

// headerCarrier lets the OTel propagator write into Kafka record headers.
type headerCarrier []sarama.RecordHeader

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
