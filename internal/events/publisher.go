package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cartify/internal/logger"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NewSyncProducer dials the brokers with acknowledgements from all
// in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Producer.RequiredAcks = sarama.WaitForAll
	conf.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, conf)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) Publisher {
	return &kafkaPublisher{producer: producer, topic: topic, now: time.Now}
}

// Publish sends the event keyed by order id, so events of one order land
// on the same partition in order.
func (p *kafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "events"),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("order_id", event.OrderID),
	)

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.OrderID, 10)),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	})
	if err != nil {
		log.Error("failed to publish event", zap.Error(err))
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	log.Debug("event published",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event. It is used
// when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event OrderEvent) error {
	logger.FromCtx(ctx).Debug("event dropped, no broker configured",
		zap.String("event_type", string(event.Type)),
		zap.Int64("order_id", event.OrderID),
	)
	return nil
}

func (noopPublisher) Close() error { return nil }
