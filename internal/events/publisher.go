package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher publishes domain events to the message broker
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}

// KafkaEventPublisher publishes events through watermill's Kafka transport
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewKafkaEventPublisher connects to the given brokers
func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}

	p.logger.Debug("event published", "topic", topic, "event_type", event.Type, "event_id", event.ID)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// NoopEventPublisher drops events; used when no brokers are configured
type NoopEventPublisher struct {
	logger *slog.Logger
}

func NewNoopEventPublisher(logger *slog.Logger) *NoopEventPublisher {
	return &NoopEventPublisher{logger: logger}
}

func (p *NoopEventPublisher) Publish(ctx context.Context, topic string, event Event) error {
	p.logger.Debug("event publishing disabled, dropping event", "topic", topic, "event_type", event.Type)
	return nil
}

func (p *NoopEventPublisher) Close() error {
	return nil
}
