package repository

import (
	"context"
	"fmt"

	"PulseWatch/internal/domain/models"
	pkgkafka "PulseWatch/pkg/kafka"
)

// KafkaAlertPublisher is an AlertSink that publishes alerts to a Kafka topic.
// Messages are keyed by instrument id so alerts for one instrument stay
// ordered within a partition.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates the sink over an existing producer.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

// Name identifies the sink in logs and metrics.
func (p *KafkaAlertPublisher) Name() string { return "kafka" }

// Publish sends the alerts as one batch.
func (p *KafkaAlertPublisher) Publish(ctx context.Context, alerts []models.AlertSignal) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(a.InstrumentID),
			Value: a,
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaAlertPublisher) Close() error {
	return p.producer.Close()
}
