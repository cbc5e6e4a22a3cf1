package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	platformkafka "medichain/internal/platform/kafka"
	"medichain/internal/ledger/models"
)

// Publisher serializes ledger events to JSON and produces them to a single
// Kafka topic, keyed by record ID so per-record order survives partitioning.
type Publisher struct {
	producer *platformkafka.Producer
	topic    string
}

func NewPublisher(producer *platformkafka.Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	return p.producer.Produce(ctx, &platformkafka.Message{
		Topic: p.topic,
		Key:   []byte(event.RecordID.String()),
		Value: payload,
		Headers: map[string]string{
			"kind": string(event.Kind),
		},
	})
}
