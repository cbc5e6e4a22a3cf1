//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	ledgerkafka "medichain/internal/ledger/kafka"
	"medichain/internal/ledger/models"
	"medichain/internal/platform/config"
	platformkafka "medichain/internal/platform/kafka"
	id "medichain/pkg/domain"
	"medichain/pkg/testutil/containers"
)

func TestPublisher_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redpanda := containers.NewRedpandaContainer(t)

	const topic = "medichain.ledger.events.test"

	producer, err := platformkafka.New(config.KafkaConfig{
		Brokers:         redpanda.Broker,
		Topic:           topic,
		DeliveryTimeout: 10 * time.Second,
	}, slog.Default())
	require.NoError(t, err)
	defer producer.Close()

	require.NoError(t, producer.EnsureTopic(ctx, topic))

	publisher := ledgerkafka.NewPublisher(producer, topic)
	event := models.Event{
		Position:     1,
		RecordID:     id.RecordID(42),
		Actor:        id.AccountID("0xalice"),
		Kind:         models.KindRecordCreated,
		Target:       "City Hospital",
		ArtifactHash: "abc123",
		AppendedAt:   time.Now().UTC(),
	}
	require.NoError(t, publisher.Publish(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)

	record := records[0]
	require.Equal(t, "42", string(record.Key))

	var decoded models.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	require.Equal(t, event.Position, decoded.Position)
	require.Equal(t, event.RecordID, decoded.RecordID)
	require.Equal(t, event.Kind, decoded.Kind)
	require.Equal(t, event.Target, decoded.Target)

	var kindHeader string
	for _, h := range record.Headers {
		if h.Key == "kind" {
			kindHeader = string(h.Value)
		}
	}
	require.Equal(t, string(models.KindRecordCreated), kindHeader)
}
