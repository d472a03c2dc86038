package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/seoforge/seoforge/internal/store"
)

// KafkaSink publishes alerts as JSON messages on a topic so downstream
// monitoring can consume the audit stream.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink builds a Kafka sink. Empty brokers yield a nil sink.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (k *KafkaSink) Name() string { return "kafka" }

// Notify writes one alert keyed by its type so per-type ordering holds.
func (k *KafkaSink) Notify(ctx context.Context, a *store.AlertRecord) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert %d: %w", a.ID, err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.Type),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write alert %d to kafka: %w", a.ID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
