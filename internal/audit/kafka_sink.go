package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// KafkaSink streams audit events to a Kafka topic, keyed by trace id so
// one run's events land on one partition in order.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink constructs the sink.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Publish sends one event.
func (s *KafkaSink) Publish(ctx context.Context, event domain.AuditEvent) error {
	value, err := json.Marshal(exportLine{
		TicketID:  event.TicketID,
		TraceID:   event.TraceID,
		ActorKind: string(event.ActorKind),
		ActorID:   event.ActorID,
		Action:    string(event.Action),
		Metadata:  event.Metadata,
		Timestamp: event.CreatedAt,
	})
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TraceID),
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
