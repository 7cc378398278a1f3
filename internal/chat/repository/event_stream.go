package repository

import (
	"context"
	"encoding/json"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"

	"github.com/segmentio/kafka-go"
)

// EventStream downstream delivery audit stream. Writes are best-effort:
// the fan-out path logs failures and moves on.
type EventStream interface {
	Record(ctx context.Context, ev domain.DeliveryEvent) error
}

type kafkaEventStream struct {
	writer *kafka.Writer
}

// NewKafkaEventStream create an EventStream over a kafka topic
func NewKafkaEventStream(writer *kafka.Writer) EventStream {
	return &kafkaEventStream{writer: writer}
}

func (s *kafkaEventStream) Record(ctx context.Context, ev domain.DeliveryEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.MessageID),
		Value: data,
	})
}
