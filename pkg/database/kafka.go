package database

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriterWithRetry builds a Kafka writer and confirms the
// connection with a probe message before handing it out
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var writer *kafka.Writer

	err := withRetry(k.RetryCount, k.RetryInterval, func() error {
		writer = kafka.NewWriter(kafka.WriterConfig{
			Brokers:  k.Brokers,
			Topic:    k.Topic,
			Balancer: &kafka.LeastBytes{},
		})

		dialErr := writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte("ping"),
			Value: []byte("ping"),
		})
		if dialErr != nil {
			writer.Close()
		}
		return dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka writer after %d attempts: %v", k.RetryCount, err)
	}

	return writer, nil
}
