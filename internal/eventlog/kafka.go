package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// kafkaBatchTimeout flushes small batches quickly; the log is low volume.
	kafkaBatchTimeout = 10 * time.Millisecond
	// kafkaWriteTimeout bounds one mirrored record, retries included.
	kafkaWriteTimeout = 2 * time.Second
	// kafkaMaxAttempts caps broker retries per record.
	kafkaMaxAttempts = 2
)

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink mirrors records to a Kafka topic keyed by event name.
type KafkaSink struct {
	// writer publishes the messages.
	writer messageWriter
	// timeout bounds every Write so a dead broker cannot hold up the caller.
	timeout time.Duration
}

// NewKafkaSink creates a synchronous writer for the topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: kafkaBatchTimeout,
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: kafkaWriteTimeout,
			MaxAttempts:  kafkaMaxAttempts,
		},
		timeout: kafkaWriteTimeout,
	}
}

// Write implements Sink.
func (s *KafkaSink) Write(ctx context.Context, record Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = kafkaWriteTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.EventName()),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("mirror record to kafka: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
