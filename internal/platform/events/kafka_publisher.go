// Package events publishes series lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	"github.com/segmentio/kafka-go"
)

// KafkaSeriesPublisher writes series lifecycle events to a single topic,
// keyed by currency code so events for one series stay ordered.
type KafkaSeriesPublisher struct {
	writer *kafka.Writer
}

// NewKafkaSeriesPublisher creates a publisher for the given brokers and topic.
func NewKafkaSeriesPublisher(brokers []string, topic string) *KafkaSeriesPublisher {
	return &KafkaSeriesPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

var _ ports.SeriesEventPublisher = (*KafkaSeriesPublisher)(nil)

// PublishSeriesEvent writes a single event to the topic.
func (p *KafkaSeriesPublisher) PublishSeriesEvent(ctx context.Context, event ports.SeriesEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode series event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.CurrencyCode),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish series event %s: %w", event.EventType, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaSeriesPublisher) Close() error {
	return p.writer.Close()
}

// NoopSeriesPublisher discards events. It is used when no brokers are
// configured.
type NoopSeriesPublisher struct{}

var _ ports.SeriesEventPublisher = (*NoopSeriesPublisher)(nil)

// PublishSeriesEvent discards the event.
func (NoopSeriesPublisher) PublishSeriesEvent(context.Context, ports.SeriesEvent) error {
	return nil
}
