// Package kafka implements the order event publisher on top of kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"

	"github.com/novashop/order-service/internal/domain/order"
	"github.com/novashop/order-service/internal/messaging"
)

var _ order.EventPublisher = (*Publisher)(nil)

// Publisher writes order events to a single Kafka topic. The underlying
// writer holds its connections for the lifetime of the process and is safe
// for concurrent use; delivery is at-least-once with no internal retries
// beyond the broker acknowledgement.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher for the given brokers and topic. The hash
// balancer routes messages with the same key to the same partition, so all
// events for one order stay ordered. WriteTimeout bounds a stalled broker so
// it cannot hang a request indefinitely.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// PublishOrderCreated emits a single ORDER_CREATED event keyed by order id.
func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	event := messaging.NewOrderCreated(o)
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order created event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: value,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrapf(err, "write order created event for %s", o.ID)
	}
	return nil
}

// Close flushes and releases the writer's broker connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
