// Package noop provides an event publisher that drops everything, used when
// no Kafka brokers are configured (local development, tests).
package noop

import (
	"context"

	"github.com/novashop/order-service/internal/domain/order"
)

var _ order.EventPublisher = Publisher{}

// Publisher is a no-op EventPublisher.
type Publisher struct{}

func (Publisher) PublishOrderCreated(_ context.Context, _ *order.Order) error { return nil }
