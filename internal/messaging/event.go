// Package messaging defines the order domain events sent to the broker.
package messaging

import (
	"time"

	"github.com/novashop/order-service/internal/domain/order"
)

// EventTypeOrderCreated is the eventType discriminator for creation events.
const EventTypeOrderCreated = "ORDER_CREATED"

// TopicOrderCreated is the logical topic for creation events. Messages are
// keyed by order id so all events for one order land on the same partition.
const TopicOrderCreated = "order-created"

// OrderCreatedEvent is an immutable projection of an order at creation time.
// It is emitted once per successful creation and never mutated or re-sent
// with updated content.
type OrderCreatedEvent struct {
	OrderID     string      `json:"orderId"`
	CustomerID  string      `json:"customerId"`
	Products    []EventItem `json:"products"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"`
	Timestamp   string      `json:"timestamp"`
	EventType   string      `json:"eventType"`
}

// EventItem is the wire form of a line item inside an event. Prices are
// plain JSON numbers, matching the rest of the payload; consumers must not
// see decimals rendered as strings.
type EventItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// NewOrderCreated builds the creation event for a freshly persisted order.
func NewOrderCreated(o *order.Order) OrderCreatedEvent {
	items := make([]EventItem, len(o.Products))
	for i, item := range o.Products {
		items[i] = EventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
		}
	}
	return OrderCreatedEvent{
		OrderID:     o.ID,
		CustomerID:  o.Customer.CustomerID,
		Products:    items,
		TotalAmount: o.TotalAmount.InexactFloat64(),
		Status:      string(o.Status),
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		EventType:   EventTypeOrderCreated,
	}
}
