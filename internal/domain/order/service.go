package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// maxInsertAttempts bounds id-collision retries on creation. The generator's
// collision probability is tiny but non-zero, so a duplicate key triggers a
// fresh id rather than an immediate conflict response.
const maxInsertAttempts = 3

// Service orchestrates the order lifecycle: validated creation with event
// publication, lookups, and status transitions.
type Service struct {
	orders Repository
	events EventPublisher
	lg     *zap.Logger
}

// NewService creates an order Service with the required dependencies.
func NewService(orders Repository, events EventPublisher, lg *zap.Logger) *Service {
	return &Service{
		orders: orders,
		events: events,
		lg:     lg,
	}
}

// Create validates the request, assigns a fresh order id, persists the order
// with status pending, and publishes an ORDER_CREATED event.
//
// A duplicate id on insert is retried with a regenerated id up to
// maxInsertAttempts times; only after exhaustion does ErrDuplicateID surface.
// A publish failure after successful persistence is logged and swallowed:
// the order exists regardless, and the client response must not depend on
// eventing reliability.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		o := &Order{
			ID:          NewOrderID(),
			Products:    req.Products,
			TotalAmount: req.TotalAmount,
			Status:      StatusPending,
			Customer:    req.Customer,
		}

		stored, err := s.orders.Insert(ctx, o)
		if errors.Is(err, ErrDuplicateID) {
			s.lg.Warn("order id collision, regenerating",
				zap.String("order_id", o.ID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "insert order")
		}

		if err := s.events.PublishOrderCreated(ctx, stored); err != nil {
			s.lg.Error("publish order created event",
				zap.String("order_id", stored.ID),
				zap.Error(err),
			)
		}
		return stored, nil
	}

	return nil, ErrDuplicateID
}

// Get returns the order with the given id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// UpdateStatus sets the order's status. Any valid status is reachable from
// any other; membership in the status set is the only gate. No event is
// published for status transitions.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.orders.UpdateStatus(ctx, id, status)
}
