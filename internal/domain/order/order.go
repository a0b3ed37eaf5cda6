package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. There is no enforced transition
// graph: any valid status may be set from any other.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every recognized order status.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one product entry within an order.
type LineItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CustomerInfo identifies the customer who placed an order.
type CustomerInfo struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
}

// Order is the persisted order record. The ID is immutable once assigned;
// only Status and UpdatedAt change after creation.
type Order struct {
	ID          string
	Products    []LineItem
	TotalAmount decimal.Decimal
	Status      Status
	Customer    CustomerInfo
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Sentinel errors returned by Repository implementations and the Service.
var (
	ErrNotFound      = errors.New("order not found")
	ErrDuplicateID   = errors.New("order id already exists")
	ErrInvalidStatus = errors.New("invalid order status")
)

// Repository defines persistence operations for orders. Implementations must
// enforce uniqueness of the order id on Insert.
type Repository interface {
	// Insert persists a new order and returns the stored record including
	// server-assigned timestamps. Returns ErrDuplicateID when the id exists.
	Insert(ctx context.Context, o *Order) (*Order, error)
	// FindByID returns the order or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus replaces status and updated_at, returning the full
	// updated record, or ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	// List returns all orders, newest first.
	List(ctx context.Context) ([]Order, error)
}

// EventPublisher emits a notification of order creation to an external
// messaging system. One attempt per creation; no internal retries.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}
