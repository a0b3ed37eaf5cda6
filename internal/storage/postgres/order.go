package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/novashop/order-service/internal/domain/order"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

const (
	insertOrderSQL = `INSERT INTO orders (order_id, products, total_amount, status, customer_id, customer_email)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING order_id, products, total_amount, status, customer_id, customer_email, created_at, updated_at`

	findOrderSQL = `SELECT order_id, products, total_amount, status, customer_id, customer_email, created_at, updated_at
	FROM orders WHERE order_id = $1`

	updateStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE order_id = $1
	RETURNING order_id, products, total_amount, status, customer_id, customer_email, created_at, updated_at`

	listOrdersSQL = `SELECT order_id, products, total_amount, status, customer_id, customer_email, created_at, updated_at
	FROM orders ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. The
// orders table's primary key is the authoritative uniqueness check for
// order ids.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert persists a new order. Line items are serialized to JSON for the
// JSONB column. Returns order.ErrDuplicateID when the id already exists.
func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) (*order.Order, error) {
	productsJSON, err := json.Marshal(o.Products)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order products")
	}

	row := r.pool.QueryRow(ctx, insertOrderSQL,
		o.ID, productsJSON, o.TotalAmount, o.Status, o.Customer.CustomerID, o.Customer.Email,
	)
	stored, err := scanOrder(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, order.ErrDuplicateID
		}
		return nil, errors.Wrapf(err, "insert order %q", o.ID)
	}
	return stored, nil
}

// FindByID returns the order or order.ErrNotFound.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, findOrderSQL, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find order %q", id)
	}
	return o, nil
}

// UpdateStatus replaces status and updated_at, returning the full updated
// record. Concurrent writers are last-writer-wins; no conflict detection.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, updateStatusSQL, id, status)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "update status of order %q", id)
	}
	return o, nil
}

// List returns all orders ordered by creation time, descending.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order row")
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return out, nil
}

// scanOrder reads one order row, deserializing the JSONB products column.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o            order.Order
		productsJSON []byte
		total        decimal.Decimal
		status       string
	)
	err := row.Scan(
		&o.ID, &productsJSON, &total, &status,
		&o.Customer.CustomerID, &o.Customer.Email,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(productsJSON, &o.Products); err != nil {
		return nil, errors.Wrap(err, "unmarshal order products")
	}
	o.TotalAmount = total
	o.Status = order.Status(status)
	return &o, nil
}
