package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/novashop/order-service/internal/domain/order"
)

// createOrderRequest is the candidate order body. Amounts decode into
// decimals so client-computed totals survive the trip intact.
type createOrderRequest struct {
	Products []struct {
		ProductID string          `json:"productId"`
		Quantity  int             `json:"quantity"`
		Price     decimal.Decimal `json:"price"`
	} `json:"products"`
	TotalAmount  decimal.Decimal     `json:"totalAmount"`
	CustomerInfo customerInfoPayload `json:"customerInfo"`
}

type createOrderResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	OrderID     string    `json:"orderId"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateOrder handles POST /orders: validate, assign id, persist, publish,
// respond 201 with the assigned id.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest,
			"Invalid order data. Please provide valid products, total amount, and customer information")
		return
	}

	req := order.CreateRequest{
		Products:    make([]order.LineItem, len(body.Products)),
		TotalAmount: body.TotalAmount,
		Customer: order.CustomerInfo{
			CustomerID: body.CustomerInfo.CustomerID,
			Email:      body.CustomerInfo.Email,
		},
	}
	for i, p := range body.Products {
		req.Products[i] = order.LineItem{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.Price,
		}
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		var (
			validationErr *order.ValidationError
			mismatchErr   *order.TotalMismatchError
		)
		switch {
		case errors.As(err, &validationErr):
			writeError(w, http.StatusBadRequest, validationErr.Reason)
		case errors.As(err, &mismatchErr):
			writeError(w, http.StatusBadRequest, "Total amount does not match the sum of product prices")
		case errors.Is(err, order.ErrDuplicateID):
			writeError(w, http.StatusConflict, "Order ID conflict, please try again")
		default:
			writeDownstreamError(w, r, err)
		}
		return
	}

	zctx.From(r.Context()).Info("order created",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.Customer.CustomerID),
	)
	writeJSON(w, http.StatusCreated, createOrderResponse{
		Success:     true,
		Message:     "Order created successfully",
		OrderID:     o.ID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.InexactFloat64(),
		CreatedAt:   o.CreatedAt,
	})
}

type listOrdersResponse struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Data    []orderPayload `json:"data"`
}

// ListOrders handles GET /orders: all orders, newest first. Operational
// convenience endpoint, no pagination at this scale.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	all, err := h.orders.List(r.Context())
	if err != nil {
		writeDownstreamError(w, r, err)
		return
	}

	data := make([]orderPayload, len(all))
	for i := range all {
		data[i] = toPayload(&all[i])
	}
	writeJSON(w, http.StatusOK, listOrdersResponse{
		Success: true,
		Count:   len(data),
		Data:    data,
	})
}

type orderResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    orderPayload `json:"data"`
}

// GetOrder handles GET /orders/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeDownstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Success: true, Data: toPayload(o)})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus handles PATCH /orders/{orderID}/status. Bypasses the
// creation-path validation and publishes no event.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")

	var body updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, order.Status(body.Status))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, invalidStatusMessage())
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "Order not found")
		default:
			writeDownstreamError(w, r, err)
		}
		return
	}

	zctx.From(r.Context()).Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)
	writeJSON(w, http.StatusOK, orderResponse{
		Success: true,
		Message: "Order status updated successfully",
		Data:    toPayload(o),
	})
}

func invalidStatusMessage() string {
	names := make([]string, len(order.Statuses))
	for i, s := range order.Statuses {
		names[i] = string(s)
	}
	return "Invalid status. Valid statuses are: " + strings.Join(names, ", ")
}
