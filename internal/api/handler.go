// Package api exposes the order service HTTP surface: JSON over HTTP/1.1
// with the storefront's {success, ...} envelope contract.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/novashop/order-service/internal/domain/order"
)

// ServiceName identifies this service in health responses.
const ServiceName = "order-service"

// Handler holds the HTTP endpoints for the order service.
type Handler struct {
	orders *order.Service
}

// NewHandler constructs a Handler delegating to the given order service.
func NewHandler(orders *order.Service) *Handler {
	return &Handler{orders: orders}
}

// Routes builds the router for the full API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{orderID}", h.GetOrder)
		r.Patch("/{orderID}/status", h.UpdateOrderStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// errorResponse is the failure envelope shared by all endpoints.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// orderItemPayload is the wire form of a line item.
type orderItemPayload struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// customerInfoPayload is the wire form of customer info.
type customerInfoPayload struct {
	CustomerID string `json:"customerId"`
	Email      string `json:"email"`
}

// orderPayload is the wire form of a full order record.
type orderPayload struct {
	OrderID      string              `json:"orderId"`
	Products     []orderItemPayload  `json:"products"`
	TotalAmount  float64             `json:"totalAmount"`
	Status       string              `json:"status"`
	CustomerInfo customerInfoPayload `json:"customerInfo"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// toPayload converts a domain order to its wire form. Decimal amounts become
// plain JSON numbers at this boundary only.
func toPayload(o *order.Order) orderPayload {
	items := make([]orderItemPayload, len(o.Products))
	for i, item := range o.Products {
		items[i] = orderItemPayload{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
		}
	}
	return orderPayload{
		OrderID:     o.ID,
		Products:    items,
		TotalAmount: o.TotalAmount.InexactFloat64(),
		Status:      string(o.Status),
		CustomerInfo: customerInfoPayload{
			CustomerID: o.Customer.CustomerID,
			Email:      o.Customer.Email,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the failure envelope with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

// writeDownstreamError logs the error with request context and responds 500
// without leaking internals to the client.
func writeDownstreamError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
