package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// totalTolerance absorbs floating point rounding when clients compute the
// order total on their side.
var totalTolerance = decimal.RequireFromString("0.01")

// ValidationError indicates a structurally invalid order request. It maps to
// HTTP 400 and must never be retried without correcting the payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order data: %s", e.Reason)
}

// TotalMismatchError indicates the declared total does not equal the sum of
// line item prices. Kept distinct from ValidationError so forged totals are
// distinguishable from malformed payloads.
type TotalMismatchError struct {
	Declared   decimal.Decimal
	Calculated decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("total amount %s does not match the sum of product prices %s",
		e.Declared, e.Calculated)
}

// CreateRequest is the candidate order submitted through the creation path.
type CreateRequest struct {
	Products    []LineItem
	TotalAmount decimal.Decimal
	Customer    CustomerInfo
}

// Validate checks the request before any side effect occurs. Checks run in
// order and short-circuit on the first failure. Pure and safe for concurrent
// use.
func (r CreateRequest) Validate() error {
	if len(r.Products) == 0 {
		return &ValidationError{Reason: "at least one product is required"}
	}
	if !r.TotalAmount.IsPositive() {
		return &ValidationError{Reason: "total amount must be greater than 0"}
	}
	if r.Customer.CustomerID == "" {
		return &ValidationError{Reason: "customer id is required"}
	}
	if r.Customer.Email == "" {
		return &ValidationError{Reason: "customer email is required"}
	}

	calculated := decimal.Zero
	for i, item := range r.Products {
		if item.ProductID == "" {
			return &ValidationError{Reason: fmt.Sprintf("product id is required for item %d", i)}
		}
		if item.Quantity <= 0 {
			return &ValidationError{Reason: fmt.Sprintf("quantity must be greater than 0 for product %s", item.ProductID)}
		}
		if item.Price.IsNegative() {
			return &ValidationError{Reason: fmt.Sprintf("price must not be negative for product %s", item.ProductID)}
		}
		calculated = calculated.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if r.TotalAmount.Sub(calculated).Abs().GreaterThan(totalTolerance) {
		return &TotalMismatchError{Declared: r.TotalAmount, Calculated: calculated}
	}
	return nil
}
