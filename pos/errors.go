/*
errors.go - Centralized error types for the settlement engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these to status codes via the classifier helpers
  at the bottom of this file.

ERROR CATEGORIES:
  1. Not-found errors - referenced record absent
  2. Validation errors - sale rejected before any state changes
  3. Conflict errors - uniqueness/finalize violations

USAGE:
  if errors.Is(err, pos.ErrInsufficientStock) {
      // reject the sale, nothing was mutated
  }
*/
package pos

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProductNotFound is returned when a referenced product doesn't exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrBillNotFound is returned when a referenced bill doesn't exist.
	ErrBillNotFound = errors.New("bill not found")

	// ErrSummaryNotFound is returned when no summary exists for the
	// requested date or month.
	ErrSummaryNotFound = errors.New("summary not found")

	// ErrInsufficientStock is returned when a sale asks for more units than
	// the product has on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientCash is returned when the cash tendered does not cover
	// the bill total.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrEmptySale is returned when a sale request carries no line items.
	ErrEmptySale = errors.New("sale has no items")

	// ErrInvalidQuantity is returned when a sale line requests a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrNoBillsInWindow is returned by the rolling aggregator when zero
	// bills fall in the trailing window.
	ErrNoBillsInWindow = errors.New("no bills in the trailing window")

	// ErrDayFinalized is returned when a day is finalized a second time.
	ErrDayFinalized = errors.New("day already finalized")

	// ErrDuplicateProduct is returned when adding a product whose ID is
	// already taken.
	ErrDuplicateProduct = errors.New("product id already exists")

	// ErrInvalidProductID is returned when a product ID is not a 3-digit
	// string in 001-999.
	ErrInvalidProductID = errors.New("invalid product id: must be 001-999")

	// ErrInvalidProduct is returned when product fields fail validation
	// (negative stock or prices, empty name).
	ErrInvalidProduct = errors.New("invalid product")

	// ErrProductIDsExhausted is returned when all 999 product IDs are taken.
	ErrProductIDsExhausted = errors.New("no available product ids")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientStockError reports which product could not cover a sale line.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): available %d, requested %d",
		e.Name, e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InsufficientCashError reports the shortfall on an underpaid sale.
type InsufficientCashError struct {
	Required decimal.Decimal
	Tendered decimal.Decimal
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash: required %s, tendered %s",
		e.Required, e.Tendered)
}

func (e *InsufficientCashError) Unwrap() error {
	return ErrInsufficientCash
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrBillNotFound) ||
		errors.Is(err, ErrSummaryNotFound)
}

// IsClientError returns true if the error is due to invalid input and the
// request should be rejected without retrying.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientCash) ||
		errors.Is(err, ErrEmptySale) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrNoBillsInWindow) ||
		errors.Is(err, ErrDuplicateProduct) ||
		errors.Is(err, ErrInvalidProductID) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrProductIDsExhausted)
}

// IsConflict returns true if the error indicates a uniqueness violation,
// such as finalizing the same day twice.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDayFinalized)
}

func notFoundProduct(productID string) error {
	return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
}

func notFoundBill(billID string) error {
	return fmt.Errorf("%w: %s", ErrBillNotFound, billID)
}
