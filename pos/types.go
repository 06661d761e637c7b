/*
Package pos provides the core settlement engine for a single-register
retail point of sale.

PURPOSE:
  This package contains the domain types and algorithms that turn a stream
  of bill records into consistent running totals, end-of-day snapshots, and
  rolling monthly summaries, while keeping product stock in sync with sales
  and reversals.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: catalog entry with stock and buying/selling prices
  - Bill: an immutable sales transaction with denormalized line items
  - ActiveDay: the running total for a civil day, open until finalized
  - DailySummary / MonthlySummary: persisted aggregation snapshots

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float64
  2. Immutability: bill line items snapshot product state at sale time
  3. Partitioning: the civil date string (YYYY-MM-DD) is the aggregation key
  4. Derivation: summaries are always recomputed from bills, never patched

SEE ALSO:
  - billing.go: sale creation and reversal
  - day.go: daily aggregation and finalize
  - monthly.go: trailing 30-day aggregation
  - store.go: persistence interface
*/
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT - Catalog entry
// =============================================================================

// Product is a catalog entry. ProductID is a fixed-width zero-padded
// 3-digit string in 001-999. Stock never goes negative.
type Product struct {
	ProductID    string
	Name         string
	Stock        int
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductPatch is a partial update to a product. Nil fields are left as-is.
type ProductPatch struct {
	Name         *string
	Stock        *int
	BuyingPrice  *decimal.Decimal
	SellingPrice *decimal.Decimal
}

// =============================================================================
// BILL - Immutable sales transaction
// =============================================================================

// BillItem is a line of a bill. Name and Price are snapshots of the product
// at sale time; later product edits do not rewrite history.
type BillItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// Bill is a completed sale. BillID is a decimal string from a monotonically
// increasing sequence that starts at "10001". DayIdentifier is the civil
// date (YYYY-MM-DD) in the operating timezone and is the partition key for
// all daily aggregation.
type Bill struct {
	BillID        string
	Items         []BillItem
	TotalAmount   decimal.Decimal
	Cash          decimal.Decimal
	Change        decimal.Decimal
	Date          time.Time
	Time          string
	DayIdentifier string
	CreatedAt     time.Time
}

// SaleLine is one requested line of a new sale.
type SaleLine struct {
	ProductID string
	Quantity  int
}

// =============================================================================
// ACTIVE DAY - Running total for an open civil day
// =============================================================================

// ActiveDay tracks the running sales total for one civil day. It is created
// lazily on the first bill of the day and flips IsActive to false exactly
// once, when the day is finalized.
type ActiveDay struct {
	Date         string
	StartedAt    time.Time
	CurrentTotal decimal.Decimal
	IsActive     bool
}

// =============================================================================
// SUMMARIES - Aggregation outputs
// =============================================================================

// SummaryItem is the per-product roll-up used by every aggregation:
// quantity sold, income taken, and profit against the product's current
// buying price.
type SummaryItem struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	SoldQuantity int             `json:"soldQuantity"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	Profit       decimal.Decimal `json:"profit"`
}

// DaySummary is the live, non-persisted view of a day in progress.
type DaySummary struct {
	Date        string
	TotalSales  decimal.Decimal
	TotalProfit decimal.Decimal
	BillCount   int
	Items       []SummaryItem
	Bills       []Bill
}

// DailySummary is the permanent end-of-day snapshot. One per civil day,
// created exactly once by the finalize operation.
type DailySummary struct {
	Date        string
	Items       []SummaryItem
	TotalIncome decimal.Decimal
	TotalProfit decimal.Decimal
	EndedAt     time.Time
}

// MonthlySummary is a derived trailing-30-day roll-up keyed by the calendar
// month (YYYY-MM) it was refreshed in. History is bounded to the 12 most
// recent months.
type MonthlySummary struct {
	Month        string
	MonthName    string
	Items        []SummaryItem
	TotalIncome  decimal.Decimal
	TotalProfit  decimal.Decimal
	StartDate    string
	EndDate      string
	DaysIncluded int
	UpdatedAt    time.Time
}
