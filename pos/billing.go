/*
billing.go - Bill engine

PURPOSE:
  Turns a sale request into a persisted bill: validates products, stock,
  and cash, computes line and bill totals, assigns the next bill ID,
  and keeps the day's running total in sync. Also reverses bills with
  compensating stock restoration.

ATOMICITY:
  A sale is all-or-nothing. Validation happens before any write, and the
  stock decrements, bill insert, and active-day upsert are committed in a
  single store transaction. A failing line item leaves no stock mutated.

CONCURRENCY:
  One mutex serializes all mutating operations. The system models a single
  active register; the lock preserves the strictly increasing bill ID
  sequence and the at-most-one-writer invariant on each day's running
  total without trusting callers.

SEE ALSO:
  - stock.go: the reserve/release building blocks
  - day.go: what happens to the bills at end of day
*/
package pos

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// trailingWindowDays is the span of the rolling query/aggregation window,
// inclusive of today.
const trailingWindowDays = 30

// BillEngine creates, reverses, and queries bills.
type BillEngine struct {
	store    TxStore
	calendar *Calendar

	mu sync.Mutex
}

func NewBillEngine(store TxStore, calendar *Calendar) *BillEngine {
	return &BillEngine{store: store, calendar: calendar}
}

// CreateBill validates a sale request and persists it atomically.
//
// Validation order per line: product exists, stock covers the quantity.
// After all lines: cash covers the total. Only when everything passes is
// stock reserved, the bill persisted, and the day's running total updated,
// inside one transaction.
func (e *BillEngine) CreateBill(ctx context.Context, lines []SaleLine, cash decimal.Decimal) (*Bill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(lines) == 0 {
		return nil, ErrEmptySale
	}

	// Dry-run pass: price the sale and reject before touching anything.
	total := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		p, err := e.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, notFoundProduct(line.ProductID)
		}
		if p.Stock < line.Quantity {
			return nil, &InsufficientStockError{
				ProductID: p.ProductID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: line.Quantity,
			}
		}
		total = total.Add(p.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if cash.LessThan(total) {
		return nil, &InsufficientCashError{Required: total, Tendered: cash}
	}

	now := e.calendar.Now()
	day := e.calendar.CivilDateOf(now)

	var bill Bill
	err := e.store.WithTx(ctx, func(s Store) error {
		stock := NewStockLedger(s)

		items := make([]BillItem, 0, len(lines))
		totalAmount := decimal.Zero
		for _, line := range lines {
			p, err := stock.Reserve(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			lineTotal := p.SellingPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			totalAmount = totalAmount.Add(lineTotal)
			items = append(items, BillItem{
				ProductID: p.ProductID,
				Name:      p.Name,
				Quantity:  line.Quantity,
				Price:     p.SellingPrice,
				Total:     lineTotal,
			})
		}

		billID, err := s.NextBillID(ctx)
		if err != nil {
			return err
		}

		bill = Bill{
			BillID:        billID,
			Items:         items,
			TotalAmount:   totalAmount,
			Cash:          cash,
			Change:        cash.Sub(totalAmount),
			Date:          now,
			Time:          e.calendar.DisplayTime(now),
			DayIdentifier: day,
			CreatedAt:     now,
		}
		if err := s.InsertBill(ctx, bill); err != nil {
			return err
		}

		return e.accumulateDayTotal(ctx, s, day, now, totalAmount)
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// accumulateDayTotal upserts the active-day marker for day, adding amount
// to its running total. The first bill of a new day creates the marker.
func (e *BillEngine) accumulateDayTotal(ctx context.Context, s Store, day string, now time.Time, amount decimal.Decimal) error {
	marker, err := s.GetActiveDay(ctx, day)
	if err != nil {
		return err
	}
	if marker == nil {
		marker = &ActiveDay{
			Date:         day,
			StartedAt:    now,
			CurrentTotal: amount,
			IsActive:     true,
		}
	} else {
		marker.CurrentTotal = marker.CurrentTotal.Add(amount)
	}
	return s.SaveActiveDay(ctx, *marker)
}

// DeleteBill reverses a bill: every line item's stock is released (lines
// whose product was deleted are skipped), and if the bill belongs to the
// current civil day, the day's running total is decremented, floored at
// zero. The whole reversal commits atomically.
func (e *BillEngine) DeleteBill(ctx context.Context, billID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.calendar.CivilDate()

	return e.store.WithTx(ctx, func(s Store) error {
		bill, err := s.GetBill(ctx, billID)
		if err != nil {
			return err
		}
		if bill == nil {
			return notFoundBill(billID)
		}

		stock := NewStockLedger(s)
		for _, item := range bill.Items {
			if err := stock.Release(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if bill.DayIdentifier == today {
			marker, err := s.GetActiveDay(ctx, today)
			if err != nil {
				return err
			}
			if marker != nil {
				marker.CurrentTotal = marker.CurrentTotal.Sub(bill.TotalAmount)
				if marker.CurrentTotal.IsNegative() {
					marker.CurrentTotal = decimal.Zero
				}
				if err := s.SaveActiveDay(ctx, *marker); err != nil {
					return err
				}
			}
		}

		return s.DeleteBill(ctx, billID)
	})
}

// =============================================================================
// QUERIES - Read-only, no side effects
// =============================================================================

// BillsForToday returns the current civil day's bills, oldest first.
func (e *BillEngine) BillsForToday(ctx context.Context) ([]Bill, error) {
	return e.store.BillsForDay(ctx, e.calendar.CivilDate())
}

// BillsForDate returns the bills of an arbitrary civil day, oldest first.
func (e *BillEngine) BillsForDate(ctx context.Context, date string) ([]Bill, error) {
	return e.store.BillsForDay(ctx, date)
}

// BillByID returns a single bill.
func (e *BillEngine) BillByID(ctx context.Context, billID string) (*Bill, error) {
	bill, err := e.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, notFoundBill(billID)
	}
	return bill, nil
}

// BillsForTrailing30Days returns bills from the 30-day window ending now,
// newest first.
func (e *BillEngine) BillsForTrailing30Days(ctx context.Context) ([]Bill, error) {
	now := e.calendar.Now()
	from := now.AddDate(0, 0, -(trailingWindowDays - 1))
	return e.store.BillsBetween(ctx, from, now)
}
