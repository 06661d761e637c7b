/*
store.go - Persistence interface for the ledger store

PURPOSE:
  Defines the record interface between the engine and durable storage:
  insert, find-one-by-unique-key, find-many-by-filter, update-in-place,
  delete-by-key, and sorted listing with a limit, per entity. Different
  implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:    per-entity record operations
  TxStore:  Store plus WithTx for atomic multi-record operations

SEQUENCES AND CAS:
  Two operations deliberately go beyond plain record access:
  - NextBillID: a dedicated atomic sequence (seeded so the first bill is
    "10001") instead of scanning for the current maximum. Closes the
    duplicate-id race between concurrent sales.
  - CloseActiveDay: compare-and-swap of the day marker's active flag, so a
    repeated finalize (scheduler refire, manual trigger) cannot snapshot
    the same day twice.

NOT-FOUND CONVENTION:
  GetX lookups return (nil, nil) when the record is absent; the engine
  translates that into the domain not-found errors. UpdateX/DeleteX return
  the domain not-found error directly.

IMPLEMENTATIONS:
  - pos/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go: production SQLite
*/
package pos

import (
	"context"
	"time"
)

// Store is the record interface the engine reads and writes through.
type Store interface {
	// Products
	InsertProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, productID string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, productID string) error

	// Bills
	InsertBill(ctx context.Context, b Bill) error
	GetBill(ctx context.Context, billID string) (*Bill, error)
	BillsForDay(ctx context.Context, day string) ([]Bill, error)
	BillsBetween(ctx context.Context, from, to time.Time) ([]Bill, error)
	DeleteBill(ctx context.Context, billID string) error
	NextBillID(ctx context.Context) (string, error)

	// Active day markers
	GetActiveDay(ctx context.Context, date string) (*ActiveDay, error)
	SaveActiveDay(ctx context.Context, day ActiveDay) error
	CloseActiveDay(ctx context.Context, date string) (bool, error)

	// Daily summaries
	InsertDailySummary(ctx context.Context, s DailySummary) error
	GetDailySummary(ctx context.Context, date string) (*DailySummary, error)
	ListDailySummaryDates(ctx context.Context) ([]string, error)

	// Monthly summaries
	UpsertMonthlySummary(ctx context.Context, s MonthlySummary) error
	GetMonthlySummary(ctx context.Context, month string) (*MonthlySummary, error)
	ListMonthlySummaries(ctx context.Context, limit int) ([]MonthlySummary, error)
	DeleteMonthlySummary(ctx context.Context, month string) error
}

// TxStore wraps Store with transaction support. Use this when several
// records must change together (a sale, a reversal).
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view of the store.
	// If fn returns an error, every write made inside it is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
