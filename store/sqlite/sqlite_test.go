package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleProduct(id string) pos.Product {
	now := time.Date(2025, time.December, 15, 10, 0, 0, 0, time.UTC)
	return pos.Product{
		ProductID:    id,
		Name:         "Rice 1kg",
		Stock:        10,
		BuyingPrice:  decimal.NewFromFloat(60.50),
		SellingPrice: decimal.NewFromFloat(100.25),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleBill(id, day string, at time.Time) pos.Bill {
	return pos.Bill{
		BillID: id,
		Items: []pos.BillItem{
			{ProductID: "001", Name: "Rice 1kg", Quantity: 2, Price: decimal.NewFromFloat(100.25), Total: decimal.NewFromFloat(200.50)},
		},
		TotalAmount:   decimal.NewFromFloat(200.50),
		Cash:          decimal.NewFromFloat(250),
		Change:        decimal.NewFromFloat(49.50),
		Date:          at,
		Time:          "10:00 AM",
		DayIdentifier: day,
		CreatedAt:     at,
	}
}

// =============================================================================
// PRODUCT ROUND-TRIP
// =============================================================================

func TestSQLite_ProductRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := sampleProduct("001")
	require.NoError(t, store.InsertProduct(ctx, p))

	got, err := store.GetProduct(ctx, "001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Stock, got.Stock)
	assert.True(t, p.BuyingPrice.Equal(got.BuyingPrice), "buying price should survive as exact decimal")
	assert.True(t, p.SellingPrice.Equal(got.SellingPrice))
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	// Absent lookups are (nil, nil), not an error.
	missing, err := store.GetProduct(ctx, "404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_ProductDuplicateAndNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertProduct(ctx, sampleProduct("001")))

	err := store.InsertProduct(ctx, sampleProduct("001"))
	assert.ErrorIs(t, err, pos.ErrDuplicateProduct)

	err = store.UpdateProduct(ctx, sampleProduct("404"))
	assert.ErrorIs(t, err, pos.ErrProductNotFound)

	err = store.DeleteProduct(ctx, "404")
	assert.ErrorIs(t, err, pos.ErrProductNotFound)
}

func TestSQLite_ProductSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rice := sampleProduct("001")
	dhal := sampleProduct("002")
	dhal.Name = "Dhal 500g"
	require.NoError(t, store.InsertProduct(ctx, rice))
	require.NoError(t, store.InsertProduct(ctx, dhal))

	results, err := store.SearchProducts(ctx, "RICE", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "001", results[0].ProductID)

	all, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "001", all[0].ProductID, "list should order by id")
}

// =============================================================================
// BILLS AND THE SEQUENCE
// =============================================================================

func TestSQLite_BillRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, time.December, 15, 10, 0, 0, 0, time.UTC)

	b := sampleBill("10001", "2025-12-15", at)
	require.NoError(t, store.InsertBill(ctx, b))

	got, err := store.GetBill(ctx, "10001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, b.TotalAmount.Equal(got.TotalAmount))
	assert.True(t, b.Change.Equal(got.Change))
	assert.Equal(t, "2025-12-15", got.DayIdentifier)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Date.Equal(at))
}

func TestSQLite_NextBillID_StartsAt10001(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, want := range []string{"10001", "10002", "10003"} {
		id, err := store.NextBillID(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestSQLite_BillsForDayAndBetween(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.December, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBill(ctx, sampleBill("10001", "2025-12-10", base)))
	require.NoError(t, store.InsertBill(ctx, sampleBill("10002", "2025-12-10", base.Add(time.Hour))))
	require.NoError(t, store.InsertBill(ctx, sampleBill("10003", "2025-12-12", base.Add(48*time.Hour))))

	day, err := store.BillsForDay(ctx, "2025-12-10")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "10001", day[0].BillID, "oldest first within a day")

	window, err := store.BillsBetween(ctx, base, base.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 3, "bounds are inclusive")
	assert.Equal(t, "10003", window[0].BillID, "newest first in range queries")
}

// =============================================================================
// ACTIVE DAYS AND SUMMARIES
// =============================================================================

func TestSQLite_ActiveDayCAS(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day := pos.ActiveDay{
		Date:         "2025-12-15",
		StartedAt:    time.Date(2025, time.December, 15, 9, 0, 0, 0, time.UTC),
		CurrentTotal: decimal.NewFromFloat(300),
		IsActive:     true,
	}
	require.NoError(t, store.SaveActiveDay(ctx, day))

	// Upsert accumulates via overwrite.
	day.CurrentTotal = decimal.NewFromFloat(500)
	require.NoError(t, store.SaveActiveDay(ctx, day))

	got, err := store.GetActiveDay(ctx, "2025-12-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CurrentTotal.Equal(decimal.NewFromFloat(500)))
	assert.True(t, got.IsActive)

	closed, err := store.CloseActiveDay(ctx, "2025-12-15")
	require.NoError(t, err)
	assert.True(t, closed, "first close wins the CAS")

	closed, err = store.CloseActiveDay(ctx, "2025-12-15")
	require.NoError(t, err)
	assert.False(t, closed, "second close loses the CAS")
}

func TestSQLite_DailySummaryUniqueOnDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := pos.DailySummary{
		Date:        "2025-12-15",
		Items:       []pos.SummaryItem{{ProductID: "001", Name: "Rice 1kg", SoldQuantity: 2, TotalIncome: decimal.NewFromInt(200), Profit: decimal.NewFromInt(80)}},
		TotalIncome: decimal.NewFromInt(250),
		TotalProfit: decimal.NewFromInt(100),
		EndedAt:     time.Date(2025, time.December, 15, 23, 59, 0, 0, time.UTC),
	}
	require.NoError(t, store.InsertDailySummary(ctx, s))

	err := store.InsertDailySummary(ctx, s)
	assert.ErrorIs(t, err, pos.ErrDayFinalized)

	got, err := store.GetDailySummary(ctx, "2025-12-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TotalIncome.Equal(decimal.NewFromInt(250)))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].SoldQuantity)

	dates, err := store.ListDailySummaryDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-15"}, dates)
}

func TestSQLite_MonthlySummaryUpsertListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, m := range []string{"2025-10", "2025-11", "2025-12"} {
		require.NoError(t, store.UpsertMonthlySummary(ctx, pos.MonthlySummary{
			Month:       m,
			MonthName:   m,
			TotalIncome: decimal.NewFromInt(100),
			TotalProfit: decimal.NewFromInt(40),
			UpdatedAt:   time.Now(),
		}))
	}

	// Upsert overwrites in place.
	require.NoError(t, store.UpsertMonthlySummary(ctx, pos.MonthlySummary{
		Month:       "2025-12",
		MonthName:   "December 2025",
		TotalIncome: decimal.NewFromInt(999),
		UpdatedAt:   time.Now(),
	}))

	all, err := store.ListMonthlySummaries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-12", all[0].Month, "most recent first")
	assert.True(t, all[0].TotalIncome.Equal(decimal.NewFromInt(999)))

	limited, err := store.ListMonthlySummaries(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, store.DeleteMonthlySummary(ctx, "2025-10"))
	err = store.DeleteMonthlySummary(ctx, "2025-10")
	assert.ErrorIs(t, err, pos.ErrSummaryNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(s pos.Store) error {
		if err := s.InsertProduct(ctx, sampleProduct("001")); err != nil {
			return err
		}
		if _, err := s.NextBillID(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := store.GetProduct(ctx, "001")
	require.NoError(t, err)
	assert.Nil(t, p, "insert should have rolled back")

	id, err := store.NextBillID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10001", id, "sequence advance should have rolled back")
}

func TestSQLite_WithTx_Commits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s pos.Store) error {
		if err := s.InsertProduct(ctx, sampleProduct("001")); err != nil {
			return err
		}
		return s.InsertBill(ctx, sampleBill("10001", "2025-12-15", time.Now()))
	})
	require.NoError(t, err)

	p, err := store.GetProduct(ctx, "001")
	require.NoError(t, err)
	assert.NotNil(t, p)

	b, err := store.GetBill(ctx, "10001")
	require.NoError(t, err)
	assert.NotNil(t, b)
}
