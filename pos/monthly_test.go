package pos_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/pos/store"
)

func newTestMonthlyAggregator(t *testing.T) (*pos.MonthlyAggregator, *pos.BillEngine, *store.Memory, *pos.FixedClock) {
	t.Helper()
	engine, mem, clock, cal := newTestEngine(t)
	return pos.NewMonthlyAggregator(mem, cal), engine, mem, clock
}

// =============================================================================
// REFRESH TESTS
// =============================================================================

func TestMonthlyRefresh_EmptyWindow(t *testing.T) {
	// GIVEN: No bills at all
	// WHEN: Refreshing
	// THEN: ErrNoBillsInWindow, nothing written

	months, _, mem, _ := newTestMonthlyAggregator(t)
	ctx := context.Background()

	_, err := months.Refresh(ctx)
	if !errors.Is(err, pos.ErrNoBillsInWindow) {
		t.Fatalf("expected ErrNoBillsInWindow, got %v", err)
	}

	all, _ := mem.ListMonthlySummaries(ctx, 0)
	if len(all) != 0 {
		t.Errorf("expected no summaries, got %d", len(all))
	}
}

func TestMonthlyRefresh_BillOutsideWindowIgnored(t *testing.T) {
	// GIVEN: Only a bill 31 days old
	// WHEN: Refreshing
	// THEN: The window is empty

	months, engine, mem, clock := newTestMonthlyAggregator(t)
	ctx := context.Background()
	seedProduct(t, mem, "001", "Rice 1kg", 10, 60, 100)

	clock.Advance(-31 * 24 * time.Hour)
	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))
	clock.Advance(31 * 24 * time.Hour)

	if _, err := months.Refresh(ctx); !errors.Is(err, pos.ErrNoBillsInWindow) {
		t.Errorf("expected ErrNoBillsInWindow, got %v", err)
	}
}

func TestMonthlyRefresh_TotalsAndDaysIncluded(t *testing.T) {
	// GIVEN: A bill 10 days ago and one today
	// WHEN: Refreshing
	// THEN: Both bills aggregate; daysIncluded spans oldest through now

	months, engine, mem, clock := newTestMonthlyAggregator(t)
	ctx := context.Background()
	seedProduct(t, mem, "001", "Rice 1kg", 100, 60, 100)

	clock.Advance(-10 * 24 * time.Hour)
	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))
	clock.Advance(10 * 24 * time.Hour)
	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 2}}, money(200))

	summary, err := months.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if !summary.TotalIncome.Equal(money(300)) {
		t.Errorf("expected income 300, got %s", summary.TotalIncome)
	}
	if !summary.TotalProfit.Equal(money(120)) {
		t.Errorf("expected profit 120, got %s", summary.TotalProfit)
	}
	if summary.Month != "2025-12" {
		t.Errorf("expected month key 2025-12, got %s", summary.Month)
	}
	if summary.DaysIncluded != 11 {
		t.Errorf("expected 11 days included (oldest through today), got %d", summary.DaysIncluded)
	}
	if len(summary.Items) != 1 || summary.Items[0].SoldQuantity != 3 {
		t.Errorf("unexpected items: %+v", summary.Items)
	}
}

func TestMonthlyRefresh_SameMonthOverwrites(t *testing.T) {
	// GIVEN: A refresh already recorded this month
	// WHEN: Refreshing again after another sale
	// THEN: Still one record for the month, carrying the newer totals

	months, engine, mem, _ := newTestMonthlyAggregator(t)
	ctx := context.Background()
	seedProduct(t, mem, "001", "Rice 1kg", 100, 60, 100)

	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))
	if _, err := months.Refresh(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))
	summary, err := months.Refresh(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if !summary.TotalIncome.Equal(money(200)) {
		t.Errorf("expected refreshed income 200, got %s", summary.TotalIncome)
	}

	all, _ := months.All(ctx)
	if len(all) != 1 {
		t.Fatalf("expected a single record for the month, got %d", len(all))
	}
	if !all[0].TotalIncome.Equal(money(200)) {
		t.Errorf("stored record not overwritten: %s", all[0].TotalIncome)
	}
}

// =============================================================================
// HISTORY BOUND TESTS
// =============================================================================

func TestMonthlyHistory_BoundedAtTwelve(t *testing.T) {
	// GIVEN: Twelve months of history already retained
	// WHEN: A refresh lands in a thirteenth month
	// THEN: The oldest record is evicted, exactly twelve remain

	months, engine, mem, _ := newTestMonthlyAggregator(t)
	ctx := context.Background()
	seedProduct(t, mem, "001", "Rice 1kg", 100, 60, 100)

	// 2024-12 .. 2025-11 seeded directly.
	for i := 0; i < 12; i++ {
		m := time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		err := mem.UpsertMonthlySummary(ctx, pos.MonthlySummary{
			Month:     m.Format("2006-01"),
			MonthName: m.Format("January 2006"),
			UpdatedAt: m,
		})
		if err != nil {
			t.Fatalf("seed month %d: %v", i, err)
		}
	}

	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))
	if _, err := months.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	all, err := months.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 12 {
		t.Fatalf("expected 12 retained months, got %d", len(all))
	}
	if all[0].Month != "2025-12" {
		t.Errorf("expected newest month first, got %s", all[0].Month)
	}
	for _, s := range all {
		if s.Month == "2024-12" {
			t.Error("oldest month should have been evicted")
		}
	}
}

func TestMonthlySummary_Lookup(t *testing.T) {
	months, engine, mem, _ := newTestMonthlyAggregator(t)
	ctx := context.Background()
	seedProduct(t, mem, "001", "Rice 1kg", 10, 60, 100)

	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))
	refreshed, err := months.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	got, err := months.Summary(ctx, refreshed.Month)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Month != refreshed.Month || !got.TotalIncome.Equal(refreshed.TotalIncome) {
		t.Errorf("lookup mismatch: %+v vs %+v", got, refreshed)
	}

	if _, err := months.Summary(ctx, "1999-01"); !errors.Is(err, pos.ErrSummaryNotFound) {
		t.Errorf("expected ErrSummaryNotFound, got %v", err)
	}
}

func TestMonthlyRefresh_WindowDates(t *testing.T) {
	// The recorded window runs from 29 days back through today.
	months, engine, mem, _ := newTestMonthlyAggregator(t)
	ctx := context.Background()
	seedProduct(t, mem, "001", "Rice 1kg", 10, 60, 100)
	engine.CreateBill(ctx, []pos.SaleLine{{ProductID: "001", Quantity: 1}}, money(100))

	summary, err := months.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if summary.EndDate != "2025-12-15" {
		t.Errorf("expected end date 2025-12-15, got %s", summary.EndDate)
	}
	if summary.StartDate != "2025-11-16" {
		t.Errorf("expected start date 2025-11-16, got %s", summary.StartDate)
	}
	if summary.MonthName != fmt.Sprintf("December %d", 2025) {
		t.Errorf("unexpected month name %s", summary.MonthName)
	}
}
