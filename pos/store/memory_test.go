package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/pos"
	"github.com/warp/pos-engine/pos/store"
)

func testBill(id, day string, at time.Time, total float64) pos.Bill {
	return pos.Bill{
		BillID:        id,
		Items:         []pos.BillItem{{ProductID: "001", Name: "Rice 1kg", Quantity: 1, Price: decimal.NewFromFloat(total), Total: decimal.NewFromFloat(total)}},
		TotalAmount:   decimal.NewFromFloat(total),
		Cash:          decimal.NewFromFloat(total),
		Change:        decimal.Zero,
		Date:          at,
		Time:          "10:00 AM",
		DayIdentifier: day,
		CreatedAt:     at,
	}
}

// =============================================================================
// TRANSACTION TESTS
// =============================================================================

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that writes a product, a bill, and a marker
	// WHEN: The function returns an error at the end
	// THEN: None of the writes survive

	mem := store.NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	err := mem.WithTx(ctx, func(s pos.Store) error {
		if err := s.InsertProduct(ctx, pos.Product{ProductID: "001", Name: "Rice 1kg", Stock: 5}); err != nil {
			return err
		}
		if err := s.InsertBill(ctx, testBill("10001", "2025-12-15", time.Now(), 100)); err != nil {
			return err
		}
		if err := s.SaveActiveDay(ctx, pos.ActiveDay{Date: "2025-12-15", IsActive: true}); err != nil {
			return err
		}
		if _, err := s.NextBillID(ctx); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the inner error back, got %v", err)
	}

	if p, _ := mem.GetProduct(ctx, "001"); p != nil {
		t.Error("product write survived rollback")
	}
	if b, _ := mem.GetBill(ctx, "10001"); b != nil {
		t.Error("bill write survived rollback")
	}
	if d, _ := mem.GetActiveDay(ctx, "2025-12-15"); d != nil {
		t.Error("marker write survived rollback")
	}

	// The sequence advance rolled back too: the next ID is still 10001.
	id, _ := mem.NextBillID(ctx)
	if id != "10001" {
		t.Errorf("expected sequence restored to 10001, got %s", id)
	}
}

func TestMemory_WithTx_CommitsOnSuccess(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	err := mem.WithTx(ctx, func(s pos.Store) error {
		return s.InsertProduct(ctx, pos.Product{ProductID: "001", Name: "Rice 1kg", Stock: 5})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	p, _ := mem.GetProduct(ctx, "001")
	if p == nil || p.Stock != 5 {
		t.Errorf("committed write missing: %+v", p)
	}
}

// =============================================================================
// SEQUENCE AND CAS TESTS
// =============================================================================

func TestMemory_NextBillID_Monotonic(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	want := []string{"10001", "10002", "10003"}
	for _, expected := range want {
		id, err := mem.NextBillID(ctx)
		if err != nil {
			t.Fatalf("next id: %v", err)
		}
		if id != expected {
			t.Errorf("expected %s, got %s", expected, id)
		}
	}
}

func TestMemory_CloseActiveDay_CAS(t *testing.T) {
	// Only the first close reports the transition.
	mem := store.NewMemory()
	ctx := context.Background()

	mem.SaveActiveDay(ctx, pos.ActiveDay{Date: "2025-12-15", IsActive: true, CurrentTotal: decimal.Zero})

	closed, err := mem.CloseActiveDay(ctx, "2025-12-15")
	if err != nil || !closed {
		t.Fatalf("first close: closed=%v err=%v", closed, err)
	}
	closed, err = mem.CloseActiveDay(ctx, "2025-12-15")
	if err != nil || closed {
		t.Fatalf("second close should lose the CAS: closed=%v err=%v", closed, err)
	}
	closed, _ = mem.CloseActiveDay(ctx, "2099-01-01")
	if closed {
		t.Error("closing a missing day should not transition")
	}
}

func TestMemory_InsertDailySummary_DuplicateConflicts(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	s := pos.DailySummary{Date: "2025-12-15", TotalIncome: decimal.NewFromInt(100)}
	if err := mem.InsertDailySummary(ctx, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mem.InsertDailySummary(ctx, s); !errors.Is(err, pos.ErrDayFinalized) {
		t.Errorf("expected ErrDayFinalized, got %v", err)
	}
}

// =============================================================================
// ORDERING TESTS
// =============================================================================

func TestMemory_BillsForDay_OldestFirst(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	base := time.Date(2025, time.December, 15, 9, 0, 0, 0, time.UTC)

	mem.InsertBill(ctx, testBill("10003", "2025-12-15", base.Add(2*time.Hour), 30))
	mem.InsertBill(ctx, testBill("10001", "2025-12-15", base, 10))
	mem.InsertBill(ctx, testBill("10002", "2025-12-15", base.Add(time.Hour), 20))
	mem.InsertBill(ctx, testBill("10004", "2025-12-16", base.Add(24*time.Hour), 40))

	bills, err := mem.BillsForDay(ctx, "2025-12-15")
	if err != nil {
		t.Fatalf("bills for day: %v", err)
	}
	if len(bills) != 3 {
		t.Fatalf("expected 3 bills, got %d", len(bills))
	}
	for i, want := range []string{"10001", "10002", "10003"} {
		if bills[i].BillID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, bills[i].BillID)
		}
	}
}

func TestMemory_BillsBetween_NewestFirstInclusive(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	base := time.Date(2025, time.December, 10, 9, 0, 0, 0, time.UTC)

	mem.InsertBill(ctx, testBill("10001", "2025-12-10", base, 10))
	mem.InsertBill(ctx, testBill("10002", "2025-12-12", base.Add(48*time.Hour), 20))
	mem.InsertBill(ctx, testBill("10003", "2025-12-14", base.Add(96*time.Hour), 30))

	bills, err := mem.BillsBetween(ctx, base, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("bills between: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("expected 2 bills (bounds inclusive), got %d", len(bills))
	}
	if bills[0].BillID != "10002" || bills[1].BillID != "10001" {
		t.Errorf("expected newest first, got %s then %s", bills[0].BillID, bills[1].BillID)
	}
}

func TestMemory_ListMonthlySummaries_RecentFirstWithLimit(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	for _, m := range []string{"2025-10", "2025-12", "2025-11"} {
		mem.UpsertMonthlySummary(ctx, pos.MonthlySummary{Month: m})
	}

	all, _ := mem.ListMonthlySummaries(ctx, 0)
	if len(all) != 3 || all[0].Month != "2025-12" || all[2].Month != "2025-10" {
		t.Errorf("unexpected order: %+v", all)
	}

	limited, _ := mem.ListMonthlySummaries(ctx, 2)
	if len(limited) != 2 || limited[1].Month != "2025-11" {
		t.Errorf("unexpected limited result: %+v", limited)
	}
}

// =============================================================================
// ISOLATION TESTS
// =============================================================================

func TestMemory_ReturnsClones(t *testing.T) {
	// Mutating a returned bill must not corrupt the stored record.
	mem := store.NewMemory()
	ctx := context.Background()

	mem.InsertBill(ctx, testBill("10001", "2025-12-15", time.Now(), 100))

	got, _ := mem.GetBill(ctx, "10001")
	got.Items[0].Quantity = 999

	again, _ := mem.GetBill(ctx, "10001")
	if again.Items[0].Quantity != 1 {
		t.Errorf("stored bill aliased by caller mutation: %d", again.Items[0].Quantity)
	}
}
