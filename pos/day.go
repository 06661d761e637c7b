/*
day.go - Day aggregator

PURPOSE:
  Computes the point-in-time summary of a civil day's bills, and finalizes
  a day by snapshotting that aggregation into a permanent DailySummary and
  deactivating the day marker.

DOUBLE-FINALIZE GUARD:
  Finalizing claims the active-day marker with a compare-and-swap before
  writing the snapshot, so a repeated scheduler fire or a manual trigger
  racing the scheduler gets ErrDayFinalized instead of a second snapshot.
  Days that never had a marker (no bills, or manual finalize of an old
  date) are backstopped by the summary's unique date key.
*/
package pos

import "context"

// DayAggregator computes live and finalized summaries of a civil day.
type DayAggregator struct {
	store    Store
	calendar *Calendar
}

func NewDayAggregator(store Store, calendar *Calendar) *DayAggregator {
	return &DayAggregator{store: store, calendar: calendar}
}

// CurrentSummary aggregates all bills of the given civil day without
// persisting anything. An empty date means today. Re-running it over
// unchanged bills yields identical output.
func (a *DayAggregator) CurrentSummary(ctx context.Context, date string) (*DaySummary, error) {
	if date == "" {
		date = a.calendar.CivilDate()
	}

	bills, err := a.store.BillsForDay(ctx, date)
	if err != nil {
		return nil, err
	}

	items, income, profit, err := aggregateBills(ctx, a.store, bills)
	if err != nil {
		return nil, err
	}

	return &DaySummary{
		Date:        date,
		TotalSales:  income,
		TotalProfit: profit,
		BillCount:   len(bills),
		Items:       items,
		Bills:       bills,
	}, nil
}

// FinalizeDay snapshots the day's aggregation into a DailySummary and marks
// the day inactive. Exactly one finalize per civil day succeeds.
func (a *DayAggregator) FinalizeDay(ctx context.Context, date string) (*DailySummary, error) {
	if date == "" {
		date = a.calendar.CivilDate()
	}

	marker, err := a.store.GetActiveDay(ctx, date)
	if err != nil {
		return nil, err
	}
	if marker != nil {
		closed, err := a.store.CloseActiveDay(ctx, date)
		if err != nil {
			return nil, err
		}
		if !closed {
			return nil, ErrDayFinalized
		}
	} else {
		existing, err := a.store.GetDailySummary(ctx, date)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDayFinalized
		}
	}

	bills, err := a.store.BillsForDay(ctx, date)
	if err != nil {
		return nil, err
	}
	items, income, profit, err := aggregateBills(ctx, a.store, bills)
	if err != nil {
		return nil, err
	}

	summary := DailySummary{
		Date:        date,
		Items:       items,
		TotalIncome: income,
		TotalProfit: profit,
		EndedAt:     a.calendar.Now(),
	}
	if err := a.store.InsertDailySummary(ctx, summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SummaryDates lists the civil dates with a finalized summary, most
// recent first.
func (a *DayAggregator) SummaryDates(ctx context.Context) ([]string, error) {
	return a.store.ListDailySummaryDates(ctx)
}

// DailySummaryFor returns the persisted snapshot of a finalized day.
func (a *DayAggregator) DailySummaryFor(ctx context.Context, date string) (*DailySummary, error) {
	s, err := a.store.GetDailySummary(ctx, date)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSummaryNotFound
	}
	return s, nil
}
