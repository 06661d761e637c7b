/*
monthly.go - Rolling-period aggregator

PURPOSE:
  Builds a trailing 30-day summary across all bills and upserts it into a
  bounded monthly history. The record is keyed by the calendar month the
  refresh ran in; refreshing twice in one month overwrites that month's
  record with the newer window. History is trimmed to the 12 most recent
  months, oldest evicted first.
*/
package pos

import (
	"context"
	"math"
)

// retainedMonths bounds the monthly summary history.
const retainedMonths = 12

// MonthlyAggregator maintains the trailing-30-day monthly summaries.
type MonthlyAggregator struct {
	store    Store
	calendar *Calendar
}

func NewMonthlyAggregator(store Store, calendar *Calendar) *MonthlyAggregator {
	return &MonthlyAggregator{store: store, calendar: calendar}
}

// Refresh aggregates the trailing 30-day window ending now and upserts the
// result under the current month key. Fails with ErrNoBillsInWindow when
// the window is empty.
func (a *MonthlyAggregator) Refresh(ctx context.Context) (*MonthlySummary, error) {
	now := a.calendar.Now()
	from := now.AddDate(0, 0, -(trailingWindowDays - 1))

	bills, err := a.store.BillsBetween(ctx, from, now)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, ErrNoBillsInWindow
	}

	items, income, profit, err := aggregateBills(ctx, a.store, bills)
	if err != nil {
		return nil, err
	}

	oldest := bills[0].Date
	for _, b := range bills[1:] {
		if b.Date.Before(oldest) {
			oldest = b.Date
		}
	}
	// Calendar days from the oldest qualifying bill through now, inclusive.
	daysIncluded := int(math.Ceil(now.Sub(oldest).Hours()/24)) + 1

	summary := MonthlySummary{
		Month:        a.calendar.MonthKey(now),
		MonthName:    a.calendar.MonthName(now),
		Items:        items,
		TotalIncome:  income,
		TotalProfit:  profit,
		StartDate:    a.calendar.CivilDateOf(from),
		EndDate:      a.calendar.CivilDateOf(now),
		DaysIncluded: daysIncluded,
		UpdatedAt:    now,
	}
	if err := a.store.UpsertMonthlySummary(ctx, summary); err != nil {
		return nil, err
	}

	if err := a.evictOldest(ctx); err != nil {
		return nil, err
	}
	return &summary, nil
}

// evictOldest trims the history to the most recent retainedMonths records.
func (a *MonthlyAggregator) evictOldest(ctx context.Context) error {
	all, err := a.store.ListMonthlySummaries(ctx, 0)
	if err != nil {
		return err
	}
	for _, old := range all[min(retainedMonths, len(all)):] {
		if err := a.store.DeleteMonthlySummary(ctx, old.Month); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns one month's record.
func (a *MonthlyAggregator) Summary(ctx context.Context, month string) (*MonthlySummary, error) {
	s, err := a.store.GetMonthlySummary(ctx, month)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSummaryNotFound
	}
	return s, nil
}

// All returns the retained history, most recent month first.
func (a *MonthlyAggregator) All(ctx context.Context) ([]MonthlySummary, error) {
	return a.store.ListMonthlySummaries(ctx, retainedMonths)
}
