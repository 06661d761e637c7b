package pos_test

import (
	"testing"
	"time"

	"github.com/warp/pos-engine/pos"
)

func TestCalendar_CivilDateCrossesUTCMidnight(t *testing.T) {
	// GIVEN: 20:00 UTC on Dec 15
	// WHEN: Deriving the civil date in the default timezone (UTC+5:30)
	// THEN: It is already Dec 16 locally

	clock := pos.NewFixedClock(time.Date(2025, time.December, 15, 20, 0, 0, 0, time.UTC))
	cal := pos.MustCalendar(clock, "")

	if got := cal.CivilDate(); got != "2025-12-16" {
		t.Errorf("expected 2025-12-16, got %s", got)
	}
}

func TestCalendar_ConfigurableTimezone(t *testing.T) {
	clock := pos.NewFixedClock(time.Date(2025, time.December, 15, 20, 0, 0, 0, time.UTC))

	utc := pos.MustCalendar(clock, "UTC")
	if got := utc.CivilDate(); got != "2025-12-15" {
		t.Errorf("expected 2025-12-15 in UTC, got %s", got)
	}

	if _, err := pos.NewCalendar(clock, "Not/AZone"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestCalendar_DisplayFormats(t *testing.T) {
	// 08:45 UTC is 14:15 in Colombo.
	clock := pos.NewFixedClock(time.Date(2025, time.December, 15, 8, 45, 0, 0, time.UTC))
	cal := pos.MustCalendar(clock, "")
	now := cal.Now()

	if got := cal.DisplayTime(now); got != "02:15 PM" {
		t.Errorf("expected 02:15 PM, got %s", got)
	}
	if got := cal.MonthKey(now); got != "2025-12" {
		t.Errorf("expected 2025-12, got %s", got)
	}
	if got := cal.MonthName(now); got != "December 2025" {
		t.Errorf("expected December 2025, got %s", got)
	}
}

func TestFixedClock_SetAndAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := pos.NewFixedClock(start)

	clock.Advance(36 * time.Hour)
	if got := clock.Now(); !got.Equal(start.Add(36 * time.Hour)) {
		t.Errorf("advance mismatch: %v", got)
	}

	target := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	clock.Set(target)
	if got := clock.Now(); !got.Equal(target) {
		t.Errorf("set mismatch: %v", got)
	}
}
