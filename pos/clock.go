/*
clock.go - Civil time in the operating timezone

PURPOSE:
  The register operates in one fixed civil timezone: the "current day" for
  aggregation purposes is the calendar date there, not UTC. Everything that
  needs the time goes through a Clock so tests can freeze it.

KEY TYPES:
  Clock:      Now() provider (SystemClock in production, FixedClock in tests)
  Calendar:   binds a Clock to a timezone and derives civil dates, display
              times, and month keys

DEFAULT TIMEZONE:
  Asia/Colombo, matching the original deployment. Configurable at startup.
*/
package pos

import (
	"sync"
	"time"
)

// DefaultTimezone is the operating timezone used when none is configured.
const DefaultTimezone = "Asia/Colombo"

// Clock provides the current time. Inject FixedClock in tests for
// deterministic civil dates.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a settable clock for tests and demos.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (f *FixedClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the clock to an absolute time.
func (f *FixedClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

// Advance moves the clock forward by d.
func (f *FixedClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// =============================================================================
// CALENDAR - Civil date derivation in a fixed zone
// =============================================================================

// Calendar derives civil dates and display strings from a Clock in one
// fixed timezone.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

// NewCalendar binds clock to the named timezone. An empty name selects
// DefaultTimezone.
func NewCalendar(clock Clock, timezone string) (*Calendar, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Calendar{clock: clock, loc: loc}, nil
}

// MustCalendar is NewCalendar for wiring paths where the timezone is known
// to be valid (tests, defaults).
func MustCalendar(clock Clock, timezone string) *Calendar {
	c, err := NewCalendar(clock, timezone)
	if err != nil {
		panic(err)
	}
	return c
}

// Now returns the current time in the operating timezone.
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Location returns the operating timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// CivilDate returns today's civil date string (YYYY-MM-DD).
func (c *Calendar) CivilDate() string {
	return c.CivilDateOf(c.Now())
}

// CivilDateOf returns the civil date string for t in the operating timezone.
func (c *Calendar) CivilDateOf(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// DisplayTime formats t as the receipt time string, e.g. "02:15 PM".
func (c *Calendar) DisplayTime(t time.Time) string {
	return t.In(c.loc).Format("03:04 PM")
}

// MonthKey returns the calendar-month key for t (YYYY-MM).
func (c *Calendar) MonthKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01")
}

// MonthName returns the human month label for t, e.g. "December 2025".
func (c *Calendar) MonthName(t time.Time) string {
	return t.In(c.loc).Format("January 2006")
}
