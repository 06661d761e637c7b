/*
scheduler.go - Automated day-end scheduler

PURPOSE:
  Fires at local midnight in the operating timezone and finalizes the day
  that just ended, so a register left running overnight still gets its
  end-of-day snapshot.

DESIGN:
  - Runs a background goroutine armed with a timer to the next midnight
  - Captures the open civil date before sleeping; after the boundary it
    finalizes that date, not whatever "today" has become
  - Skips days that never opened (no bills, so no active marker)
  - A refire or a racing manual day-end is absorbed by the finalize
    compare-and-swap; the loser logs ErrDayFinalized and moves on

USAGE:
  scheduler := NewDayEndScheduler(store, days, calendar)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: EndDay endpoint (manual day-end)
  - pos/day.go: FinalizeDay and its double-finalize guard
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/warp/pos-engine/pos"
)

// DayEndScheduler finalizes each civil day at the midnight boundary.
type DayEndScheduler struct {
	Store    pos.Store
	Days     *pos.DayAggregator
	Calendar *pos.Calendar

	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewDayEndScheduler creates a new scheduler.
func NewDayEndScheduler(store pos.Store, days *pos.DayAggregator, calendar *pos.Calendar) *DayEndScheduler {
	return &DayEndScheduler{
		Store:    store,
		Days:     days,
		Calendar: calendar,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler.
func (ds *DayEndScheduler) Start() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.started {
		return
	}
	ds.started = true

	ds.wg.Add(1)
	go ds.run()

	log.Printf("[Scheduler] Started, next day boundary in %v", ds.untilNextMidnight())
}

// Stop stops the scheduler.
func (ds *DayEndScheduler) Stop() {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.started {
		return
	}
	close(ds.stop)
	ds.wg.Wait()
	ds.started = false
	log.Println("[Scheduler] Stopped")
}

func (ds *DayEndScheduler) run() {
	defer ds.wg.Done()

	for {
		// The day we will close when the boundary passes.
		openDay := ds.Calendar.CivilDate()

		timer := time.NewTimer(ds.untilNextMidnight())
		select {
		case <-timer.C:
			ds.finalize(openDay)
		case <-ds.stop:
			timer.Stop()
			return
		}
	}
}

// untilNextMidnight returns the duration to the next civil day boundary in
// the operating timezone.
func (ds *DayEndScheduler) untilNextMidnight() time.Duration {
	now := ds.Calendar.Now()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, ds.Calendar.Location())
	return next.Sub(now)
}

// finalize closes the given civil day if it was opened and is still active.
func (ds *DayEndScheduler) finalize(day string) {
	ctx := context.Background()

	marker, err := ds.Store.GetActiveDay(ctx, day)
	if err != nil {
		log.Printf("[Scheduler] Error checking day %s: %v", day, err)
		return
	}
	if marker == nil {
		log.Printf("[Scheduler] Day %s had no sales, nothing to finalize", day)
		return
	}
	if !marker.IsActive {
		log.Printf("[Scheduler] Day %s already finalized", day)
		return
	}

	summary, err := ds.Days.FinalizeDay(ctx, day)
	if err != nil {
		if errors.Is(err, pos.ErrDayFinalized) {
			log.Printf("[Scheduler] Day %s was finalized concurrently", day)
			return
		}
		log.Printf("[Scheduler] Error finalizing day %s: %v", day, err)
		return
	}

	log.Printf("[Scheduler] Finalized day %s: income=%s profit=%s",
		day, summary.TotalIncome, summary.TotalProfit)
}

// RunNow finalizes the current civil day immediately (for testing/admin).
func (ds *DayEndScheduler) RunNow() {
	ds.finalize(ds.Calendar.CivilDate())
}
