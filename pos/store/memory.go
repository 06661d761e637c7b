// Package store provides an in-memory Store implementation for tests and dev.
package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// firstBillSeq seeds the bill sequence so the first bill is "10001".
const firstBillSeq = 10000

type Memory struct {
	mu               sync.RWMutex
	products         map[string]pos.Product
	bills            map[string]pos.Bill
	activeDays       map[string]pos.ActiveDay
	dailySummaries   map[string]pos.DailySummary
	monthlySummaries map[string]pos.MonthlySummary
	billSeq          int64
}

func NewMemory() *Memory {
	return &Memory{
		products:         make(map[string]pos.Product),
		bills:            make(map[string]pos.Bill),
		activeDays:       make(map[string]pos.ActiveDay),
		dailySummaries:   make(map[string]pos.DailySummary),
		monthlySummaries: make(map[string]pos.MonthlySummary),
		billSeq:          firstBillSeq,
	}
}

// -----------------------------------------------------------------------------
// Products
// -----------------------------------------------------------------------------

func (m *Memory) InsertProduct(_ context.Context, p pos.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertProductLocked(p)
}

func (m *Memory) insertProductLocked(p pos.Product) error {
	if _, ok := m.products[p.ProductID]; ok {
		return pos.ErrDuplicateProduct
	}
	m.products[p.ProductID] = p
	return nil
}

func (m *Memory) GetProduct(_ context.Context, productID string) (*pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProductLocked(productID)
}

func (m *Memory) getProductLocked(productID string) (*pos.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListProducts(_ context.Context) ([]pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listProductsLocked()
}

func (m *Memory) listProductsLocked() ([]pos.Product, error) {
	result := make([]pos.Product, 0, len(m.products))
	for _, p := range m.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProductID < result[j].ProductID })
	return result, nil
}

func (m *Memory) SearchProducts(_ context.Context, query string, limit int) ([]pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchProductsLocked(query, limit)
}

func (m *Memory) searchProductsLocked(query string, limit int) ([]pos.Product, error) {
	needle := strings.ToLower(query)
	all, _ := m.listProductsLocked()

	result := []pos.Product{}
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			result = append(result, p)
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *Memory) UpdateProduct(_ context.Context, p pos.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateProductLocked(p)
}

func (m *Memory) updateProductLocked(p pos.Product) error {
	if _, ok := m.products[p.ProductID]; !ok {
		return pos.ErrProductNotFound
	}
	m.products[p.ProductID] = p
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteProductLocked(productID)
}

func (m *Memory) deleteProductLocked(productID string) error {
	if _, ok := m.products[productID]; !ok {
		return pos.ErrProductNotFound
	}
	delete(m.products, productID)
	return nil
}

// -----------------------------------------------------------------------------
// Bills
// -----------------------------------------------------------------------------

func (m *Memory) InsertBill(_ context.Context, b pos.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertBillLocked(b)
}

func (m *Memory) insertBillLocked(b pos.Bill) error {
	m.bills[b.BillID] = cloneBill(b)
	return nil
}

func (m *Memory) GetBill(_ context.Context, billID string) (*pos.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBillLocked(billID)
}

func (m *Memory) getBillLocked(billID string) (*pos.Bill, error) {
	b, ok := m.bills[billID]
	if !ok {
		return nil, nil
	}
	clone := cloneBill(b)
	return &clone, nil
}

func (m *Memory) BillsForDay(_ context.Context, day string) ([]pos.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.billsForDayLocked(day)
}

func (m *Memory) billsForDayLocked(day string) ([]pos.Bill, error) {
	result := []pos.Bill{}
	for _, b := range m.bills {
		if b.DayIdentifier == day {
			result = append(result, cloneBill(b))
		}
	}
	// Oldest first; bill IDs break creation-time ties deterministically.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].BillID < result[j].BillID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) BillsBetween(_ context.Context, from, to time.Time) ([]pos.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.billsBetweenLocked(from, to)
}

func (m *Memory) billsBetweenLocked(from, to time.Time) ([]pos.Bill, error) {
	result := []pos.Bill{}
	for _, b := range m.bills {
		if !b.Date.Before(from) && !b.Date.After(to) {
			result = append(result, cloneBill(b))
		}
	}
	// Newest first.
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].BillID > result[j].BillID
		}
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (m *Memory) DeleteBill(_ context.Context, billID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteBillLocked(billID)
}

func (m *Memory) deleteBillLocked(billID string) error {
	if _, ok := m.bills[billID]; !ok {
		return pos.ErrBillNotFound
	}
	delete(m.bills, billID)
	return nil
}

func (m *Memory) NextBillID(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextBillIDLocked()
}

func (m *Memory) nextBillIDLocked() (string, error) {
	m.billSeq++
	return strconv.FormatInt(m.billSeq, 10), nil
}

// -----------------------------------------------------------------------------
// Active day markers
// -----------------------------------------------------------------------------

func (m *Memory) GetActiveDay(_ context.Context, date string) (*pos.ActiveDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getActiveDayLocked(date)
}

func (m *Memory) getActiveDayLocked(date string) (*pos.ActiveDay, error) {
	d, ok := m.activeDays[date]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *Memory) SaveActiveDay(_ context.Context, day pos.ActiveDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveActiveDayLocked(day)
}

func (m *Memory) saveActiveDayLocked(day pos.ActiveDay) error {
	m.activeDays[day.Date] = day
	return nil
}

func (m *Memory) CloseActiveDay(_ context.Context, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeActiveDayLocked(date)
}

func (m *Memory) closeActiveDayLocked(date string) (bool, error) {
	d, ok := m.activeDays[date]
	if !ok || !d.IsActive {
		return false, nil
	}
	d.IsActive = false
	m.activeDays[date] = d
	return true, nil
}

// -----------------------------------------------------------------------------
// Daily summaries
// -----------------------------------------------------------------------------

func (m *Memory) InsertDailySummary(_ context.Context, s pos.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertDailySummaryLocked(s)
}

func (m *Memory) insertDailySummaryLocked(s pos.DailySummary) error {
	if _, ok := m.dailySummaries[s.Date]; ok {
		return pos.ErrDayFinalized
	}
	m.dailySummaries[s.Date] = cloneDailySummary(s)
	return nil
}

func (m *Memory) GetDailySummary(_ context.Context, date string) (*pos.DailySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getDailySummaryLocked(date)
}

func (m *Memory) getDailySummaryLocked(date string) (*pos.DailySummary, error) {
	s, ok := m.dailySummaries[date]
	if !ok {
		return nil, nil
	}
	clone := cloneDailySummary(s)
	return &clone, nil
}

func (m *Memory) ListDailySummaryDates(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listDailySummaryDatesLocked()
}

func (m *Memory) listDailySummaryDatesLocked() ([]string, error) {
	dates := make([]string, 0, len(m.dailySummaries))
	for date := range m.dailySummaries {
		dates = append(dates, date)
	}
	// Most recent first; YYYY-MM-DD sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// -----------------------------------------------------------------------------
// Monthly summaries
// -----------------------------------------------------------------------------

func (m *Memory) UpsertMonthlySummary(_ context.Context, s pos.MonthlySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertMonthlySummaryLocked(s)
}

func (m *Memory) upsertMonthlySummaryLocked(s pos.MonthlySummary) error {
	m.monthlySummaries[s.Month] = cloneMonthlySummary(s)
	return nil
}

func (m *Memory) GetMonthlySummary(_ context.Context, month string) (*pos.MonthlySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getMonthlySummaryLocked(month)
}

func (m *Memory) getMonthlySummaryLocked(month string) (*pos.MonthlySummary, error) {
	s, ok := m.monthlySummaries[month]
	if !ok {
		return nil, nil
	}
	clone := cloneMonthlySummary(s)
	return &clone, nil
}

func (m *Memory) ListMonthlySummaries(_ context.Context, limit int) ([]pos.MonthlySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listMonthlySummariesLocked(limit)
}

func (m *Memory) listMonthlySummariesLocked(limit int) ([]pos.MonthlySummary, error) {
	result := make([]pos.MonthlySummary, 0, len(m.monthlySummaries))
	for _, s := range m.monthlySummaries {
		result = append(result, cloneMonthlySummary(s))
	}
	// Most recent month first; YYYY-MM sorts lexically.
	sort.Slice(result, func(i, j int) bool { return result[i].Month > result[j].Month })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) DeleteMonthlySummary(_ context.Context, month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteMonthlySummaryLocked(month)
}

func (m *Memory) deleteMonthlySummaryLocked(month string) error {
	if _, ok := m.monthlySummaries[month]; !ok {
		return pos.ErrSummaryNotFound
	}
	delete(m.monthlySummaries, month)
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn against a transactional view. For the memory store the
// transaction is simulated with a snapshot + restore on error.
func (m *Memory) WithTx(_ context.Context, fn func(pos.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	view := &txMemoryView{parent: m}

	if err := fn(view); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	products         map[string]pos.Product
	bills            map[string]pos.Bill
	activeDays       map[string]pos.ActiveDay
	dailySummaries   map[string]pos.DailySummary
	monthlySummaries map[string]pos.MonthlySummary
	billSeq          int64
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		products:         make(map[string]pos.Product, len(m.products)),
		bills:            make(map[string]pos.Bill, len(m.bills)),
		activeDays:       make(map[string]pos.ActiveDay, len(m.activeDays)),
		dailySummaries:   make(map[string]pos.DailySummary, len(m.dailySummaries)),
		monthlySummaries: make(map[string]pos.MonthlySummary, len(m.monthlySummaries)),
		billSeq:          m.billSeq,
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.bills {
		s.bills[k] = cloneBill(v)
	}
	for k, v := range m.activeDays {
		s.activeDays[k] = v
	}
	for k, v := range m.dailySummaries {
		s.dailySummaries[k] = cloneDailySummary(v)
	}
	for k, v := range m.monthlySummaries {
		s.monthlySummaries[k] = cloneMonthlySummary(v)
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.products = s.products
	m.bills = s.bills
	m.activeDays = s.activeDays
	m.dailySummaries = s.dailySummaries
	m.monthlySummaries = s.monthlySummaries
	m.billSeq = s.billSeq
}

// txMemoryView routes Store calls to the parent's locked internals; the
// parent holds its write lock for the whole transaction.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) InsertProduct(_ context.Context, p pos.Product) error {
	return tv.parent.insertProductLocked(p)
}

func (tv *txMemoryView) GetProduct(_ context.Context, productID string) (*pos.Product, error) {
	return tv.parent.getProductLocked(productID)
}

func (tv *txMemoryView) ListProducts(_ context.Context) ([]pos.Product, error) {
	return tv.parent.listProductsLocked()
}

func (tv *txMemoryView) SearchProducts(_ context.Context, query string, limit int) ([]pos.Product, error) {
	return tv.parent.searchProductsLocked(query, limit)
}

func (tv *txMemoryView) UpdateProduct(_ context.Context, p pos.Product) error {
	return tv.parent.updateProductLocked(p)
}

func (tv *txMemoryView) DeleteProduct(_ context.Context, productID string) error {
	return tv.parent.deleteProductLocked(productID)
}

func (tv *txMemoryView) InsertBill(_ context.Context, b pos.Bill) error {
	return tv.parent.insertBillLocked(b)
}

func (tv *txMemoryView) GetBill(_ context.Context, billID string) (*pos.Bill, error) {
	return tv.parent.getBillLocked(billID)
}

func (tv *txMemoryView) BillsForDay(_ context.Context, day string) ([]pos.Bill, error) {
	return tv.parent.billsForDayLocked(day)
}

func (tv *txMemoryView) BillsBetween(_ context.Context, from, to time.Time) ([]pos.Bill, error) {
	return tv.parent.billsBetweenLocked(from, to)
}

func (tv *txMemoryView) DeleteBill(_ context.Context, billID string) error {
	return tv.parent.deleteBillLocked(billID)
}

func (tv *txMemoryView) NextBillID(_ context.Context) (string, error) {
	return tv.parent.nextBillIDLocked()
}

func (tv *txMemoryView) GetActiveDay(_ context.Context, date string) (*pos.ActiveDay, error) {
	return tv.parent.getActiveDayLocked(date)
}

func (tv *txMemoryView) SaveActiveDay(_ context.Context, day pos.ActiveDay) error {
	return tv.parent.saveActiveDayLocked(day)
}

func (tv *txMemoryView) CloseActiveDay(_ context.Context, date string) (bool, error) {
	return tv.parent.closeActiveDayLocked(date)
}

func (tv *txMemoryView) InsertDailySummary(_ context.Context, s pos.DailySummary) error {
	return tv.parent.insertDailySummaryLocked(s)
}

func (tv *txMemoryView) GetDailySummary(_ context.Context, date string) (*pos.DailySummary, error) {
	return tv.parent.getDailySummaryLocked(date)
}

func (tv *txMemoryView) ListDailySummaryDates(_ context.Context) ([]string, error) {
	return tv.parent.listDailySummaryDatesLocked()
}

func (tv *txMemoryView) UpsertMonthlySummary(_ context.Context, s pos.MonthlySummary) error {
	return tv.parent.upsertMonthlySummaryLocked(s)
}

func (tv *txMemoryView) GetMonthlySummary(_ context.Context, month string) (*pos.MonthlySummary, error) {
	return tv.parent.getMonthlySummaryLocked(month)
}

func (tv *txMemoryView) ListMonthlySummaries(_ context.Context, limit int) ([]pos.MonthlySummary, error) {
	return tv.parent.listMonthlySummariesLocked(limit)
}

func (tv *txMemoryView) DeleteMonthlySummary(_ context.Context, month string) error {
	return tv.parent.deleteMonthlySummaryLocked(month)
}

// -----------------------------------------------------------------------------
// Clone helpers - keep callers from aliasing stored slices
// -----------------------------------------------------------------------------

func cloneBill(b pos.Bill) pos.Bill {
	b.Items = append([]pos.BillItem{}, b.Items...)
	return b
}

func cloneDailySummary(s pos.DailySummary) pos.DailySummary {
	s.Items = append([]pos.SummaryItem{}, s.Items...)
	return s
}

func cloneMonthlySummary(s pos.MonthlySummary) pos.MonthlySummary {
	s.Items = append([]pos.SummaryItem{}, s.Items...)
	return s
}
