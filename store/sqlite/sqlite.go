/*
Package sqlite provides a SQLite-backed implementation of the ledger store.

PURPOSE:
  Implements pos.Store and pos.TxStore using SQLite. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  products:           catalog records
  bills:              sales transactions (line items as JSON)
  active_days:        running day totals with the active flag
  daily_summaries:    end-of-day snapshots (unique on date)
  monthly_summaries:  trailing-30-day roll-ups (unique on month)
  counters:           the bill ID sequence, seeded so the first bill
                      is "10001"

MONEY:
  Decimal amounts are stored as TEXT and parsed back with
  decimal.NewFromString; no float conversion ever touches storage.

CONCURRENCY:
  Opened in WAL mode. The bill sequence is advanced with an UPDATE inside
  the same transaction as the bill insert, and the active-day flag is
  cleared with a conditional UPDATE (compare-and-swap), so duplicate
  finalizes lose at the storage layer too.

USAGE:
  st, err := sqlite.New("./data/pos.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - pos/store.go: interface definitions
  - pos/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/pos"
)

// queryer abstracts *sql.DB and *sql.Tx so every query runs against either
// the connection or an open transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements pos.TxStore on SQLite.
type Store struct {
	db *sql.DB
	q  queryer
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		product_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		stock INTEGER NOT NULL,
		buying_price TEXT NOT NULL,
		selling_price TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bills (
		bill_id TEXT PRIMARY KEY,
		items_json TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		cash TEXT NOT NULL,
		change_due TEXT NOT NULL,
		sale_date INTEGER NOT NULL,
		display_time TEXT NOT NULL,
		day_identifier TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bills_day ON bills(day_identifier, created_at);
	CREATE INDEX IF NOT EXISTS idx_bills_sale_date ON bills(sale_date);

	CREATE TABLE IF NOT EXISTS active_days (
		date TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		current_total TEXT NOT NULL,
		is_active INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_summaries (
		date TEXT PRIMARY KEY,
		items_json TEXT NOT NULL,
		total_income TEXT NOT NULL,
		total_profit TEXT NOT NULL,
		ended_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS monthly_summaries (
		month TEXT PRIMARY KEY,
		month_name TEXT NOT NULL,
		items_json TEXT NOT NULL,
		total_income TEXT NOT NULL,
		total_profit TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_included INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO counters (name, value) VALUES ('bill_id', 10000);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx runs fn against a transaction-bound view of the store.
func (s *Store) WithTx(ctx context.Context, fn func(pos.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	view := &Store{db: s.db, q: tx}
	if err := fn(view); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) InsertProduct(ctx context.Context, p pos.Product) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO products (product_id, name, stock, buying_price, selling_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ProductID, p.Name, p.Stock, p.BuyingPrice.String(), p.SellingPrice.String(),
		p.CreatedAt.UnixNano(), p.UpdatedAt.UnixNano())
	if isUniqueViolation(err) {
		return pos.ErrDuplicateProduct
	}
	return err
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*pos.Product, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT product_id, name, stock, buying_price, selling_price, created_at, updated_at
		FROM products WHERE product_id = ?`, productID)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]pos.Product, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT product_id, name, stock, buying_price, selling_price, created_at, updated_at
		FROM products ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) SearchProducts(ctx context.Context, query string, limit int) ([]pos.Product, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT product_id, name, stock, buying_price, selling_price, created_at, updated_at
		FROM products WHERE name LIKE ? COLLATE NOCASE
		ORDER BY product_id LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) UpdateProduct(ctx context.Context, p pos.Product) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE products SET name = ?, stock = ?, buying_price = ?, selling_price = ?, updated_at = ?
		WHERE product_id = ?`,
		p.Name, p.Stock, p.BuyingPrice.String(), p.SellingPrice.String(),
		p.UpdatedAt.UnixNano(), p.ProductID)
	if err != nil {
		return err
	}
	return requireRow(res, pos.ErrProductNotFound)
}

func (s *Store) DeleteProduct(ctx context.Context, productID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, productID)
	if err != nil {
		return err
	}
	return requireRow(res, pos.ErrProductNotFound)
}

// =============================================================================
// BILLS
// =============================================================================

func (s *Store) InsertBill(ctx context.Context, b pos.Bill) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO bills (bill_id, items_json, total_amount, cash, change_due, sale_date, display_time, day_identifier, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BillID, string(items), b.TotalAmount.String(), b.Cash.String(), b.Change.String(),
		b.Date.UnixNano(), b.Time, b.DayIdentifier, b.CreatedAt.UnixNano())
	return err
}

func (s *Store) GetBill(ctx context.Context, billID string) (*pos.Bill, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT bill_id, items_json, total_amount, cash, change_due, sale_date, display_time, day_identifier, created_at
		FROM bills WHERE bill_id = ?`, billID)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) BillsForDay(ctx context.Context, day string) ([]pos.Bill, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT bill_id, items_json, total_amount, cash, change_due, sale_date, display_time, day_identifier, created_at
		FROM bills WHERE day_identifier = ? ORDER BY created_at, bill_id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

func (s *Store) BillsBetween(ctx context.Context, from, to time.Time) ([]pos.Bill, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT bill_id, items_json, total_amount, cash, change_due, sale_date, display_time, day_identifier, created_at
		FROM bills WHERE sale_date >= ? AND sale_date <= ?
		ORDER BY sale_date DESC, bill_id DESC`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

func (s *Store) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM bills WHERE bill_id = ?`, billID)
	if err != nil {
		return err
	}
	return requireRow(res, pos.ErrBillNotFound)
}

// NextBillID advances the bill sequence and returns the new value as a
// decimal string. Inside WithTx the advance commits or rolls back with the
// rest of the sale.
func (s *Store) NextBillID(ctx context.Context) (string, error) {
	if _, err := s.q.ExecContext(ctx, `UPDATE counters SET value = value + 1 WHERE name = 'bill_id'`); err != nil {
		return "", err
	}
	var next int64
	if err := s.q.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = 'bill_id'`).Scan(&next); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", next), nil
}

// =============================================================================
// ACTIVE DAYS
// =============================================================================

func (s *Store) GetActiveDay(ctx context.Context, date string) (*pos.ActiveDay, error) {
	var (
		d         pos.ActiveDay
		startedAt int64
		total     string
		active    int
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT date, started_at, current_total, is_active FROM active_days WHERE date = ?`,
		date).Scan(&d.Date, &startedAt, &total, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.StartedAt = time.Unix(0, startedAt)
	d.IsActive = active != 0
	if d.CurrentTotal, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) SaveActiveDay(ctx context.Context, day pos.ActiveDay) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO active_days (date, started_at, current_total, is_active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET started_at = excluded.started_at,
			current_total = excluded.current_total, is_active = excluded.is_active`,
		day.Date, day.StartedAt.UnixNano(), day.CurrentTotal.String(), boolToInt(day.IsActive))
	return err
}

// CloseActiveDay flips is_active from 1 to 0 and reports whether this call
// made the transition.
func (s *Store) CloseActiveDay(ctx context.Context, date string) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE active_days SET is_active = 0 WHERE date = ? AND is_active = 1`, date)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// DAILY SUMMARIES
// =============================================================================

func (s *Store) InsertDailySummary(ctx context.Context, sum pos.DailySummary) error {
	items, err := json.Marshal(sum.Items)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO daily_summaries (date, items_json, total_income, total_profit, ended_at)
		VALUES (?, ?, ?, ?, ?)`,
		sum.Date, string(items), sum.TotalIncome.String(), sum.TotalProfit.String(), sum.EndedAt.UnixNano())
	if isUniqueViolation(err) {
		return pos.ErrDayFinalized
	}
	return err
}

func (s *Store) GetDailySummary(ctx context.Context, date string) (*pos.DailySummary, error) {
	var (
		sum     pos.DailySummary
		items   string
		income  string
		profit  string
		endedAt int64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT date, items_json, total_income, total_profit, ended_at
		FROM daily_summaries WHERE date = ?`, date).
		Scan(&sum.Date, &items, &income, &profit, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &sum.Items); err != nil {
		return nil, err
	}
	if sum.TotalIncome, err = decimal.NewFromString(income); err != nil {
		return nil, err
	}
	if sum.TotalProfit, err = decimal.NewFromString(profit); err != nil {
		return nil, err
	}
	sum.EndedAt = time.Unix(0, endedAt)
	return &sum, nil
}

func (s *Store) ListDailySummaryDates(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT date FROM daily_summaries ORDER BY date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// =============================================================================
// MONTHLY SUMMARIES
// =============================================================================

func (s *Store) UpsertMonthlySummary(ctx context.Context, sum pos.MonthlySummary) error {
	items, err := json.Marshal(sum.Items)
	if err != nil {
		return err
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO monthly_summaries (month, month_name, items_json, total_income, total_profit, start_date, end_date, days_included, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET month_name = excluded.month_name,
			items_json = excluded.items_json, total_income = excluded.total_income,
			total_profit = excluded.total_profit, start_date = excluded.start_date,
			end_date = excluded.end_date, days_included = excluded.days_included,
			updated_at = excluded.updated_at`,
		sum.Month, sum.MonthName, string(items), sum.TotalIncome.String(), sum.TotalProfit.String(),
		sum.StartDate, sum.EndDate, sum.DaysIncluded, sum.UpdatedAt.UnixNano())
	return err
}

func (s *Store) GetMonthlySummary(ctx context.Context, month string) (*pos.MonthlySummary, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT month, month_name, items_json, total_income, total_profit, start_date, end_date, days_included, updated_at
		FROM monthly_summaries WHERE month = ?`, month)
	sum, err := scanMonthlySummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *Store) ListMonthlySummaries(ctx context.Context, limit int) ([]pos.MonthlySummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT month, month_name, items_json, total_income, total_profit, start_date, end_date, days_included, updated_at
		FROM monthly_summaries ORDER BY month DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []pos.MonthlySummary{}
	for rows.Next() {
		sum, err := scanMonthlySummary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sum)
	}
	return result, rows.Err()
}

func (s *Store) DeleteMonthlySummary(ctx context.Context, month string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM monthly_summaries WHERE month = ?`, month)
	if err != nil {
		return err
	}
	return requireRow(res, pos.ErrSummaryNotFound)
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(r rowScanner) (*pos.Product, error) {
	var (
		p                    pos.Product
		buying, selling      string
		createdAt, updatedAt int64
	)
	if err := r.Scan(&p.ProductID, &p.Name, &p.Stock, &buying, &selling, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.BuyingPrice, err = decimal.NewFromString(buying); err != nil {
		return nil, err
	}
	if p.SellingPrice, err = decimal.NewFromString(selling); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(0, createdAt)
	p.UpdatedAt = time.Unix(0, updatedAt)
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]pos.Product, error) {
	result := []pos.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanBill(r rowScanner) (*pos.Bill, error) {
	var (
		b                   pos.Bill
		items               string
		total, cash, change string
		saleDate, createdAt int64
	)
	if err := r.Scan(&b.BillID, &items, &total, &cash, &change, &saleDate, &b.Time, &b.DayIdentifier, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &b.Items); err != nil {
		return nil, err
	}
	var err error
	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if b.Cash, err = decimal.NewFromString(cash); err != nil {
		return nil, err
	}
	if b.Change, err = decimal.NewFromString(change); err != nil {
		return nil, err
	}
	b.Date = time.Unix(0, saleDate)
	b.CreatedAt = time.Unix(0, createdAt)
	return &b, nil
}

func collectBills(rows *sql.Rows) ([]pos.Bill, error) {
	result := []pos.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func scanMonthlySummary(r rowScanner) (*pos.MonthlySummary, error) {
	var (
		sum            pos.MonthlySummary
		items          string
		income, profit string
		updatedAt      int64
	)
	if err := r.Scan(&sum.Month, &sum.MonthName, &items, &income, &profit,
		&sum.StartDate, &sum.EndDate, &sum.DaysIncluded, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &sum.Items); err != nil {
		return nil, err
	}
	var err error
	if sum.TotalIncome, err = decimal.NewFromString(income); err != nil {
		return nil, err
	}
	if sum.TotalProfit, err = decimal.NewFromString(profit); err != nil {
		return nil, err
	}
	sum.UpdatedAt = time.Unix(0, updatedAt)
	return &sum, nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
