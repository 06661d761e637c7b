/*
handlers.go - HTTP API handlers for the POS settlement engine

PURPOSE:
  Exposes the settlement engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Bills:
    POST   /api/bills                  Record a sale
    DELETE /api/bills/{billId}         Reverse a bill
    GET    /api/bills/today            Today's bills
    GET    /api/bills/date/{date}      Bills of a civil day
    GET    /api/bills/recent           Trailing 30 days of bills
    GET    /api/bills/{billId}         Single bill

  Day:
    GET    /api/day/current            Live summary of the day in progress
    POST   /api/day/end                Finalize the current day

  Summaries:
    GET    /api/summary/daily/{date}   Finalized daily snapshot
    POST   /api/summary/monthly        Refresh the trailing-30-day roll-up
    GET    /api/summary/monthly        Retained monthly history
    GET    /api/summary/monthly/{month} One month's record
    GET    /api/summary/dates          Dates with a finalized summary

  Products:
    GET    /api/products               List catalog
    GET    /api/products/next-id       Lowest free product ID
    GET    /api/products/search?q=     Name search (up to 10)
    GET    /api/products/{id}          Single product
    POST   /api/products               Add product
    PUT    /api/products/{id}          Partial update
    DELETE /api/products/{id}          Remove product

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (bill engine, aggregators, catalog)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (insufficient stock/cash included)
  - 404: Resource not found
  - 409: Conflict (day already finalized)
  - 500: Internal errors
  The status is derived from the domain error classifiers, so handlers
  never inspect individual sentinels.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scheduler.go: Automated day-end trigger
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Bills    *pos.BillEngine
	Days     *pos.DayAggregator
	Months   *pos.MonthlyAggregator
	Catalog  *pos.Catalog
	Calendar *pos.Calendar
}

// NewHandler wires the engines over one store and calendar.
func NewHandler(store pos.TxStore, calendar *pos.Calendar) *Handler {
	return &Handler{
		Bills:    pos.NewBillEngine(store, calendar),
		Days:     pos.NewDayAggregator(store, calendar),
		Months:   pos.NewMonthlyAggregator(store, calendar),
		// Calendar.Now satisfies Clock, so catalog timestamps land in the
		// operating timezone.
		Catalog:  pos.NewCatalog(store, calendar),
		Calendar: calendar,
	}
}

// =============================================================================
// BILL HANDLERS
// =============================================================================

// CreateBill records a sale.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lines := make([]pos.SaleLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pos.SaleLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	bill, err := h.Bills.CreateBill(r.Context(), lines, decimal.NewFromFloat(req.Cash))
	if err != nil {
		writeDomainError(w, "Failed to create bill", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBillDTO(*bill))
}

// DeleteBill reverses a bill, restoring stock and the day total.
func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billId")

	if err := h.Bills.DeleteBill(r.Context(), billID); err != nil {
		writeDomainError(w, "Failed to delete bill", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "billId": billID})
}

// ListTodayBills returns the current civil day's bills.
func (h *Handler) ListTodayBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Bills.BillsForToday(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bills", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTOs(bills))
}

// ListBillsByDate returns the bills of an arbitrary civil day.
func (h *Handler) ListBillsByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	bills, err := h.Bills.BillsForDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bills", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTOs(bills))
}

// ListRecentBills returns bills from the trailing 30-day window.
func (h *Handler) ListRecentBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Bills.BillsForTrailing30Days(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bills", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTOs(bills))
}

// GetBill returns a single bill.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billId")

	bill, err := h.Bills.BillByID(r.Context(), billID)
	if err != nil {
		writeDomainError(w, "Failed to get bill", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(*bill))
}

// =============================================================================
// DAY HANDLERS
// =============================================================================

// GetCurrentDay returns the live summary of the day in progress.
func (h *Handler) GetCurrentDay(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Days.CurrentSummary(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDaySummaryDTO(*summary))
}

// EndDay finalizes the current civil day.
func (h *Handler) EndDay(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Days.FinalizeDay(r.Context(), "")
	if err != nil {
		writeDomainError(w, "Failed to end day", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDailySummaryDTO(*summary))
}

// =============================================================================
// SUMMARY HANDLERS
// =============================================================================

// GetDailySummary returns the persisted snapshot of a finalized day.
func (h *Handler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	summary, err := h.Days.DailySummaryFor(r.Context(), date)
	if err != nil {
		writeDomainError(w, "Failed to get daily summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailySummaryDTO(*summary))
}

// ListSummaryDates returns the dates that have a finalized summary.
func (h *Handler) ListSummaryDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.Days.SummaryDates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list summary dates", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

// RefreshMonthlySummary rebuilds the trailing-30-day roll-up.
func (h *Handler) RefreshMonthlySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Months.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to refresh monthly summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySummaryDTO(*summary))
}

// ListMonthlySummaries returns the retained monthly history.
func (h *Handler) ListMonthlySummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.Months.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list monthly summaries", err)
		return
	}

	dtos := make([]MonthlySummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toMonthlySummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMonthlySummary returns one month's record.
func (h *Handler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	summary, err := h.Months.Summary(r.Context(), month)
	if err != nil {
		writeDomainError(w, "Failed to get monthly summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlySummaryDTO(*summary))
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the whole catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// NextProductID returns the lowest free product ID.
func (h *Handler) NextProductID(w http.ResponseWriter, r *http.Request) {
	id, err := h.Catalog.NextID(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to compute next product id", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"productId": id})
}

// SearchProducts returns catalog entries matching the q query parameter.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	products, err := h.Catalog.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTOs(products))
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Catalog.Add(r.Context(), pos.Product{
		ProductID:    req.ProductID,
		Name:         req.Name,
		Stock:        req.Stock,
		BuyingPrice:  decimal.NewFromFloat(req.BuyingPrice),
		SellingPrice: decimal.NewFromFloat(req.SellingPrice),
	})
	if err != nil {
		writeDomainError(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(*p))
}

// UpdateProduct applies a partial update to a product.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := pos.ProductPatch{
		Name:  req.Name,
		Stock: req.Stock,
	}
	if req.BuyingPrice != nil {
		d := decimal.NewFromFloat(*req.BuyingPrice)
		patch.BuyingPrice = &d
	}
	if req.SellingPrice != nil {
		d := decimal.NewFromFloat(*req.SellingPrice)
		patch.SellingPrice = &d
	}

	p, err := h.Catalog.Update(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// DeleteProduct removes a product from the catalog.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete product", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "productId": id})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to an HTTP status via the error
// classifiers.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case pos.IsNotFound(err):
		return http.StatusNotFound
	case pos.IsConflict(err):
		return http.StatusConflict
	case pos.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
