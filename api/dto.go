/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  The domain carries money as decimal.Decimal; DTOs expose it as float64
  for JSON clients. Conversion happens only at this boundary, on the way
  out. Request amounts are parsed back into decimals before any
  arithmetic.

TYPES:
  Products:
    ProductDTO, CreateProductRequest, UpdateProductRequest

  Bills:
    BillDTO, BillItemDTO, CreateBillRequest, SaleLineRequest

  Summaries:
    DaySummaryDTO, DailySummaryDTO, MonthlySummaryDTO, SummaryItemDTO

VALIDATION:
  Validation is done in handlers and domain logic, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - pos/types.go: Domain types these mirror
*/
package api

import (
	"time"

	"github.com/warp/pos-engine/pos"
)

// =============================================================================
// PRODUCT TYPES
// =============================================================================

// ProductDTO represents a catalog product in API responses.
type ProductDTO struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	Stock        int     `json:"stock"`
	BuyingPrice  float64 `json:"buyingPrice"`
	SellingPrice float64 `json:"sellingPrice"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// CreateProductRequest is the request to add a product.
type CreateProductRequest struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	Stock        int     `json:"stock"`
	BuyingPrice  float64 `json:"buyingPrice"`
	SellingPrice float64 `json:"sellingPrice"`
}

// UpdateProductRequest is a partial product update. Absent fields are
// left unchanged.
type UpdateProductRequest struct {
	Name         *string  `json:"name,omitempty"`
	Stock        *int     `json:"stock,omitempty"`
	BuyingPrice  *float64 `json:"buyingPrice,omitempty"`
	SellingPrice *float64 `json:"sellingPrice,omitempty"`
}

// =============================================================================
// BILL TYPES
// =============================================================================

// BillItemDTO is one line of a bill in API responses.
type BillItemDTO struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// BillDTO represents a completed sale in API responses.
type BillDTO struct {
	BillID        string        `json:"billId"`
	Items         []BillItemDTO `json:"items"`
	TotalAmount   float64       `json:"totalAmount"`
	Cash          float64       `json:"cash"`
	Change        float64       `json:"change"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	DayIdentifier string        `json:"dayIdentifier"`
}

// SaleLineRequest is one requested line of a new sale.
type SaleLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateBillRequest is the request to record a sale.
type CreateBillRequest struct {
	Items []SaleLineRequest `json:"items"`
	Cash  float64           `json:"cash"`
}

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// SummaryItemDTO is the per-product roll-up in summary responses.
type SummaryItemDTO struct {
	ProductID    string  `json:"productId"`
	Name         string  `json:"name"`
	SoldQuantity int     `json:"soldQuantity"`
	TotalIncome  float64 `json:"totalIncome"`
	Profit       float64 `json:"profit"`
}

// DaySummaryDTO is the live view of a day in progress.
type DaySummaryDTO struct {
	Date        string           `json:"date"`
	TotalSales  float64          `json:"totalSales"`
	TotalProfit float64          `json:"totalProfit"`
	BillCount   int              `json:"billCount"`
	Items       []SummaryItemDTO `json:"items"`
	Bills       []BillDTO        `json:"bills"`
}

// DailySummaryDTO is the persisted end-of-day snapshot.
type DailySummaryDTO struct {
	Date        string           `json:"date"`
	Items       []SummaryItemDTO `json:"items"`
	TotalIncome float64          `json:"totalIncome"`
	TotalProfit float64          `json:"totalProfit"`
	EndedAt     string           `json:"endedAt"`
}

// MonthlySummaryDTO is a trailing-30-day roll-up record.
type MonthlySummaryDTO struct {
	Month        string           `json:"month"`
	MonthName    string           `json:"monthName"`
	Items        []SummaryItemDTO `json:"items"`
	TotalIncome  float64          `json:"totalIncome"`
	TotalProfit  float64          `json:"totalProfit"`
	StartDate    string           `json:"startDate"`
	EndDate      string           `json:"endDate"`
	DaysIncluded int              `json:"daysIncluded"`
	UpdatedAt    string           `json:"updatedAt"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProductDTO(p pos.Product) ProductDTO {
	return ProductDTO{
		ProductID:    p.ProductID,
		Name:         p.Name,
		Stock:        p.Stock,
		BuyingPrice:  p.BuyingPrice.InexactFloat64(),
		SellingPrice: p.SellingPrice.InexactFloat64(),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func toProductDTOs(products []pos.Product) []ProductDTO {
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	return dtos
}

func toBillDTO(b pos.Bill) BillDTO {
	items := make([]BillItemDTO, len(b.Items))
	for i, item := range b.Items {
		items[i] = BillItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
			Total:     item.Total.InexactFloat64(),
		}
	}
	return BillDTO{
		BillID:        b.BillID,
		Items:         items,
		TotalAmount:   b.TotalAmount.InexactFloat64(),
		Cash:          b.Cash.InexactFloat64(),
		Change:        b.Change.InexactFloat64(),
		Date:          b.Date.Format(time.RFC3339),
		Time:          b.Time,
		DayIdentifier: b.DayIdentifier,
	}
}

func toBillDTOs(bills []pos.Bill) []BillDTO {
	dtos := make([]BillDTO, len(bills))
	for i, b := range bills {
		dtos[i] = toBillDTO(b)
	}
	return dtos
}

func toSummaryItemDTOs(items []pos.SummaryItem) []SummaryItemDTO {
	dtos := make([]SummaryItemDTO, len(items))
	for i, item := range items {
		dtos[i] = SummaryItemDTO{
			ProductID:    item.ProductID,
			Name:         item.Name,
			SoldQuantity: item.SoldQuantity,
			TotalIncome:  item.TotalIncome.InexactFloat64(),
			Profit:       item.Profit.InexactFloat64(),
		}
	}
	return dtos
}

func toDaySummaryDTO(s pos.DaySummary) DaySummaryDTO {
	return DaySummaryDTO{
		Date:        s.Date,
		TotalSales:  s.TotalSales.InexactFloat64(),
		TotalProfit: s.TotalProfit.InexactFloat64(),
		BillCount:   s.BillCount,
		Items:       toSummaryItemDTOs(s.Items),
		Bills:       toBillDTOs(s.Bills),
	}
}

func toDailySummaryDTO(s pos.DailySummary) DailySummaryDTO {
	return DailySummaryDTO{
		Date:        s.Date,
		Items:       toSummaryItemDTOs(s.Items),
		TotalIncome: s.TotalIncome.InexactFloat64(),
		TotalProfit: s.TotalProfit.InexactFloat64(),
		EndedAt:     s.EndedAt.Format(time.RFC3339),
	}
}

func toMonthlySummaryDTO(s pos.MonthlySummary) MonthlySummaryDTO {
	return MonthlySummaryDTO{
		Month:        s.Month,
		MonthName:    s.MonthName,
		Items:        toSummaryItemDTOs(s.Items),
		TotalIncome:  s.TotalIncome.InexactFloat64(),
		TotalProfit:  s.TotalProfit.InexactFloat64(),
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		DaysIncluded: s.DaysIncluded,
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}
