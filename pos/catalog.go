/*
catalog.go - Product catalog

PURPOSE:
  CRUD and lookup operations for the product catalog. Product IDs are
  fixed-width zero-padded 3-digit strings; the catalog hands out the lowest
  free ID and enforces the 001-999 range, uniqueness, and non-negative
  stock and prices.
*/
package pos

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var productIDPattern = regexp.MustCompile(`^[0-9]{3}$`)

// searchLimit caps name-search results.
const searchLimit = 10

// Catalog manages product records.
type Catalog struct {
	store Store
	clock Clock
}

func NewCatalog(store Store, clock Clock) *Catalog {
	return &Catalog{store: store, clock: clock}
}

// NextID returns the lowest unused product ID in 001-999.
func (c *Catalog) NextID(ctx context.Context) (string, error) {
	products, err := c.store.ListProducts(ctx)
	if err != nil {
		return "", err
	}

	used := make(map[int]bool, len(products))
	for _, p := range products {
		if n, err := strconv.Atoi(p.ProductID); err == nil {
			used[n] = true
		}
	}

	for i := 1; i <= 999; i++ {
		if !used[i] {
			return fmt.Sprintf("%03d", i), nil
		}
	}
	return "", ErrProductIDsExhausted
}

// List returns all products ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	return c.store.ListProducts(ctx)
}

// Search returns up to 10 products whose name contains query,
// case-insensitively.
func (c *Catalog) Search(ctx context.Context, query string) ([]Product, error) {
	return c.store.SearchProducts(ctx, strings.TrimSpace(query), searchLimit)
}

// Get returns the product with the given ID.
func (c *Catalog) Get(ctx context.Context, productID string) (*Product, error) {
	p, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundProduct(productID)
	}
	return p, nil
}

// Add creates a new product after validating the ID format and range,
// uniqueness, and field bounds.
func (c *Catalog) Add(ctx context.Context, p Product) (*Product, error) {
	if !productIDPattern.MatchString(p.ProductID) {
		return nil, ErrInvalidProductID
	}
	if n, _ := strconv.Atoi(p.ProductID); n < 1 || n > 999 {
		return nil, ErrInvalidProductID
	}
	if err := validateProductFields(p); err != nil {
		return nil, err
	}

	existing, err := c.store.GetProduct(ctx, p.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateProduct
	}

	now := c.clock.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := c.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies a partial update to a product.
func (c *Catalog) Update(ctx context.Context, productID string, patch ProductPatch) (*Product, error) {
	p, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundProduct(productID)
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.BuyingPrice != nil {
		p.BuyingPrice = *patch.BuyingPrice
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if err := validateProductFields(*p); err != nil {
		return nil, err
	}

	p.UpdatedAt = c.clock.Now()
	if err := c.store.UpdateProduct(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a product. Bills that referenced it keep their snapshots;
// aggregation drops only the profit contribution of deleted products.
func (c *Catalog) Delete(ctx context.Context, productID string) error {
	return c.store.DeleteProduct(ctx, productID)
}

func validateProductFields(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	if p.BuyingPrice.IsNegative() || p.SellingPrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidProduct)
	}
	return nil
}
