/*
stock.go - Stock ledger

PURPOSE:
  Applies and reverses per-sale stock deltas on products. The invariant is
  simple and absolute: stock never goes negative.

USAGE:
  Reserve/Release are building blocks for the bill engine and always run
  against the store view they are given, so inside a transaction they see
  and mutate transactional state.
*/
package pos

import "context"

// StockLedger applies and reverses stock deltas on products.
type StockLedger struct {
	store Store
}

func NewStockLedger(store Store) *StockLedger {
	return &StockLedger{store: store}
}

// Reserve decrements a product's stock by qty and returns the product as it
// was priced at reservation time. Fails with ErrProductNotFound if the
// product is missing and with InsufficientStockError if stock < qty;
// neither failure mutates anything.
func (l *StockLedger) Reserve(ctx context.Context, productID string, qty int) (*Product, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := l.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFoundProduct(productID)
	}
	if p.Stock < qty {
		return nil, &InsufficientStockError{
			ProductID: p.ProductID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: qty,
		}
	}

	snapshot := *p
	p.Stock -= qty
	if err := l.store.UpdateProduct(ctx, *p); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Release increments a product's stock by qty. Used on bill reversal.
// A missing product is skipped silently: the sale happened, but there is
// no catalog entry left to return the units to.
func (l *StockLedger) Release(ctx context.Context, productID string, qty int) error {
	p, err := l.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	p.Stock += qty
	return l.store.UpdateProduct(ctx, *p)
}
