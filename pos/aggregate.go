/*
aggregate.go - Shared per-product aggregation

PURPOSE:
  One fold used by the day aggregator and the rolling monthly aggregator:
  group bill line items by product, sum sold quantity, income, and profit.

PROFIT ASYMMETRY:
  Income counts every line item: the money was taken regardless of what
  happened to the catalog afterwards. Profit needs the product's buying
  price, so lines whose product has since been deleted contribute income
  but no profit, and get no per-product row.
*/
package pos

import (
	"context"

	"github.com/shopspring/decimal"
)

// aggregateBills folds bills into per-product summary rows plus running
// income and profit totals. Rows keep first-appearance order so repeated
// runs over unchanged bills yield identical output.
func aggregateBills(ctx context.Context, store Store, bills []Bill) ([]SummaryItem, decimal.Decimal, decimal.Decimal, error) {
	items := []SummaryItem{}
	index := make(map[string]int)
	products := make(map[string]*Product)

	totalIncome := decimal.Zero
	totalProfit := decimal.Zero

	for _, bill := range bills {
		for _, item := range bill.Items {
			totalIncome = totalIncome.Add(item.Total)

			product, ok := products[item.ProductID]
			if !ok {
				var err error
				product, err = store.GetProduct(ctx, item.ProductID)
				if err != nil {
					return nil, decimal.Zero, decimal.Zero, err
				}
				products[item.ProductID] = product
			}
			if product == nil {
				// Product deleted after the sale: income stands, profit
				// cannot be computed.
				continue
			}

			profit := item.Price.Sub(product.BuyingPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
			totalProfit = totalProfit.Add(profit)

			if i, ok := index[item.ProductID]; ok {
				items[i].SoldQuantity += item.Quantity
				items[i].TotalIncome = items[i].TotalIncome.Add(item.Total)
				items[i].Profit = items[i].Profit.Add(profit)
			} else {
				index[item.ProductID] = len(items)
				items = append(items, SummaryItem{
					ProductID:    item.ProductID,
					Name:         item.Name,
					SoldQuantity: item.Quantity,
					TotalIncome:  item.Total,
					Profit:       profit,
				})
			}
		}
	}

	return items, totalIncome, totalProfit, nil
}
