package cart

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog resolves the price a buyer currently pays for a product.
type Catalog interface {
	LookupPrice(ctx context.Context, productID string) (decimal.Decimal, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context, productID string) (decimal.Decimal, error)

func (f CatalogFunc) LookupPrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	return f(ctx, productID)
}

// Totals is the priced summary of a cart.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	// Unpriced lists products the catalog could not resolve; they count as 0.
	Unpriced []string `json:"unpriced,omitempty"`
}

// Totals prices every line with fresh catalog prices. An empty cart costs
// nothing, shipping included.
func (s *Store) Totals(ctx context.Context, catalog Catalog) (Totals, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return Totals{}, err
	}
	if len(lines) == 0 {
		return Totals{Subtotal: decimal.Zero, Shipping: decimal.Zero, Total: decimal.Zero}, nil
	}

	prices := make(map[string]decimal.Decimal, len(lines))
	failed := make(map[string]bool)
	var t Totals
	subtotal := decimal.Zero
	for _, l := range lines {
		price, seen := prices[l.ProductID]
		if !seen && !failed[l.ProductID] {
			p, err := catalog.LookupPrice(ctx, l.ProductID)
			if err != nil {
				s.log.Warn("product price unavailable, counting as zero",
					zap.String("product_id", l.ProductID),
					zap.Error(err),
				)
				failed[l.ProductID] = true
				t.Unpriced = append(t.Unpriced, l.ProductID)
				continue
			}
			prices[l.ProductID] = p
			price = p
		}
		if failed[l.ProductID] {
			continue
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	t.Subtotal = subtotal
	t.Shipping = s.fee
	if subtotal.GreaterThanOrEqual(s.threshold) {
		t.Shipping = decimal.Zero
	}
	t.Total = t.Subtotal.Add(t.Shipping)
	return t, nil
}
