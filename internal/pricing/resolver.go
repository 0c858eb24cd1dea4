package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/units"
)

// ErrNoPriceAvailable is returned for products without any price entry.
var ErrNoPriceAvailable = errors.New("pricing: no price available")

// ResolvePrice returns the selling price of one unit of product. An exact
// price entry wins; otherwise the base price is scaled by the conversion
// factor between unit and the base unit.
func ResolvePrice(product catalog.Product, unit string, table units.Table) (Money, error) {
	base, ok := product.BaseEntry()
	if !ok {
		return decimal.Zero, fmt.Errorf("product %s: %w", product.ID, ErrNoPriceAvailable)
	}
	if entry, ok := product.PriceFor(unit); ok {
		return entry.SellingPrice, nil
	}
	factor, err := table.Convert(decimal.NewFromInt(1), unit, base.Unit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product %s in %s: %w", product.ID, unit, err)
	}
	return base.SellingPrice.Mul(factor), nil
}
