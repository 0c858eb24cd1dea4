package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound indicates the product is not part of the snapshot.
	ErrProductNotFound = errors.New("catalog: product not found")
	// ErrInvalidProduct indicates a product record failed validation.
	ErrInvalidProduct = errors.New("catalog: invalid product")
)

// PriceEntry is the price of a product expressed in one unit.
type PriceEntry struct {
	Unit         string          `json:"unit"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	NetPrice     decimal.Decimal `json:"netPrice"`
}

// Product is a read-only catalog record. The first price entry defines the
// base unit of the product.
type Product struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	SKU        string       `json:"sku"`
	StockLevel int          `json:"stockLevel"`
	Prices     []PriceEntry `json:"prices"`
}

// BaseEntry returns the base price entry.
func (p Product) BaseEntry() (PriceEntry, bool) {
	if len(p.Prices) == 0 {
		return PriceEntry{}, false
	}
	return p.Prices[0], true
}

// BaseUnit returns the unit of the base price entry or "" when unpriced.
func (p Product) BaseUnit() string {
	base, ok := p.BaseEntry()
	if !ok {
		return ""
	}
	return base.Unit
}

// PriceFor returns the entry priced exactly in unit.
func (p Product) PriceFor(unit string) (PriceEntry, bool) {
	want := strings.ToLower(strings.TrimSpace(unit))
	for _, e := range p.Prices {
		if strings.ToLower(strings.TrimSpace(e.Unit)) == want {
			return e, true
		}
	}
	return PriceEntry{}, false
}

// PricedUnits lists the units the product has explicit prices for.
func (p Product) PricedUnits() []string {
	out := make([]string, 0, len(p.Prices))
	for _, e := range p.Prices {
		out = append(out, e.Unit)
	}
	return out
}

// InStock reports whether there is stock left. Zero and negative stock levels
// are both treated as out of stock.
func (p Product) InStock() bool {
	return p.StockLevel > 0
}

// Validate checks the invariants a snapshot relies on.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("missing id: %w", ErrInvalidProduct)
	}
	for i, e := range p.Prices {
		if strings.TrimSpace(e.Unit) == "" {
			return fmt.Errorf("product %s price %d has no unit: %w", p.ID, i, ErrInvalidProduct)
		}
		if e.SellingPrice.IsNegative() || e.NetPrice.IsNegative() {
			return fmt.Errorf("product %s price %d is negative: %w", p.ID, i, ErrInvalidProduct)
		}
	}
	return nil
}
