package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/units"
)

// ErrInvalidQuantity is returned for empty, non-numeric or non-positive quantities.
var ErrInvalidQuantity = errors.New("pricing: invalid quantity")

var gramsPerKilogram = decimal.NewFromInt(1000)

// Entry is a quantity ready to be placed on a bill line.
type Entry struct {
	Unit          string
	Quantity      Quantity
	PricePerUnit  Money
	Reinterpreted bool
}

// ParseQuantity parses operator input into a positive quantity.
func ParseQuantity(raw string) (Quantity, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("empty quantity: %w", ErrInvalidQuantity)
	}
	q, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number: %w", raw, ErrInvalidQuantity)
	}
	if !q.IsPositive() {
		return decimal.Zero, fmt.Errorf("quantity must be positive: %w", ErrInvalidQuantity)
	}
	return q, nil
}

// Interpret parses raw for product in unit and resolves the price per unit.
// An empty unit means the product's base unit.
//
// Cashiers commonly type "0.25" meaning 250 g of a product sold per kg. When
// the typed text has a decimal point, the value is below 1, the product's base
// unit is kg and kg was selected, the quantity is taken as grams instead and
// the gram price is used (explicit gram price first, derived otherwise).
func Interpret(product catalog.Product, unit, raw string, table units.Table) (Entry, error) {
	qty, err := ParseQuantity(raw)
	if err != nil {
		return Entry{}, err
	}
	base := product.BaseUnit()
	if strings.TrimSpace(unit) == "" {
		unit = base
	}
	reinterpret := strings.Contains(raw, ".") &&
		qty.LessThan(decimal.NewFromInt(1)) &&
		units.SameUnit(base, units.Kilogram) &&
		units.SameUnit(unit, units.Kilogram)
	if reinterpret {
		qty = qty.Mul(gramsPerKilogram)
		unit = units.Gram
	}
	price, err := ResolvePrice(product, unit, table)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Unit: unit, Quantity: qty, PricePerUnit: price, Reinterpreted: reinterpret}, nil
}
