// Package pricing resolves unit prices and interprets operator-typed
// quantities against the catalog.
package pricing

import "github.com/shopspring/decimal"

// Money represents a monetary value with full decimal precision.
type Money = decimal.Decimal

// Quantity is an amount of a product expressed in some unit.
type Quantity = decimal.Decimal

// CurrencyPlaces is the number of minor-unit digits kept on money values.
const CurrencyPlaces int32 = 2

// RoundMoney rounds m half away from zero to currency precision.
func RoundMoney(m Money) Money {
	return m.Round(CurrencyPlaces)
}

// Percent returns pct percent of m, unrounded.
func Percent(m Money, pct decimal.Decimal) Money {
	return m.Mul(pct).Div(decimal.NewFromInt(100))
}
