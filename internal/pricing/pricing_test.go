package pricing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/units"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func riceKgOnly() catalog.Product {
	return catalog.Product{
		ID: "rice", Name: "Rice", SKU: "R1", StockLevel: 5,
		Prices: []catalog.PriceEntry{{Unit: "kg", SellingPrice: d("200"), NetPrice: d("180")}},
	}
}

func riceWithGram() catalog.Product {
	p := riceKgOnly()
	p.Prices = append(p.Prices, catalog.PriceEntry{Unit: "gram", SellingPrice: d("0.25"), NetPrice: d("0.2")})
	return p
}

func TestResolvePrice(t *testing.T) {
	table := units.Default()

	price, err := pricing.ResolvePrice(riceKgOnly(), "kg", table)
	require.NoError(t, err)
	require.True(t, price.Equal(d("200")))

	price, err = pricing.ResolvePrice(riceKgOnly(), "gram", table)
	require.NoError(t, err)
	require.True(t, price.Equal(d("0.2")), price.String())

	price, err = pricing.ResolvePrice(riceWithGram(), "gram", table)
	require.NoError(t, err)
	require.True(t, price.Equal(d("0.25")))

	gramBase := catalog.Product{ID: "saffron", Prices: []catalog.PriceEntry{{Unit: "gram", SellingPrice: d("300")}}}
	price, err = pricing.ResolvePrice(gramBase, "kg", table)
	require.NoError(t, err)
	require.True(t, price.Equal(d("300000")), price.String())
}

func TestResolvePriceFailures(t *testing.T) {
	table := units.Default()

	_, err := pricing.ResolvePrice(catalog.Product{ID: "bare"}, "kg", table)
	require.True(t, errors.Is(err, pricing.ErrNoPriceAvailable))

	_, err = pricing.ResolvePrice(riceKgOnly(), "piece", table)
	require.True(t, errors.Is(err, units.ErrUnsupportedConversion))
}

func TestParseQuantity(t *testing.T) {
	for _, raw := range []string{"", "  ", "abc", "0", "-2", "0.0"} {
		_, err := pricing.ParseQuantity(raw)
		require.ErrorIs(t, err, pricing.ErrInvalidQuantity, raw)
	}
	q, err := pricing.ParseQuantity(" 2.5 ")
	require.NoError(t, err)
	require.True(t, q.Equal(d("2.5")))
}

func TestInterpretSubunitHeuristic(t *testing.T) {
	table := units.Default()

	entry, err := pricing.Interpret(riceWithGram(), "kg", "0.25", table)
	require.NoError(t, err)
	require.True(t, entry.Reinterpreted)
	require.Equal(t, "gram", entry.Unit)
	require.True(t, entry.Quantity.Equal(d("250")))
	require.True(t, entry.PricePerUnit.Equal(d("0.25")))

	entry, err = pricing.Interpret(riceKgOnly(), "", ".5", table)
	require.NoError(t, err)
	require.Equal(t, "gram", entry.Unit)
	require.True(t, entry.Quantity.Equal(d("500")))
	require.True(t, entry.PricePerUnit.Equal(d("0.2")))
}

func TestInterpretKeepsWholeAndExplicitUnits(t *testing.T) {
	table := units.Default()

	entry, err := pricing.Interpret(riceKgOnly(), "kg", "1.0", table)
	require.NoError(t, err)
	require.False(t, entry.Reinterpreted)
	require.Equal(t, "kg", entry.Unit)
	require.True(t, entry.Quantity.Equal(d("1")))

	entry, err = pricing.Interpret(riceKgOnly(), "kg", "2", table)
	require.NoError(t, err)
	require.Equal(t, "kg", entry.Unit)

	entry, err = pricing.Interpret(riceKgOnly(), "gram", "0.5", table)
	require.NoError(t, err)
	require.False(t, entry.Reinterpreted)
	require.Equal(t, "gram", entry.Unit)
	require.True(t, entry.Quantity.Equal(d("0.5")))

	soap := catalog.Product{ID: "soap", Prices: []catalog.PriceEntry{{Unit: "piece", SellingPrice: d("40")}}}
	entry, err = pricing.Interpret(soap, "", "0.5", table)
	require.NoError(t, err)
	require.Equal(t, "piece", entry.Unit)
	require.False(t, entry.Reinterpreted)
}

func TestMoneyHelpers(t *testing.T) {
	require.True(t, pricing.RoundMoney(d("762.7118")).Equal(d("762.71")))
	require.True(t, pricing.RoundMoney(d("0.125")).Equal(d("0.13")))
	require.True(t, pricing.Percent(d("1000"), d("10")).Equal(d("100")))
}
