package bill

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

var hundred = decimal.NewFromInt(100)

// DiscountType selects how the bill-level discount value is read.
type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountCash       DiscountType = "cash"
)

// ParseDiscountType maps user input onto a DiscountType. Empty means none.
func ParseDiscountType(raw string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(DiscountNone):
		return DiscountNone, nil
	case string(DiscountPercentage), "percent":
		return DiscountPercentage, nil
	case string(DiscountCash), "amount":
		return DiscountCash, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrDiscountType)
	}
}

// UnmarshalJSON accepts the same spellings as ParseDiscountType.
func (t *DiscountType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDiscountType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// LineTotal is quantity times unit price before any discount.
func LineTotal(it LineItem) pricing.Money {
	return pricing.RoundMoney(it.Quantity.Mul(it.PricePerUnit))
}

// LineDiscount returns the discount on a line. A positive percentage wins
// over a flat amount; a flat amount never exceeds the line total.
func LineDiscount(it LineItem) pricing.Money {
	total := LineTotal(it)
	if it.LineDiscountPercent.IsPositive() {
		return decimal.Min(pricing.RoundMoney(pricing.Percent(total, it.LineDiscountPercent)), total)
	}
	if it.LineDiscountAmount.IsPositive() {
		return decimal.Min(pricing.RoundMoney(it.LineDiscountAmount), total)
	}
	return decimal.Zero
}

// LineNet is the line total after its discount.
func LineNet(it LineItem) pricing.Money {
	return LineTotal(it).Sub(LineDiscount(it))
}

// Subtotal sums the net amount of every line.
func Subtotal(items []LineItem) pricing.Money {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineNet(it))
	}
	return sum
}

// BillDiscount computes the bill-level discount for subtotal. Percentages must
// lie in [0, 100] and cash amounts in [0, subtotal]; anything else yields
// ErrDiscountRange and a zero discount.
func BillDiscount(kind DiscountType, value decimal.Decimal, subtotal pricing.Money) (pricing.Money, error) {
	switch kind {
	case DiscountNone, "":
		return decimal.Zero, nil
	case DiscountPercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return decimal.Zero, fmt.Errorf("bill discount %s%%: %w", value, ErrDiscountRange)
		}
		return pricing.RoundMoney(pricing.Percent(subtotal, value)), nil
	case DiscountCash:
		if value.IsNegative() || value.GreaterThan(subtotal) {
			return decimal.Zero, fmt.Errorf("bill discount %s exceeds subtotal %s: %w", value, subtotal, ErrDiscountRange)
		}
		return pricing.RoundMoney(value), nil
	default:
		return decimal.Zero, fmt.Errorf("%q: %w", kind, ErrDiscountType)
	}
}

// SetBillDiscount records the bill-level discount entered by the operator.
// Negative values and unknown types leave the draft untouched. A value that
// is out of range for the current subtotal is kept on the draft, so the
// operator sees what was typed, but ErrDiscountRange is returned and Compute
// applies no bill discount until it is corrected.
func SetBillDiscount(d Draft, kind DiscountType, value decimal.Decimal) (Draft, error) {
	switch kind {
	case DiscountNone, DiscountPercentage, DiscountCash:
	case "":
		kind = DiscountNone
	default:
		return d, fmt.Errorf("%q: %w", kind, ErrDiscountType)
	}
	if value.IsNegative() {
		return d, fmt.Errorf("bill discount %s: %w", value, ErrDiscountRange)
	}
	out := d.clone()
	out.BillDiscountType = kind
	out.BillDiscountValue = value
	if kind == DiscountNone {
		out.BillDiscountValue = decimal.Zero
	}
	_, err := BillDiscount(kind, out.BillDiscountValue, Subtotal(out.Items))
	return out, err
}
