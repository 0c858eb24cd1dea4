package bill

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/units"
)

// AddItem appends item to the draft. A line with the same product and unit
// absorbs the quantity instead and keeps its other fields.
func AddItem(d Draft, item LineItem) (Draft, error) {
	if !item.Quantity.IsPositive() {
		return d, fmt.Errorf("product %s: %w", item.ProductID, ErrInvalidQuantity)
	}
	out := d.clone()
	if i := out.findLine(item.ProductID, item.Unit); i >= 0 {
		out.Items[i].Quantity = out.Items[i].Quantity.Add(item.Quantity)
		return out, nil
	}
	out.Items = append(out.Items, item)
	return out, nil
}

// RemoveItem drops the line at index.
func RemoveItem(d Draft, index int) (Draft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, fmt.Errorf("remove line %d: %w", index, ErrItemIndex)
	}
	out := d.clone()
	out.Items = append(out.Items[:index], out.Items[index+1:]...)
	return out, nil
}

// SetLineDiscountPercent sets a percentage discount on a line and clears any
// flat amount, since the two are mutually exclusive.
func SetLineDiscountPercent(d Draft, index int, pct decimal.Decimal) (Draft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, fmt.Errorf("discount line %d: %w", index, ErrItemIndex)
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return d, fmt.Errorf("line discount %s%%: %w", pct, ErrDiscountRange)
	}
	out := d.clone()
	out.Items[index].LineDiscountPercent = pct
	out.Items[index].LineDiscountAmount = decimal.Zero
	return out, nil
}

// SetLineDiscountAmount sets a flat discount on a line and clears the percentage.
func SetLineDiscountAmount(d Draft, index int, amount decimal.Decimal) (Draft, error) {
	if index < 0 || index >= len(d.Items) {
		return d, fmt.Errorf("discount line %d: %w", index, ErrItemIndex)
	}
	if amount.IsNegative() {
		return d, fmt.Errorf("line discount %s: %w", amount, ErrDiscountRange)
	}
	out := d.clone()
	out.Items[index].LineDiscountAmount = amount
	out.Items[index].LineDiscountPercent = decimal.Zero
	return out, nil
}

func (d Draft) findLine(productID, unit string) int {
	for i, it := range d.Items {
		if it.ProductID == productID && units.SameUnit(it.Unit, unit) {
			return i
		}
	}
	return -1
}
