// Package bill models an in-progress bill and computes its totals. Every
// mutation returns a new Draft; the input draft is never modified.
package bill

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

var (
	// ErrInvalidQuantity is returned when a line quantity is zero or negative.
	ErrInvalidQuantity = errors.New("bill: quantity must be positive")
	// ErrItemIndex is returned for a line index outside the draft.
	ErrItemIndex = errors.New("bill: line index out of range")
	// ErrDiscountRange is returned when a discount value is outside its allowed range.
	ErrDiscountRange = errors.New("bill: discount out of range")
	// ErrDiscountType is returned for an unknown bill discount type.
	ErrDiscountType = errors.New("bill: unknown discount type")
	// ErrTaxRate is returned for a negative GST percentage.
	ErrTaxRate = errors.New("bill: gst percentage must not be negative")
)

// LineItem is one product/unit pair on the bill.
type LineItem struct {
	ProductID           string          `json:"productId"`
	ProductName         string          `json:"productName"`
	SKU                 string          `json:"sku"`
	Unit                string          `json:"unit"`
	Quantity            decimal.Decimal `json:"quantity"`
	PricePerUnit        pricing.Money   `json:"pricePerUnit"`
	BaseUnit            string          `json:"baseUnit"`
	BaseUnitPrice       pricing.Money   `json:"baseUnitPrice"`
	LineDiscountPercent decimal.Decimal `json:"lineDiscountPercent"`
	LineDiscountAmount  pricing.Money   `json:"lineDiscountAmount"`
}

// Draft is the mutable-by-copy state of a bill being entered.
type Draft struct {
	Items             []LineItem      `json:"items"`
	BillDiscountType  DiscountType    `json:"billDiscountType"`
	BillDiscountValue decimal.Decimal `json:"billDiscountValue"`
	GSTPercentage     decimal.Decimal `json:"gstPercentage"`
	RoundOff          bool            `json:"roundOff"`
}

// NewDraft returns an empty draft with the given tax rate and rounding flag.
func NewDraft(gstPercentage decimal.Decimal, roundOff bool) (Draft, error) {
	if gstPercentage.IsNegative() {
		return Draft{}, ErrTaxRate
	}
	return Draft{
		BillDiscountType: DiscountNone,
		GSTPercentage:    gstPercentage,
		RoundOff:         roundOff,
	}, nil
}

// Totals is the computed view of a draft. Money values carry two decimals.
type Totals struct {
	Subtotal             pricing.Money `json:"subtotal"`
	BillDiscountAmount   pricing.Money `json:"billDiscountAmount"`
	NetAmount            pricing.Money `json:"netAmount"`
	BaseAmount           pricing.Money `json:"baseAmount"`
	GSTAmount            pricing.Money `json:"gstAmount"`
	TotalAmount          pricing.Money `json:"totalAmount"`
	RoundingAdjustment   pricing.Money `json:"roundingAdjustment"`
	BillDiscountRejected bool          `json:"billDiscountRejected"`
}

// SetGSTPercentage changes the tax rate used by Compute.
func SetGSTPercentage(d Draft, pct decimal.Decimal) (Draft, error) {
	if pct.IsNegative() {
		return d, ErrTaxRate
	}
	out := d.clone()
	out.GSTPercentage = pct
	return out, nil
}

// SetRoundOff toggles rounding of the final amount.
func SetRoundOff(d Draft, enabled bool) Draft {
	out := d.clone()
	out.RoundOff = enabled
	return out
}

func (d Draft) clone() Draft {
	out := d
	out.Items = append([]LineItem(nil), d.Items...)
	return out
}
