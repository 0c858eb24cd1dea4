// Package submission turns a computed bill into the payload accepted by the
// billing API and guards it with a validation gate.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/bill"
	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// ErrPaymentMethod is returned for a payment method other than Cash, UPI or Card.
var ErrPaymentMethod = errors.New("submission: unknown payment method")

// PaymentMethod is how the customer settled the bill.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentUPI  PaymentMethod = "UPI"
	PaymentCard PaymentMethod = "Card"
)

// ParsePaymentMethod maps user input onto the canonical spelling.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cash":
		return PaymentCash, nil
	case "upi":
		return PaymentUPI, nil
	case "card":
		return PaymentCard, nil
	default:
		return "", fmt.Errorf("%q: %w", raw, ErrPaymentMethod)
	}
}

// Customer identifies who the bill is for.
type Customer struct {
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
}

// Item is one bill line as sent to the billing API.
type Item struct {
	Product         string   `json:"product" validate:"required"`
	ProductName     string   `json:"productName" validate:"required"`
	SKU             string   `json:"sku"`
	Unit            string   `json:"unit" validate:"required"`
	Quantity        float64  `json:"quantity" validate:"gt=0"`
	Price           float64  `json:"price" validate:"gte=0"`
	DiscountPercent *float64 `json:"discountPercent,omitempty" validate:"omitempty,gte=0,lte=100"`
	DiscountAmount  *float64 `json:"discountAmount,omitempty" validate:"omitempty,gte=0"`
}

// Payload is the bill document submitted for persistence.
type Payload struct {
	CustomerMobileNumber string        `json:"customerMobileNumber" validate:"required,numeric,min=10,max=15"`
	CustomerName         string        `json:"customerName" validate:"required"`
	Items                []Item        `json:"items" validate:"required,min=1,dive"`
	BaseAmount           float64       `json:"baseAmount" validate:"gte=0"`
	GSTPercentage        float64       `json:"gstPercentage" validate:"gte=0"`
	GSTAmount            float64       `json:"gstAmount" validate:"gte=0"`
	TotalAmount          float64       `json:"totalAmount" validate:"gte=0"`
	PaymentMethod        PaymentMethod `json:"paymentMethod" validate:"required,oneof=Cash UPI Card"`
	AmountPaid           float64       `json:"amountPaid" validate:"gte=0"`
	DiscountType         string        `json:"discountType" validate:"omitempty,oneof=none percentage cash"`
	DiscountValue        float64       `json:"discountValue" validate:"gte=0"`
	DiscountAmount       float64       `json:"discountAmount" validate:"gte=0"`
}

// Receipt is what the billing API returns for a stored bill.
type Receipt struct {
	BillID     string `json:"id"`
	BillNumber string `json:"billNumber,omitempty"`
}

// Submitter persists a bill. Implementations are expected to talk to the
// billing API; failures are reported verbatim and never retried here.
type Submitter interface {
	SubmitBill(ctx context.Context, p Payload) (Receipt, error)
}

// Build assembles the payload for draft and its totals. Money values are
// rounded to currency precision before leaving decimal arithmetic.
func Build(draft bill.Draft, totals bill.Totals, customer Customer, method PaymentMethod, amountPaid decimal.Decimal) Payload {
	items := make([]Item, 0, len(draft.Items))
	for _, it := range draft.Items {
		out := Item{
			Product:     it.ProductID,
			ProductName: it.ProductName,
			SKU:         it.SKU,
			Unit:        it.Unit,
			Quantity:    it.Quantity.InexactFloat64(),
			Price:       it.PricePerUnit.InexactFloat64(),
		}
		if it.LineDiscountPercent.IsPositive() {
			pct := it.LineDiscountPercent.InexactFloat64()
			out.DiscountPercent = &pct
		} else if it.LineDiscountAmount.IsPositive() {
			amt := money(it.LineDiscountAmount)
			out.DiscountAmount = &amt
		}
		items = append(items, out)
	}
	discountValue := draft.BillDiscountValue
	if totals.BillDiscountRejected {
		discountValue = decimal.Zero
	}
	return Payload{
		CustomerMobileNumber: strings.TrimSpace(customer.MobileNumber),
		CustomerName:         strings.TrimSpace(customer.Name),
		Items:                items,
		BaseAmount:           money(totals.BaseAmount),
		GSTPercentage:        draft.GSTPercentage.InexactFloat64(),
		GSTAmount:            money(totals.GSTAmount),
		TotalAmount:          money(totals.TotalAmount),
		PaymentMethod:        method,
		AmountPaid:           money(amountPaid),
		DiscountType:         string(discountTypeOrNone(draft.BillDiscountType)),
		DiscountValue:        discountValue.InexactFloat64(),
		DiscountAmount:       money(totals.BillDiscountAmount),
	}
}

// ChangeDue is what the cashier hands back. It is zero when nothing is owed.
func ChangeDue(amountPaid, total pricing.Money) pricing.Money {
	change := amountPaid.Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return pricing.RoundMoney(change)
}

func money(m decimal.Decimal) float64 {
	return pricing.RoundMoney(m).InexactFloat64()
}

func discountTypeOrNone(t bill.DiscountType) bill.DiscountType {
	if t == "" {
		return bill.DiscountNone
	}
	return t
}
