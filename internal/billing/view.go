package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/bill"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/session"
	"github.com/noah-isme/backend-kasir/internal/stockgate"
)

type lineView struct {
	bill.LineItem
	LineTotal    pricing.Money `json:"lineTotal"`
	LineDiscount pricing.Money `json:"lineDiscount"`
	LineNet      pricing.Money `json:"lineNet"`
}

type pendingView struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	StockLevel  int    `json:"stockLevel"`
	Unit        string `json:"unit"`
	Quantity    string `json:"quantity"`
}

type billView struct {
	ID                string            `json:"id"`
	CreatedAt         time.Time         `json:"createdAt"`
	Items             []lineView        `json:"items"`
	BillDiscountType  bill.DiscountType `json:"billDiscountType"`
	BillDiscountValue decimal.Decimal   `json:"billDiscountValue"`
	GSTPercentage     decimal.Decimal   `json:"gstPercentage"`
	RoundOff          bool              `json:"roundOff"`
	Totals            bill.Totals       `json:"totals"`
	GateState         stockgate.State   `json:"gateState"`
	Pending           *pendingView      `json:"pending,omitempty"`
	Submitted         *session.Result   `json:"submitted,omitempty"`
}

func viewOf(s *session.Session) billView {
	draft := s.Draft()
	lines := make([]lineView, 0, len(draft.Items))
	for _, it := range draft.Items {
		lines = append(lines, lineView{
			LineItem:     it,
			LineTotal:    bill.LineTotal(it),
			LineDiscount: bill.LineDiscount(it),
			LineNet:      bill.LineNet(it),
		})
	}
	v := billView{
		ID:                s.ID(),
		CreatedAt:         s.CreatedAt(),
		Items:             lines,
		BillDiscountType:  draft.BillDiscountType,
		BillDiscountValue: draft.BillDiscountValue,
		GSTPercentage:     draft.GSTPercentage,
		RoundOff:          draft.RoundOff,
		Totals:            s.Totals(),
		GateState:         s.GateState(),
	}
	if c, ok := s.PendingCandidate(); ok {
		v.Pending = &pendingView{
			ProductID:   c.Product.ID,
			ProductName: c.Product.Name,
			StockLevel:  c.Product.StockLevel,
			Unit:        c.Unit,
			Quantity:    c.RawQuantity,
		}
	}
	if res, ok := s.Submitted(); ok {
		v.Submitted = &res
	}
	return v
}
