package bill

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// SplitGST splits a tax-inclusive amount into its taxable base and the GST
// contained in it. The two parts always add back up to net.
func SplitGST(net pricing.Money, pct decimal.Decimal) (base, gst pricing.Money) {
	if !pct.IsPositive() {
		return net, decimal.Zero
	}
	divisor := decimal.NewFromInt(1).Add(pct.Div(hundred))
	base = pricing.RoundMoney(net.Div(divisor))
	return base, net.Sub(base)
}
