package bill

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/pricing"
)

// RoundTotal rounds net to the nearest whole currency unit, halves away from
// zero, when enabled. The adjustment is total minus net.
func RoundTotal(net pricing.Money, enabled bool) (total, adjustment pricing.Money) {
	if !enabled {
		return net, decimal.Zero
	}
	total = net.Round(0)
	return total, total.Sub(net)
}
