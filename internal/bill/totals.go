package bill

// Compute derives the totals of d from scratch. It has no side effects and
// returns the same result for the same draft regardless of line order.
func Compute(d Draft) Totals {
	subtotal := Subtotal(d.Items)
	discount, err := BillDiscount(d.BillDiscountType, d.BillDiscountValue, subtotal)
	net := subtotal.Sub(discount)
	base, gst := SplitGST(net, d.GSTPercentage)
	total, adjustment := RoundTotal(net, d.RoundOff)
	return Totals{
		Subtotal:             subtotal,
		BillDiscountAmount:   discount,
		NetAmount:            net,
		BaseAmount:           base,
		GSTAmount:            gst,
		TotalAmount:          total,
		RoundingAdjustment:   adjustment,
		BillDiscountRejected: err != nil,
	}
}
