package session

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/bill"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/stockgate"
	"github.com/noah-isme/backend-kasir/internal/units"
)

// SelectProduct handles the operator picking a product with a unit and a
// typed quantity. Quantity and price problems are reported before the stock
// gate is consulted. Out-of-stock products are held for confirmation.
func (s *Session) SelectProduct(productID, unit, rawQty string) (Outcome, error) {
	if err := s.ensureOpen(); err != nil {
		return Outcome{}, err
	}
	product, err := s.catalog.Product(productID)
	if err != nil {
		s.reject(productID, err)
		return Outcome{}, err
	}
	entry, err := pricing.Interpret(product, unit, rawQty, s.units)
	if err != nil {
		s.reject(productID, err)
		return Outcome{}, err
	}
	decision, err := s.gate.Select(stockgate.Candidate{Product: product, Unit: unit, RawQuantity: rawQty})
	if err != nil {
		return Outcome{}, err
	}
	if decision == stockgate.DecisionWarn {
		obs.RecordStockGate("warn")
		s.logger.Info().
			Str("product_id", product.ID).
			Int("stock_level", product.StockLevel).
			Msg("bill_out_of_stock_warning")
		return Outcome{
			Status:    OutcomeNeedsConfirmation,
			ProductID: product.ID,
			Unit:      entry.Unit,
			Quantity:  entry.Quantity,
			GateState: s.gate.State(),
		}, nil
	}
	return s.addEntry(product, entry)
}

// ContinueOutOfStock acknowledges the out-of-stock warning.
func (s *Session) ContinueOutOfStock() (stockgate.State, error) {
	if err := s.ensureOpen(); err != nil {
		return s.gate.State(), err
	}
	if err := s.gate.Continue(); err != nil {
		return s.gate.State(), err
	}
	obs.RecordStockGate("continue")
	return s.gate.State(), nil
}

// ConfirmOutOfStock adds the held product after the second acknowledgement.
func (s *Session) ConfirmOutOfStock(ctx context.Context) (Outcome, error) {
	if err := s.ensureOpen(); err != nil {
		return Outcome{}, err
	}
	candidate, err := s.gate.Confirm()
	if err != nil {
		return Outcome{}, err
	}
	obs.RecordStockGate("confirm")
	entry, err := pricing.Interpret(candidate.Product, candidate.Unit, candidate.RawQuantity, s.units)
	if err != nil {
		s.reject(candidate.Product.ID, err)
		return Outcome{}, err
	}
	out, err := s.addEntry(candidate.Product, entry)
	if err != nil {
		return Outcome{}, err
	}
	s.emit(ctx, events.TopicOutOfStockConfirmed, map[string]any{
		"productId":  candidate.Product.ID,
		"stockLevel": candidate.Product.StockLevel,
		"unit":       entry.Unit,
		"quantity":   entry.Quantity.String(),
	})
	return out, nil
}

// CancelOutOfStock drops the held product.
func (s *Session) CancelOutOfStock() stockgate.State {
	if _, held := s.gate.Pending(); held {
		obs.RecordStockGate("cancel")
	}
	s.gate.Cancel()
	return s.gate.State()
}

// RemoveItem removes the line at index.
func (s *Session) RemoveItem(index int) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	next, err := bill.RemoveItem(s.draft, index)
	if err != nil {
		return err
	}
	s.apply(next)
	s.logger.Debug().Int("index", index).Msg("bill_item_removed")
	return nil
}

// SetLineDiscountPercent applies a percentage discount to one line.
func (s *Session) SetLineDiscountPercent(index int, pct decimal.Decimal) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	next, err := bill.SetLineDiscountPercent(s.draft, index, pct)
	if err != nil {
		return err
	}
	s.apply(next)
	return nil
}

// SetLineDiscountAmount applies a flat discount to one line.
func (s *Session) SetLineDiscountAmount(index int, amount decimal.Decimal) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	next, err := bill.SetLineDiscountAmount(s.draft, index, amount)
	if err != nil {
		return err
	}
	s.apply(next)
	return nil
}

// SetBillDiscount records the bill-level discount. An out-of-range value is
// kept but contributes nothing; ErrDiscountRange is still returned so the
// operator is told.
func (s *Session) SetBillDiscount(kind bill.DiscountType, value decimal.Decimal) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	next, err := bill.SetBillDiscount(s.draft, kind, value)
	if err != nil && !errors.Is(err, bill.ErrDiscountRange) {
		return err
	}
	s.apply(next)
	return err
}

// SetGSTPercentage changes the tax rate of this bill.
func (s *Session) SetGSTPercentage(pct decimal.Decimal) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	next, err := bill.SetGSTPercentage(s.draft, pct)
	if err != nil {
		return err
	}
	s.apply(next)
	return nil
}

// SetRoundOff toggles rounding of the final amount.
func (s *Session) SetRoundOff(enabled bool) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	s.apply(bill.SetRoundOff(s.draft, enabled))
	return nil
}

func (s *Session) addEntry(product catalog.Product, entry pricing.Entry) (Outcome, error) {
	base, _ := product.BaseEntry()
	next, err := bill.AddItem(s.draft, bill.LineItem{
		ProductID:     product.ID,
		ProductName:   product.Name,
		SKU:           product.SKU,
		Unit:          entry.Unit,
		Quantity:      entry.Quantity,
		PricePerUnit:  entry.PricePerUnit,
		BaseUnit:      base.Unit,
		BaseUnitPrice: base.SellingPrice,
	})
	if err != nil {
		s.reject(product.ID, err)
		return Outcome{}, err
	}
	s.apply(next)
	s.logger.Info().
		Str("product_id", product.ID).
		Str("unit", entry.Unit).
		Str("quantity", entry.Quantity.String()).
		Bool("reinterpreted", entry.Reinterpreted).
		Msg("bill_item_added")
	return Outcome{
		Status:        OutcomeAdded,
		ProductID:     product.ID,
		Unit:          entry.Unit,
		Quantity:      entry.Quantity,
		Reinterpreted: entry.Reinterpreted,
		GateState:     s.gate.State(),
	}, nil
}

func (s *Session) reject(productID string, err error) {
	reason := rejectionReason(err)
	obs.RecordLineRejection(reason)
	s.logger.Info().Str("product_id", productID).Str("reason", reason).Err(err).Msg("bill_item_rejected")
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity), errors.Is(err, bill.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, pricing.ErrNoPriceAvailable):
		return "no_price"
	case errors.Is(err, units.ErrUnsupportedConversion):
		return "unsupported_conversion"
	case errors.Is(err, catalog.ErrProductNotFound):
		return "not_found"
	default:
		return "other"
	}
}
