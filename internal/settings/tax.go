package settings

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const gstPercentageKey = "gst_percentage"

// TaxSource supplies the GST percentage used for new bills.
type TaxSource interface {
	GSTPercentage(ctx context.Context) (decimal.Decimal, error)
}

// StaticTax always returns the configured rate.
type StaticTax decimal.Decimal

// GSTPercentage implements TaxSource.
func (s StaticTax) GSTPercentage(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal(s), nil
}

// CachedTax asks Remote first and remembers the answer in Store. When Remote
// fails the last remembered rate is used, then Default.
type CachedTax struct {
	Remote  TaxSource
	Store   Store
	Default decimal.Decimal
	Logger  zerolog.Logger
}

// GSTPercentage implements TaxSource.
func (c CachedTax) GSTPercentage(ctx context.Context) (decimal.Decimal, error) {
	if c.Remote != nil {
		rate, err := c.Remote.GSTPercentage(ctx)
		if err == nil && rate.IsNegative() {
			err = errors.New("negative gst percentage from remote")
		}
		if err == nil {
			if c.Store != nil {
				if serr := c.Store.Set(ctx, gstPercentageKey, rate.String()); serr != nil {
					c.Logger.Warn().Err(serr).Msg("tax_rate_store_failed")
				}
			}
			return rate, nil
		}
		c.Logger.Warn().Err(err).Msg("tax_rate_remote_failed")
	}
	if c.Store != nil {
		raw, ok, err := c.Store.Get(ctx, gstPercentageKey)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("tax_rate_store_read_failed")
		}
		if ok {
			if rate, perr := decimal.NewFromString(raw); perr == nil && !rate.IsNegative() {
				return rate, nil
			}
		}
	}
	return c.Default, nil
}
