// Package billing exposes bill-entry sessions over HTTP.
package billing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/session"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/submission"
	"github.com/noah-isme/backend-kasir/internal/units"
)

// Service opens sessions against a fresh catalog snapshot and the current
// tax rate.
type Service struct {
	Registry  *session.Registry
	Catalog   catalog.Source
	Tax       settings.TaxSource
	Submitter submission.Submitter
	Validator *submission.Validator
	Events    *events.Bus
	Units     units.Table
	RoundOff  bool
	Logger    zerolog.Logger
}

// OpenOptions overrides service defaults for one session.
type OpenOptions struct {
	RoundOff      *bool
	GSTPercentage *decimal.Decimal
}

// Open starts a new bill-entry session.
func (s *Service) Open(ctx context.Context, opts OpenOptions) (*session.Session, error) {
	if s == nil || s.Registry == nil || s.Catalog == nil {
		return nil, fmt.Errorf("billing service: %w", session.ErrNotConfigured)
	}
	snapshot, err := catalog.Load(ctx, s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	gst := decimal.Zero
	if opts.GSTPercentage != nil {
		gst = *opts.GSTPercentage
	} else if s.Tax != nil {
		if gst, err = s.Tax.GSTPercentage(ctx); err != nil {
			return nil, fmt.Errorf("load gst percentage: %w", err)
		}
	}
	roundOff := s.RoundOff
	if opts.RoundOff != nil {
		roundOff = *opts.RoundOff
	}
	sess, err := s.Registry.Create(session.Config{
		Catalog:       snapshot,
		Units:         s.Units,
		GSTPercentage: gst,
		RoundOff:      roundOff,
		Submitter:     s.Submitter,
		Validator:     s.Validator,
		Events:        s.Events,
		Logger:        s.Logger,
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info().
		Str("session_id", sess.ID()).
		Int("products", snapshot.Len()).
		Str("gst_percentage", gst.String()).
		Bool("round_off", roundOff).
		Msg("bill_session_opened")
	return sess, nil
}

// With runs fn with exclusive access to a session.
func (s *Service) With(id string, fn func(*session.Session) error) error {
	if s == nil || s.Registry == nil {
		return fmt.Errorf("billing service: %w", session.ErrNotConfigured)
	}
	return s.Registry.With(id, fn)
}

// Discard drops a session.
func (s *Service) Discard(id string) error {
	if s == nil || s.Registry == nil || !s.Registry.Delete(id) {
		return session.ErrSessionNotFound
	}
	return nil
}
