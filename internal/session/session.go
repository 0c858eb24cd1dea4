// Package session runs one bill-entry session: it owns the draft, applies
// operator actions in order and keeps the totals current.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/bill"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/stockgate"
	"github.com/noah-isme/backend-kasir/internal/submission"
	"github.com/noah-isme/backend-kasir/internal/units"
)

var (
	// ErrSubmitted is returned for any change after the bill was submitted.
	ErrSubmitted = errors.New("session: bill already submitted")
	// ErrNotConfigured is returned when a collaborator is missing.
	ErrNotConfigured = errors.New("session: not configured")
)

// Config carries everything a session needs. Catalog is the snapshot taken
// when the session starts; it is never refreshed during the session.
type Config struct {
	ID            string
	Catalog       *catalog.Snapshot
	Units         units.Table
	GSTPercentage decimal.Decimal
	RoundOff      bool
	Submitter     submission.Submitter
	Validator     *submission.Validator
	Events        *events.Bus
	Logger        zerolog.Logger
	Now           func() time.Time
}

// OutcomeStatus reports what happened to a selection.
type OutcomeStatus string

const (
	OutcomeAdded             OutcomeStatus = "added"
	OutcomeNeedsConfirmation OutcomeStatus = "needs_confirmation"
)

// Outcome is the result of selecting or confirming a product.
type Outcome struct {
	Status        OutcomeStatus   `json:"status"`
	ProductID     string          `json:"productId"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reinterpreted bool            `json:"reinterpreted"`
	GateState     stockgate.State `json:"gateState"`
}

// Result describes a successful submission.
type Result struct {
	Receipt   submission.Receipt `json:"receipt"`
	Payload   submission.Payload `json:"payload"`
	Totals    bill.Totals        `json:"totals"`
	ChangeDue pricing.Money      `json:"changeDue"`
}

// Session is owned by a single caller at a time and is not safe for
// concurrent use; see Registry.
type Session struct {
	id        string
	catalog   *catalog.Snapshot
	units     units.Table
	draft     bill.Draft
	totals    bill.Totals
	gate      stockgate.Gate
	submitter submission.Submitter
	validator *submission.Validator
	events    *events.Bus
	logger    zerolog.Logger
	now       func() time.Time
	createdAt time.Time
	submitted *Result
}

// New starts a session with an empty draft.
func New(cfg Config) (*Session, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog snapshot missing: %w", ErrNotConfigured)
	}
	draft, err := bill.NewDraft(cfg.GSTPercentage, cfg.RoundOff)
	if err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	validator := cfg.Validator
	if validator == nil {
		validator = submission.NewValidator()
	}
	table := cfg.Units
	if _, ok := table.Lookup(units.Kilogram); !ok {
		table = units.Default()
	}
	s := &Session{
		id:        cfg.ID,
		catalog:   cfg.Catalog,
		units:     table,
		draft:     draft,
		submitter: cfg.Submitter,
		validator: validator,
		events:    cfg.Events,
		logger:    cfg.Logger.With().Str("session_id", cfg.ID).Logger(),
		now:       now,
	}
	s.createdAt = now()
	s.totals = bill.Compute(s.draft)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Draft returns the current draft.
func (s *Session) Draft() bill.Draft { return s.draft }

// Totals returns the totals of the current draft.
func (s *Session) Totals() bill.Totals { return s.totals }

// GateState returns the out-of-stock gate state.
func (s *Session) GateState() stockgate.State { return s.gate.State() }

// PendingCandidate returns the selection held by the gate, if any.
func (s *Session) PendingCandidate() (stockgate.Candidate, bool) { return s.gate.Pending() }

// Submitted returns the submission result once the bill went through.
func (s *Session) Submitted() (Result, bool) {
	if s.submitted == nil {
		return Result{}, false
	}
	return *s.submitted, true
}

// AvailableUnits lists the units an operator may pick for a product.
func (s *Session) AvailableUnits(productID string) ([]string, error) {
	product, err := s.catalog.Product(productID)
	if err != nil {
		return nil, err
	}
	return s.units.AvailableUnits(product.PricedUnits()), nil
}

// Products lists the catalog snapshot the session works against.
func (s *Session) Products() []catalog.Product { return s.catalog.Products() }

// apply swaps in next and recomputes totals. Errors keep the previous state.
func (s *Session) apply(next bill.Draft) {
	wasRejected := s.totals.BillDiscountRejected
	s.draft = next
	s.totals = bill.Compute(next)
	if wasRejected && !s.totals.BillDiscountRejected && s.totals.BillDiscountAmount.IsPositive() {
		// A discount typed against a smaller subtotal now fits and applies.
		s.logger.Warn().
			Str("discount_type", string(next.BillDiscountType)).
			Str("discount_value", next.BillDiscountValue.String()).
			Str("bill_discount", s.totals.BillDiscountAmount.StringFixed(2)).
			Msg("bill_discount_now_applied")
	}
}

func (s *Session) ensureOpen() error {
	if s.submitted != nil {
		return ErrSubmitted
	}
	return nil
}
