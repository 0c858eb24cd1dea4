package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/submission"
)

// Submit validates the bill and hands it to the Submitter. Validation
// failures return a *submission.ValidationError; collaborator failures a
// *submission.SubmissionError. In both cases the draft is left as is so the
// operator can fix it or retry. Nothing is retried automatically.
func (s *Session) Submit(ctx context.Context, customer submission.Customer, method submission.PaymentMethod, amountPaid decimal.Decimal) (Result, error) {
	if err := s.ensureOpen(); err != nil {
		return Result{}, err
	}
	if s.submitter == nil {
		return Result{}, fmt.Errorf("submitter missing: %w", ErrNotConfigured)
	}
	totals := s.totals
	payload := submission.Build(s.draft, totals, customer, method, amountPaid)
	if err := s.validator.Validate(payload); err != nil {
		obs.RecordSubmission(string(method), "invalid", 0)
		var ve *submission.ValidationError
		if errors.As(err, &ve) {
			s.logger.Info().Str("field", ve.Field).Str("reason", ve.Reason).Msg("bill_submission_invalid")
		}
		return Result{}, err
	}

	receipt, err := s.submitter.SubmitBill(ctx, payload)
	if err != nil {
		obs.RecordSubmission(string(method), "failure", 0)
		s.logger.Error().Err(err).Msg("bill_submission_failed")
		s.emit(ctx, events.TopicBillSubmissionFailed, map[string]any{"error": err.Error()})
		return Result{}, &submission.SubmissionError{Err: err}
	}

	result := Result{
		Receipt:   receipt,
		Payload:   payload,
		Totals:    totals,
		ChangeDue: submission.ChangeDue(amountPaid, totals.TotalAmount),
	}
	s.submitted = &result
	s.gate.Cancel()
	obs.RecordSubmission(string(method), "success", payload.TotalAmount)
	s.logger.Info().
		Str("bill_id", receipt.BillID).
		Str("bill_number", receipt.BillNumber).
		Str("total", totals.TotalAmount.StringFixed(2)).
		Str("payment_method", string(method)).
		Msg("bill_submitted")
	s.emit(ctx, events.TopicBillSubmitted, map[string]any{
		"billId":        receipt.BillID,
		"billNumber":    receipt.BillNumber,
		"totalAmount":   payload.TotalAmount,
		"paymentMethod": payload.PaymentMethod,
		"items":         payload.Items,
	})
	return result, nil
}

func (s *Session) emit(ctx context.Context, topic string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, s.id, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("bill_event_emit_failed")
	}
}
