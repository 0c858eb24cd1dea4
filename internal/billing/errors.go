package billing

import (
	"errors"
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/bill"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/pricing"
	"github.com/noah-isme/backend-kasir/internal/session"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/stockgate"
	"github.com/noah-isme/backend-kasir/internal/submission"
	"github.com/noah-isme/backend-kasir/internal/units"
)

var errBadPayload = errors.New("billing: invalid payload")

// toAppError maps domain errors onto API error codes.
func toAppError(err error) *common.AppError {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var subErr *submission.SubmissionError
	if errors.As(err, &subErr) {
		return common.NewAppError(common.CodeSubmissionFailed, subErr.Error(), http.StatusBadGateway, err)
	}
	var valErr *submission.ValidationError
	if errors.As(err, &valErr) {
		return common.NewAppError(common.CodeValidation, valErr.Reason, http.StatusUnprocessableEntity, err).
			WithDetails(map[string]string{"field": valErr.Field})
	}
	switch {
	case errors.Is(err, errBadPayload):
		return common.NewAppError(common.CodeValidation, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, session.ErrSessionNotFound):
		return common.NewAppError(common.CodeNotFound, "bill session not found", http.StatusNotFound, err)
	case errors.Is(err, catalog.ErrProductNotFound):
		return common.NewAppError(common.CodeNotFound, "product not found", http.StatusNotFound, err)
	case errors.Is(err, bill.ErrItemIndex):
		return common.NewAppError(common.CodeNotFound, "bill line not found", http.StatusNotFound, err)
	case errors.Is(err, pricing.ErrInvalidQuantity), errors.Is(err, bill.ErrInvalidQuantity):
		return common.NewAppError(common.CodeInvalidQuantity, "quantity must be a positive number", http.StatusUnprocessableEntity, err)
	case errors.Is(err, bill.ErrDiscountRange):
		return common.NewAppError(common.CodeDiscountRange, "discount is out of range", http.StatusUnprocessableEntity, err)
	case errors.Is(err, units.ErrUnsupportedConversion):
		return common.NewAppError(common.CodeUnsupportedConversion, "unit cannot be converted to the product's base unit", http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrNoPriceAvailable):
		return common.NewAppError(common.CodeNoPriceAvailable, "product has no price", http.StatusUnprocessableEntity, err)
	case errors.Is(err, stockgate.ErrInvalidTransition):
		return common.NewAppError(common.CodeInvalidTransition, "out-of-stock confirmation is not in that state", http.StatusConflict, err)
	case errors.Is(err, session.ErrSubmitted):
		return common.NewAppError(common.CodeConflict, "bill already submitted", http.StatusConflict, err)
	case errors.Is(err, bill.ErrDiscountType), errors.Is(err, bill.ErrTaxRate),
		errors.Is(err, submission.ErrPaymentMethod), errors.Is(err, settings.ErrInvalidBusinessInfo):
		return common.NewAppError(common.CodeValidation, err.Error(), http.StatusUnprocessableEntity, err)
	default:
		return common.NewAppError(common.CodeInternal, "internal error", http.StatusInternalServerError, err)
	}
}
