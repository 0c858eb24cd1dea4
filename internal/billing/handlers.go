package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/bill"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/session"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/submission"
)

// Refresher drops cached catalog data.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handler wires bill sessions and business settings to HTTP.
type Handler struct {
	Svc      *Service
	Settings settings.Store
	Catalog  Refresher
}

// Routes registers the billing endpoints on r. submitMW wraps the submit
// endpoint only, typically with the idempotency middleware.
func (h *Handler) Routes(r chi.Router, submitMW ...func(http.Handler) http.Handler) {
	r.Route("/bills", func(b chi.Router) {
		b.Post("/", h.Open)
		b.Route("/{billID}", func(s chi.Router) {
			s.Get("/", h.Get)
			s.Delete("/", h.Discard)
			s.Get("/products", h.Products)
			s.Get("/products/{productID}/units", h.Units)
			s.Post("/items", h.SelectProduct)
			s.Delete("/items/{index}", h.RemoveItem)
			s.Put("/items/{index}/discount", h.SetLineDiscount)
			s.Post("/stock-gate/continue", h.ContinueOutOfStock)
			s.Post("/stock-gate/confirm", h.ConfirmOutOfStock)
			s.Post("/stock-gate/cancel", h.CancelOutOfStock)
			s.Put("/discount", h.SetBillDiscount)
			s.Put("/gst", h.SetGST)
			s.Put("/round-off", h.SetRoundOff)
			s.With(submitMW...).Post("/submit", h.Submit)
		})
	})
	r.Get("/settings/business", h.GetBusiness)
	r.Put("/settings/business", h.PutBusiness)
	r.Post("/catalog/refresh", h.RefreshCatalog)
}

// Open starts a bill session.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RoundOff      *bool            `json:"roundOff"`
		GSTPercentage *decimal.Decimal `json:"gstPercentage"`
	}
	if err := decodeOptional(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.Svc.Open(r.Context(), OpenOptions{RoundOff: payload.RoundOff, GSTPercentage: payload.GSTPercentage})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// The id has not left this request yet, so nothing else can touch sess
	// even if an idle sweep already dropped it from the registry.
	common.Data(w, http.StatusCreated, viewOf(sess))
}

// Get returns the draft, totals and gate state.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, func(s *session.Session) (any, error) { return viewOf(s), nil })
}

// Discard drops the session.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Discard(chi.URLParam(r, "billID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Products lists the catalog snapshot of the session.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	h.read(w, r, func(s *session.Session) (any, error) { return s.Products(), nil })
}

// Units lists the units an operator may select for a product.
func (h *Handler) Units(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	h.read(w, r, func(s *session.Session) (any, error) {
		list, err := s.AvailableUnits(productID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"productId": productID, "units": list}, nil
	})
}

// SelectProduct adds a product line or parks it behind the stock gate.
func (h *Handler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string          `json:"productId"`
		Unit      string          `json:"unit"`
		Quantity  json.RawMessage `json:"quantity"`
	}
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	if payload.ProductID == "" {
		h.writeError(w, r, fmt.Errorf("productId is required: %w", errBadPayload))
		return
	}
	raw, err := rawQuantity(payload.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var (
		out  session.Outcome
		view billView
	)
	err = h.Svc.With(chi.URLParam(r, "billID"), func(s *session.Session) error {
		var err error
		out, err = s.SelectProduct(payload.ProductID, payload.Unit, raw)
		view = viewOf(s)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if out.Status == session.OutcomeNeedsConfirmation {
		status = http.StatusAccepted
	}
	common.Data(w, status, map[string]any{"outcome": out, "bill": view})
}

// ContinueOutOfStock acknowledges the first out-of-stock warning.
func (h *Handler) ContinueOutOfStock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *session.Session) error {
		_, err := s.ContinueOutOfStock()
		return err
	})
}

// ConfirmOutOfStock adds the held product.
func (h *Handler) ConfirmOutOfStock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *session.Session) error {
		_, err := s.ConfirmOutOfStock(r.Context())
		return err
	})
}

// CancelOutOfStock drops the held product.
func (h *Handler) CancelOutOfStock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(s *session.Session) error {
		s.CancelOutOfStock()
		return nil
	})
}

// RemoveItem deletes a bill line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := lineIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(s *session.Session) error { return s.RemoveItem(index) })
}

// SetLineDiscount applies a percentage or flat discount to one line.
func (h *Handler) SetLineDiscount(w http.ResponseWriter, r *http.Request) {
	index, err := lineIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var payload struct {
		Type  string          `json:"type"`
		Value decimal.Decimal `json:"value"`
	}
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	kind, err := bill.ParseDiscountType(payload.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(s *session.Session) error {
		switch kind {
		case bill.DiscountPercentage:
			return s.SetLineDiscountPercent(index, payload.Value)
		case bill.DiscountCash:
			return s.SetLineDiscountAmount(index, payload.Value)
		default:
			return s.SetLineDiscountPercent(index, decimal.Zero)
		}
	})
}

// SetBillDiscount records the bill-level discount. An out-of-range value is
// reported as DISCOUNT_RANGE with the resulting bill in the error details.
func (h *Handler) SetBillDiscount(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Type  string          `json:"type"`
		Value decimal.Decimal `json:"value"`
	}
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	kind, err := bill.ParseDiscountType(payload.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var view billView
	err = h.Svc.With(chi.URLParam(r, "billID"), func(s *session.Session) error {
		err := s.SetBillDiscount(kind, payload.Value)
		view = viewOf(s)
		return err
	})
	if errors.Is(err, bill.ErrDiscountRange) {
		h.writeError(w, r, toAppError(err).WithDetails(map[string]any{"bill": view}))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// SetGST changes the tax rate of the bill.
func (h *Handler) SetGST(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		GSTPercentage decimal.Decimal `json:"gstPercentage"`
	}
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(s *session.Session) error { return s.SetGSTPercentage(payload.GSTPercentage) })
}

// SetRoundOff toggles rounding of the final amount.
func (h *Handler) SetRoundOff(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Enabled bool `json:"enabled"`
	}
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.mutate(w, r, func(s *session.Session) error { return s.SetRoundOff(payload.Enabled) })
}

// Submit validates the bill and sends it to the billing API.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Customer      submission.Customer `json:"customer"`
		PaymentMethod string              `json:"paymentMethod"`
		AmountPaid    decimal.Decimal     `json:"amountPaid"`
	}
	if err := decode(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	method, err := submission.ParsePaymentMethod(payload.PaymentMethod)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var res session.Result
	err = h.Svc.With(chi.URLParam(r, "billID"), func(s *session.Session) error {
		var err error
		res, err = s.Submit(r.Context(), payload.Customer, method, payload.AmountPaid)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusCreated, res)
}

// GetBusiness returns the saved seller details.
func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	if h.Settings == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "settings store not configured", nil)
		return
	}
	info, err := settings.LoadBusinessInfo(r.Context(), h.Settings)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, info)
}

// PutBusiness validates and saves the seller details.
func (h *Handler) PutBusiness(w http.ResponseWriter, r *http.Request) {
	if h.Settings == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "settings store not configured", nil)
		return
	}
	var info settings.BusinessInfo
	if err := decode(r, &info); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := settings.SaveBusinessInfo(r.Context(), h.Settings, info); err != nil {
		h.writeError(w, r, err)
		return
	}
	saved, err := settings.LoadBusinessInfo(r.Context(), h.Settings)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, saved)
}

// RefreshCatalog drops the cached catalog. Open sessions keep their snapshot;
// only sessions opened afterwards see the new products.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if h.Catalog != nil {
		if err := h.Catalog.Refresh(r.Context()); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (any, error)) {
	var out any
	err := h.Svc.With(chi.URLParam(r, "billID"), func(s *session.Session) error {
		var err error
		out, err = fn(s)
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

// mutate applies fn and answers with the updated bill.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	h.read(w, r, func(s *session.Session) (any, error) {
		if err := fn(s); err != nil {
			return nil, err
		}
		return viewOf(s), nil
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("code", appErr.Code).Msg("billing_request_failed")
	}
	common.WriteError(w, appErr)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), errBadPayload)
	}
	return nil
}

func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%s: %w", err.Error(), errBadPayload)
}

// rawQuantity keeps the typed text of a quantity, whether it came as a JSON
// string or a bare number, so "0.25" stays distinguishable from "1".
func rawQuantity(msg json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("quantity: %w", errBadPayload)
		}
		return s, nil
	}
	return string(trimmed), nil
}

func lineIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, fmt.Errorf("line index must be a number: %w", errBadPayload)
	}
	return index, nil
}
