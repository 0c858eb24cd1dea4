// Package remote talks to the billing API that owns products, tax settings
// and stored bills.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/resilience"
	"github.com/noah-isme/backend-kasir/internal/submission"
)

// ErrNotConfigured is returned when the client has no base URL.
var ErrNotConfigured = errors.New("remote: billing api not configured")

// StatusError is a non-2xx answer from the billing API.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("billing api returned %d", e.Status)
	}
	return fmt.Sprintf("billing api returned %d: %s", e.Status, e.Message)
}

// Client implements catalog.Source, settings.TaxSource and submission.Submitter.
type Client struct {
	BaseURL string
	Token   string
	HTTP    resilience.HTTPClient
}

type productsEnvelope struct {
	Products []catalog.Product `json:"products"`
}

// Products fetches the catalog. Both a bare array and {"products": [...]} are accepted.
func (c Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/products", nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []catalog.Product
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		return list, nil
	}
	var env productsEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return env.Products, nil
}

type taxSettings struct {
	GSTPercentage decimal.Decimal `json:"gstPercentage"`
}

// GSTPercentage reads the configured tax rate.
func (c Client) GSTPercentage(ctx context.Context) (decimal.Decimal, error) {
	var out taxSettings
	if err := c.call(ctx, http.MethodGet, "/settings/tax", nil, &out); err != nil {
		return decimal.Zero, err
	}
	return out.GSTPercentage, nil
}

// SubmitBill stores a bill. The POST is sent once; resubmitting after a
// failure is left to the operator so a slow upstream never stores a bill twice.
func (c Client) SubmitBill(ctx context.Context, p submission.Payload) (submission.Receipt, error) {
	var out submission.Receipt
	if err := c.call(ctx, http.MethodPost, "/bills", p, &out); err != nil {
		return submission.Receipt{}, err
	}
	return out, nil
}

// Ping checks that the billing API answers.
func (c Client) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (c Client) call(ctx context.Context, method, path string, body, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return ErrNotConfigured
	}
	ctx, span := otel.Tracer("remote.billing_api").Start(ctx, method+" "+path)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.route", path))

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	do := c.HTTP.Do
	if method != http.MethodGet {
		do = c.HTTP.Once
	}
	resp, err := do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		span.SetStatus(codes.Error, statusErr.Error())
		return statusErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 8<<10))
	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		switch v := body.Error.(type) {
		case string:
			return v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(data))
}
