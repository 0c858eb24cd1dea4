package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/obs"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Get("/api/v1/bills/{billID}", func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside_handler")
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/abc", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &access))
	require.Equal(t, "inside_handler", inner["message"])
	require.NotEmpty(t, inner["request_id"])
	require.Equal(t, inner["request_id"], access["request_id"])
	require.Equal(t, "http_request", access["message"])
	require.Equal(t, "/api/v1/bills/{billID}", access["route"])
	require.Equal(t, "abc", access["bill_session"])
	require.EqualValues(t, 200, access["status"])
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "warn")
	logger.Info().Msg("hidden")
	require.Zero(t, buf.Len())
	logger.Warn().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestDomainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("kasir_test", reg)

	obs.RecordSubmission("UPI", "success", 452.5)
	obs.RecordSubmission("Cash", "failure", 0)
	obs.RecordLineRejection("invalid_quantity")
	obs.RecordStockGate("warn")

	require.Equal(t, 1.0, testutil.ToFloat64(obs.BillsSubmittedTotal.WithLabelValues("UPI", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.BillsSubmittedTotal.WithLabelValues("Cash", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.BillLineRejectionsTotal.WithLabelValues("invalid_quantity")))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.StockGateDecisionsTotal.WithLabelValues("warn")))
	require.Equal(t, 1, testutil.CollectAndCount(obs.BillTotalAmount))
}
