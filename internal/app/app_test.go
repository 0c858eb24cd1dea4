package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/app"
	"github.com/noah-isme/backend-kasir/internal/config"
)

const productsJSON = `[
	{"id":"dal","name":"Toor Dal","sku":"DAL-1","stockLevel":12,"prices":[{"unit":"kg","sellingPrice":"140","netPrice":"120"}]},
	{"id":"soap","name":"Soap","sku":"SOAP-1","stockLevel":3,"prices":[{"unit":"piece","sellingPrice":35}]}
]`

func billingAPI(t *testing.T, submitted *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, productsJSON)
	})
	mux.HandleFunc("/settings/tax", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"gstPercentage":5}`)
	})
	mux.HandleFunc("/bills", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		submitted.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"b-9","billNumber":"INV-0009"}`)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(remoteURL, redisURL string) *config.Config {
	return &config.Config{
		AppEnv:              "test",
		RedisURL:            redisURL,
		BodyLimitBytes:      1 << 16,
		RateLimit:           "1000-M",
		RemoteBaseURL:       remoteURL,
		RemoteToken:         "secret",
		RemoteTimeout:       time.Second,
		RemoteMaxAttempts:   2,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.5,
		BreakerOpenFor:      time.Second,
		SessionIdleTTL:      time.Hour,
		CatalogCacheTTL:     time.Minute,
		IdempotencyTTL:      time.Hour,
		SettingsKeyPrefix:   "kasir:settings",
		Obs:                 config.ObsConfig{MetricsNamespace: "kasir_test"},
	}
}

func post(t *testing.T, url, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestServiceEndToEnd(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	var submitted atomic.Int32
	remote := billingAPI(t, &submitted)
	deps, err := app.New(context.Background(), testConfig(remote.URL, "redis://"+mr.Addr()), zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()

	srv := httptest.NewServer(deps.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := post(t, srv.URL+"/api/v1/bills", "")
	require.Equal(t, http.StatusCreated, status)
	var opened struct {
		ID            string          `json:"id"`
		GSTPercentage decimal.Decimal `json:"gstPercentage"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &opened))
	require.True(t, opened.GSTPercentage.Equal(decimal.NewFromInt(5)))
	require.True(t, mr.Exists("catalog:products"), "catalog is cached after the first session")

	status, _ = post(t, srv.URL+"/api/v1/bills/"+opened.ID+"/items", `{"productId":"dal","unit":"kg","quantity":"0.5"}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = post(t, srv.URL+"/api/v1/bills/"+opened.ID+"/items", `{"productId":"soap","quantity":"2"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body = post(t, srv.URL+"/api/v1/bills/"+opened.ID+"/submit",
		`{"customer":{"name":"Meena","mobileNumber":"9123456780"},"paymentMethod":"Card","amountPaid":140}`)
	require.Equal(t, http.StatusCreated, status, string(body["error"]))
	var res struct {
		Totals struct {
			TotalAmount decimal.Decimal `json:"totalAmount"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &res))
	require.True(t, res.Totals.TotalAmount.Equal(decimal.NewFromInt(140)))
	require.Equal(t, int32(1), submitted.Load())

	entries, err := mr.Stream("kasir:events")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestServiceWithoutRedis(t *testing.T) {
	var submitted atomic.Int32
	remote := billingAPI(t, &submitted)
	deps, err := app.New(context.Background(), testConfig(remote.URL, ""), zerolog.Nop())
	require.NoError(t, err)
	defer deps.Close()
	require.Nil(t, deps.Redis)

	srv := httptest.NewServer(deps.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	var ready map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	resp.Body.Close()
	require.Equal(t, "skipped", ready["redis"])
	require.Equal(t, "ok", ready["remote"])

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/settings/business", strings.NewReader(`{"name":"Kirana Mart"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
