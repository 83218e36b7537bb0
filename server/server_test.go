package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/dashboard"
	"github.com/etnz/portfolio-chart/marketdata"
	"github.com/etnz/portfolio-chart/store"
)

var (
	day1 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	day2 = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC).Unix()
)

func flat(t int64, v float64) marketdata.Bar {
	d := decimal.NewFromFloat(v)
	return marketdata.NewBar(t, d, d, d, d)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "pfc.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	bars := map[string][]marketdata.Bar{
		"AAPL.US": {flat(day1, 12), flat(day2, 13)},
	}
	provider := marketdata.ProviderFunc(func(ctx context.Context, r marketdata.Request) ([]marketdata.Bar, error) {
		b, ok := bars[r.Symbol]
		if !ok {
			return nil, errors.New("no data for " + r.Symbol)
		}
		return b, nil
	})
	d := dashboard.New(s, marketdata.NewFetcher(provider), portfolio.NewAggregator(), nil)

	ts := httptest.NewServer(New(":0", "USD", d, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func addBuy(t *testing.T, ts *httptest.Server) portfolio.Transaction {
	t.Helper()
	body := fmt.Sprintf(`{"symbol":"AAPL.US","currency":"USD","type":"buy","time":%d,"quantity":"10","price":10}`, day1)
	resp := do(t, http.MethodPost, ts.URL+"/api/portfolios/main/transactions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tx portfolio.Transaction
	decode(t, resp, &tx)
	return tx
}

func TestTransactions(t *testing.T) {
	ts := newTestServer(t)
	tx := addBuy(t, ts)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, portfolio.Buy, tx.Type)

	resp := do(t, http.MethodGet, ts.URL+"/api/portfolios", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []store.Portfolio
	decode(t, resp, &all)
	require.Len(t, all, 1)
	assert.Equal(t, "main", all[0].ID)

	resp = do(t, http.MethodDelete, ts.URL+"/api/portfolios/main/transactions/"+tx.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodDelete, ts.URL+"/api/portfolios/main/transactions/"+tx.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddTransactionRejects(t *testing.T) {
	ts := newTestServer(t)
	addBuy(t, ts)

	testCases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"no symbol", `{"currency":"USD","type":"buy","quantity":1,"price":1}`},
		{"bad currency", `{"symbol":"A","currency":"usd","type":"buy","quantity":1,"price":1}`},
		{"bad type", `{"symbol":"A","currency":"USD","type":"hold","quantity":1,"price":1}`},
		{"negative quantity", `{"symbol":"A","currency":"USD","type":"buy","quantity":-1,"price":1}`},
		{"currency mismatch", `{"symbol":"AAPL.US","currency":"EUR","type":"buy","quantity":1,"price":1}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/api/portfolios/main/transactions", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var e errorJSON
			decode(t, resp, &e)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestChart(t *testing.T) {
	ts := newTestServer(t)
	addBuy(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/api/portfolios/main/chart?days=30", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c chartJSON
	decode(t, resp, &c)

	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, "day", c.Granularity)
	require.Len(t, c.Value, 2)
	assert.Equal(t, day2, c.Value[1].Time)
	require.NotNil(t, c.Value[1].Close)
	assert.InDelta(t, 130, *c.Value[1].Close, 1e-9)
	require.Len(t, c.CostBasis, 2)
	assert.InDelta(t, 100, *c.CostBasis[1].Value, 1e-9)
	assert.Contains(t, c.Thumbnails, "AAPL.US")
	assert.InDelta(t, 30, c.Summary.Change, 1e-9)
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	addBuy(t, ts)

	testCases := []struct {
		name string
		path string
		want int
	}{
		{"unknown portfolio", "/api/portfolios/missing", http.StatusNotFound},
		{"chart of unknown portfolio", "/api/portfolios/missing/chart", http.StatusNotFound},
		{"bad days", "/api/portfolios/main/chart?days=abc", http.StatusBadRequest},
		{"negative days", "/api/portfolios/main/chart?days=-1", http.StatusBadRequest},
		{"bad chart currency", "/api/portfolios/main/chart?currency=usd", http.StatusBadRequest},
		{"missing rate upstream", "/api/portfolios/main/chart?currency=EUR", http.StatusBadGateway},
		{"bad currencies currency", "/api/portfolios/main/currencies?currency=EURO", http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+tc.path, "")
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestCurrencies(t *testing.T) {
	ts := newTestServer(t)
	addBuy(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/api/portfolios/main/currencies?currency=EUR", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []string
	decode(t, resp, &got)
	assert.Equal(t, []string{"USD"}, got)

	resp = do(t, http.MethodGet, ts.URL+"/api/portfolios/main/currencies", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = nil
	decode(t, resp, &got)
	assert.Empty(t, got)
}

func TestStatus(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", store.ErrNotFound), http.StatusNotFound},
		{portfolio.ErrNoHoldings, http.StatusNotFound},
		{fmt.Errorf("%w: bad", store.ErrInvalid), http.StatusBadRequest},
		{portfolio.ErrInvalidTransaction, http.StatusBadRequest},
		{fmt.Errorf("%w: x", dashboard.ErrUpstream), http.StatusBadGateway},
		{fmt.Errorf("converting: %w", portfolio.ErrMissingRate), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		if got := status(tc.err); got != tc.want {
			t.Errorf("status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
