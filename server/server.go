// Package server exposes portfolio charts over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/dashboard"
	"github.com/etnz/portfolio-chart/store"
)

// Server serves the API of a dashboard.
type Server struct {
	Addr string
	// Currency is the display currency used when a request does not name one.
	Currency  string
	dashboard *dashboard.Dashboard
	logger    *zap.Logger
}

// New creates a new server instance.
func New(addr, currency string, d *dashboard.Dashboard, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Currency: currency, dashboard: d, logger: logger}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/portfolios", s.handlePortfolios)
	mux.HandleFunc("GET /api/portfolios/{id}", s.handlePortfolio)
	mux.HandleFunc("GET /api/portfolios/{id}/chart", s.handleChart)
	mux.HandleFunc("GET /api/portfolios/{id}/currencies", s.handleCurrencies)
	mux.HandleFunc("POST /api/portfolios/{id}/transactions", s.handleAddTransaction)
	mux.HandleFunc("DELETE /api/portfolios/{id}/transactions/{tx}", s.handleDeleteTransaction)
	return s.logged(mux)
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handlePortfolios(w http.ResponseWriter, r *http.Request) {
	all, err := s.dashboard.Store.Portfolios(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if all == nil {
		all = []store.Portfolio{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.dashboard.Store.Portfolio(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := 0
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "days must be a positive integer"})
			return
		}
		days = n
	}

	chart, err := s.dashboard.LastDays(r.Context(), r.PathValue("id"), s.currency(r), days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChartJSON(chart))
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	display := s.currency(r)
	if err := portfolio.ValidateCurrency(display); err != nil {
		s.writeError(w, err)
		return
	}
	currencies, err := s.dashboard.Currencies(r.Context(), r.PathValue("id"), display)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if currencies == nil {
		currencies = []string{}
	}
	writeJSON(w, http.StatusOK, currencies)
}

// transactionRequest is the body of a new transaction.
type transactionRequest struct {
	Symbol   string          `json:"symbol"`
	Currency string          `json:"currency"`
	Type     string          `json:"type"`
	Time     int64           `json:"time"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid body: " + err.Error()})
		return
	}
	if req.Symbol == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "symbol is missing"})
		return
	}
	if err := portfolio.ValidateCurrency(req.Currency); err != nil {
		s.writeError(w, err)
		return
	}
	typ, err := portfolio.ParseTxType(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
		return
	}
	if req.Time == 0 {
		req.Time = time.Now().Unix()
	}
	tx, err := portfolio.NewTransaction(typ, req.Time, req.Quantity, req.Price)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.dashboard.Store.AddTransaction(r.Context(), r.PathValue("id"), req.Symbol, req.Currency, tx); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.dashboard.Store.DeleteTransaction(r.Context(), r.PathValue("id"), r.PathValue("tx")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) currency(r *http.Request) string {
	if c := r.URL.Query().Get("currency"); c != "" {
		return c
	}
	return s.Currency
}

type errorJSON struct {
	Error string `json:"error"`
}

// status maps domain errors to HTTP status codes.
func status(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, portfolio.ErrNoHoldings):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalid),
		errors.Is(err, portfolio.ErrInvalidTransaction),
		errors.Is(err, portfolio.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUpstream),
		errors.Is(err, portfolio.ErrMissingPrices),
		errors.Is(err, portfolio.ErrMissingRate):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, errorJSON{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
