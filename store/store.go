// Package store persists portfolios in a key-value table.
package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	portfolio "github.com/etnz/portfolio-chart"
)

// ErrNotFound is returned when a key, a portfolio or a transaction does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid is returned when a write would store an invalid portfolio.
var ErrInvalid = errors.New("invalid portfolio")

const portfolioPrefix = "portfolio/"

// KV is the key-value table a Store is built on.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns the values of the keys starting with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([][]byte, error)
	Close() error
}

// Portfolio is a named set of holdings.
type Portfolio struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Holdings []portfolio.Holding `json:"holdings"`
}

// Holding returns the holding of symbol, or nil.
func (p *Portfolio) Holding(symbol string) *portfolio.Holding {
	for i := range p.Holdings {
		if p.Holdings[i].Symbol == symbol {
			return &p.Holdings[i]
		}
	}
	return nil
}

// Validate checks every holding and that symbols are unique.
func (p *Portfolio) Validate() error {
	seen := make(map[string]bool, len(p.Holdings))
	for _, h := range p.Holdings {
		if seen[h.Symbol] {
			return fmt.Errorf("portfolio %s: duplicated holding %s", p.ID, h.Symbol)
		}
		seen[h.Symbol] = true
		if err := h.Validate(); err != nil {
			return fmt.Errorf("portfolio %s: %w", p.ID, err)
		}
	}
	return nil
}

// Store reads and writes portfolios. Writes are serialized.
type Store struct {
	kv     KV
	logger *zap.Logger
	mu     sync.Mutex
}

// New returns a store over kv.
func New(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// Open opens the store backend named driver: "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	var (
		kv  KV
		err error
	)
	switch driver {
	case "sqlite":
		kv, err = OpenSQLite(ctx, dsn)
	case "postgres":
		kv, err = OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return New(kv, logger), nil
}

// Close closes the underlying table.
func (s *Store) Close() error { return s.kv.Close() }

func key(id string) string { return portfolioPrefix + id }

// Portfolio returns the portfolio id.
func (s *Store) Portfolio(ctx context.Context, id string) (*Portfolio, error) {
	data, err := s.kv.Get(ctx, key(id))
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", id, err)
	}
	p := new(Portfolio)
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decoding portfolio %s: %w", id, err)
	}
	return p, nil
}

// Portfolios returns every portfolio, ordered by ID.
func (s *Store) Portfolios(ctx context.Context) ([]Portfolio, error) {
	values, err := s.kv.List(ctx, portfolioPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing portfolios: %w", err)
	}
	out := make([]Portfolio, 0, len(values))
	for _, data := range values {
		var p Portfolio
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding portfolio: %w", err)
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Portfolio) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Holdings returns the holdings of every portfolio.
func (s *Store) Holdings(ctx context.Context) ([]portfolio.Holding, error) {
	all, err := s.Portfolios(ctx)
	if err != nil {
		return nil, err
	}
	var holdings []portfolio.Holding
	for _, p := range all {
		holdings = append(holdings, p.Holdings...)
	}
	return holdings, nil
}

// PutPortfolio validates and writes p. An empty ID is assigned a new one.
func (s *Store) PutPortfolio(ctx context.Context, p *Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, p)
}

func (s *Store) put(ctx context.Context, p *Portfolio) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if strings.Contains(p.ID, "/") {
		return fmt.Errorf("%w: id %q contains a slash", ErrInvalid, p.ID)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, key(p.ID), data); err != nil {
		return fmt.Errorf("writing portfolio %s: %w", p.ID, err)
	}
	s.logger.Debug("portfolio written", zap.String("id", p.ID), zap.Int("holdings", len(p.Holdings)))
	return nil
}

// DeletePortfolio deletes the portfolio id.
func (s *Store) DeletePortfolio(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("portfolio %s: %w", id, err)
	}
	return nil
}

// AddTransaction records tx in the holding symbol of portfolio id, creating
// the portfolio and the holding if needed. An existing holding must have the
// same currency.
func (s *Store) AddTransaction(ctx context.Context, id, symbol, currency string, tx portfolio.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Portfolio(ctx, id)
	if errors.Is(err, ErrNotFound) {
		p, err = &Portfolio{ID: id, Name: id}, nil
	}
	if err != nil {
		return err
	}

	h := p.Holding(symbol)
	if h == nil {
		p.Holdings = append(p.Holdings, portfolio.Holding{Symbol: symbol, Currency: currency})
		h = &p.Holdings[len(p.Holdings)-1]
	}
	if h.Currency != currency {
		return fmt.Errorf("%w: holding %s is in %s, not %s", ErrInvalid, symbol, h.Currency, currency)
	}
	h.Append(tx)
	return s.put(ctx, p)
}

// DeleteTransaction removes the transaction txID from portfolio id.
// A holding left without transactions is removed too.
func (s *Store) DeleteTransaction(ctx context.Context, id, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Portfolio(ctx, id)
	if err != nil {
		return err
	}
	for i := range p.Holdings {
		if !p.Holdings[i].Remove(txID) {
			continue
		}
		if len(p.Holdings[i].Transactions) == 0 {
			p.Holdings = slices.Delete(p.Holdings, i, i+1)
		}
		return s.put(ctx, p)
	}
	return fmt.Errorf("transaction %s: %w", txID, ErrNotFound)
}
