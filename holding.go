package portfolio

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/etnz/portfolio-chart/series"
)

// Holding is the ledger of a single symbol. Prices, quantities and cost basis
// are all expressed in Currency.
type Holding struct {
	Symbol       string        `json:"symbol"`
	Currency     string        `json:"currency"`
	Transactions []Transaction `json:"transactions"`
}

// Validate checks the symbol, the currency and every transaction.
func (h Holding) Validate() error {
	if h.Symbol == "" {
		return errors.New("symbol is missing")
	}
	if err := ValidateCurrency(h.Currency); err != nil {
		return fmt.Errorf("holding %s: %w", h.Symbol, err)
	}
	for _, tx := range h.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("holding %s, transaction %s: %w", h.Symbol, tx.ID, err)
		}
	}
	return nil
}

// Append adds tx to the ledger.
func (h *Holding) Append(tx Transaction) { h.Transactions = append(h.Transactions, tx) }

// Remove deletes the transaction with the given id and reports whether it was found.
func (h *Holding) Remove(id string) bool {
	i := slices.IndexFunc(h.Transactions, func(tx Transaction) bool { return tx.ID == id })
	if i < 0 {
		return false
	}
	h.Transactions = slices.Delete(h.Transactions, i, i+1)
	return true
}

// Position returns the quantity held at t: buys minus sells with a time
// lower or equal to t.
func (h Holding) Position(t int64) decimal.Decimal {
	var q decimal.Decimal
	for _, tx := range h.Transactions {
		if tx.Time <= t {
			q = q.Add(tx.signed())
		}
	}
	return q
}

// until returns the transactions with a time lower or equal to t, in
// chronological order. Transactions at the same time keep their ledger order.
func (h Holding) until(t int64) []Transaction {
	txs := make([]Transaction, 0, len(h.Transactions))
	for _, tx := range h.Transactions {
		if tx.Time <= t {
			txs = append(txs, tx)
		}
	}
	slices.SortStableFunc(txs, func(a, b Transaction) int { return cmp.Compare(a.Time, b.Time) })
	return txs
}

// snapped returns a copy of h where every transaction time is truncated to g,
// so that a transaction made during a bar counts for that bar.
func (h Holding) snapped(g series.Granularity) Holding {
	c := h
	c.Transactions = make([]Transaction, len(h.Transactions))
	for i, tx := range h.Transactions {
		tx.Time = g.Truncate(tx.Time)
		c.Transactions[i] = tx
	}
	return c
}

// WithTransactions returns the holdings that have at least one transaction.
func WithTransactions(holdings []Holding) []Holding {
	var active []Holding
	for _, h := range holdings {
		if len(h.Transactions) > 0 {
			active = append(active, h)
		}
	}
	return active
}
