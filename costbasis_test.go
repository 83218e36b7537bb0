package portfolio

import (
	"errors"
	"math"
	"testing"
)

func TestCostBasisAt(t *testing.T) {
	buyOnly := Holding{Symbol: "A", Currency: "USD", Transactions: []Transaction{
		tx(t, Buy, 1, 10, 5),
	}}
	partialSell := Holding{Symbol: "A", Currency: "USD", Transactions: []Transaction{
		tx(t, Sell, 2, 5, 8), // out of order on purpose
		tx(t, Buy, 1, 10, 5),
	}}
	averaged := Holding{Symbol: "A", Currency: "USD", Transactions: []Transaction{
		tx(t, Buy, 1, 10, 5),
		tx(t, Buy, 2, 10, 10),
		tx(t, Sell, 3, 4, 100),
	}}

	testCases := []struct {
		name string
		h    Holding
		at   int64
		want float64
	}{
		{"before first buy", buyOnly, 0, 0},
		{"buy only", buyOnly, 1, 50},
		{"buy only later", buyOnly, 10, 50},
		{"before sell", partialSell, 1, 50},
		{"after partial sell", partialSell, 2, 25},
		{"two buys", averaged, 2, 150},
		// 150 for 20 shares, selling 4 removes 30 whatever the sale price.
		{"sell after two buys", averaged, 3, 120},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.h.CostBasisAt(tc.at); !got.Equal(D(tc.want)) {
				t.Errorf("CostBasisAt(%d) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestReplayState(t *testing.T) {
	h := Holding{Symbol: "A", Currency: "USD", Transactions: []Transaction{
		tx(t, Buy, 1, 10, 5),
		tx(t, Sell, 2, 5, 8),
	}}
	s, err := h.Replay(2)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if !s.TotalQuantity.Equal(D(5)) {
		t.Errorf("TotalQuantity = %v, want 5", s.TotalQuantity)
	}
	if !s.Average().Equal(D(5)) {
		t.Errorf("Average() = %v, want 5", s.Average())
	}
}

// unguardedSell is the plain weighted average sell rule, without any check on
// the quantity held.
func unguardedSell(costBasis, held, sold float64) (float64, float64) {
	removed := costBasis * sold / held
	return costBasis - removed, held - sold
}

func TestReplayOversold(t *testing.T) {
	// Without a guard, selling from an empty position divides 0 by 0.
	cb, _ := unguardedSell(0, 0, 5)
	if !math.IsNaN(cb) {
		t.Fatalf("unguarded sell from nothing = %v, want NaN", cb)
	}

	testCases := []struct {
		name    string
		txs     []Transaction
		wantCB  float64
		wantQty float64
	}{
		{
			name:    "sell with nothing held",
			txs:     []Transaction{tx(t, Sell, 1, 5, 8)},
			wantCB:  0,
			wantQty: 0,
		},
		{
			name:    "sell more than held",
			txs:     []Transaction{tx(t, Buy, 1, 10, 5), tx(t, Sell, 2, 15, 8)},
			wantCB:  0,
			wantQty: 0,
		},
		{
			name:    "buy again after oversell",
			txs:     []Transaction{tx(t, Buy, 1, 10, 5), tx(t, Sell, 2, 15, 8), tx(t, Buy, 3, 2, 7)},
			wantCB:  14,
			wantQty: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := Holding{Symbol: "A", Currency: "USD", Transactions: tc.txs}
			s, err := h.Replay(10)
			if !errors.Is(err, ErrOversold) {
				t.Errorf("Replay() error = %v, want ErrOversold", err)
			}
			if !s.TotalCostBasis.Equal(D(tc.wantCB)) {
				t.Errorf("TotalCostBasis = %v, want %v", s.TotalCostBasis, tc.wantCB)
			}
			if !s.TotalQuantity.Equal(D(tc.wantQty)) {
				t.Errorf("TotalQuantity = %v, want %v", s.TotalQuantity, tc.wantQty)
			}
			if s.TotalCostBasis.IsNegative() {
				t.Errorf("TotalCostBasis = %v is negative", s.TotalCostBasis)
			}
		})
	}
}
