package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CostBasisState is the running total of a weighted average cost basis replay.
type CostBasisState struct {
	TotalCostBasis decimal.Decimal
	TotalQuantity  decimal.Decimal
}

// Average returns the cost of one unit, or zero when nothing is held.
func (s CostBasisState) Average() decimal.Decimal {
	if s.TotalQuantity.IsZero() {
		return decimal.Zero
	}
	return s.TotalCostBasis.Div(s.TotalQuantity)
}

// Replay computes the weighted average cost basis of h at t, replaying every
// transaction with a time lower or equal to t in chronological order.
//
// A buy adds price*quantity to the cost basis. A sell removes the share of
// the cost basis proportional to the share of the position sold; its price
// does not matter.
//
// A sell of more than what is held only removes what is held: the cost basis
// and the quantity drop to zero, and ErrOversold is returned along with the
// state. The state is usable in both cases.
func (h Holding) Replay(t int64) (CostBasisState, error) {
	var s CostBasisState
	var err error
	for _, tx := range h.until(t) {
		switch tx.Type {
		case Buy:
			s.TotalCostBasis = s.TotalCostBasis.Add(tx.Amount())
			s.TotalQuantity = s.TotalQuantity.Add(tx.Quantity)
		case Sell:
			sold := tx.Quantity
			if sold.GreaterThan(s.TotalQuantity) {
				if err == nil {
					err = fmt.Errorf("%w: %s sells %s on %d while holding %s", ErrOversold, h.Symbol, tx.Quantity, tx.Time, s.TotalQuantity)
				}
				sold = s.TotalQuantity
			}
			if !s.TotalQuantity.IsZero() {
				removed := s.TotalCostBasis.Mul(sold).Div(s.TotalQuantity)
				s.TotalCostBasis = s.TotalCostBasis.Sub(removed)
			}
			s.TotalQuantity = s.TotalQuantity.Sub(sold)
		}
	}
	return s, err
}

// CostBasisAt returns the total cost basis of h at t, in h's currency.
// Oversold positions are clamped as in Replay.
func (h Holding) CostBasisAt(t int64) decimal.Decimal {
	s, _ := h.Replay(t)
	return s.TotalCostBasis
}
