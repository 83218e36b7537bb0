package portfolio

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/etnz/portfolio-chart/series"
)

// Pair returns the symbol of the exchange rate converting from into to, as
// in "EURUSD": one unit of from is worth rate units of to.
func Pair(from, to string) string { return from + to }

// CurrencyNormalizer converts series from a holding's native currency to the
// Display currency.
type CurrencyNormalizer struct {
	Display string
	// Rates holds OHLC exchange rate series by Pair symbol.
	Rates map[string]*series.Series
}

// rates returns the exchange rate series converting currency into the display
// currency. If only the inverse pair is known, its rates are inverted.
func (n CurrencyNormalizer) rates(currency string) (*series.Series, error) {
	if fx, ok := n.Rates[Pair(currency, n.Display)]; ok {
		return fx, nil
	}
	inv, ok := n.Rates[Pair(n.Display, currency)]
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", ErrMissingRate, currency, n.Display)
	}
	return inv.Map(invert), nil
}

// invert returns 1/v for every value; zero rates become missing. The
// inverse of the high is the new low, so high and low are swapped.
func invert(p series.Point) series.Point {
	q := p.At(p.Time)
	for i, v := range q.Values {
		if !v.Valid || v.Decimal.IsZero() {
			q.Values[i] = decimal.NullDecimal{}
			continue
		}
		q.Values[i] = decimal.NewNullDecimal(decimal.NewFromInt(1).Div(v.Decimal))
	}
	if hi, lo := q.Fields.Index("high"), q.Fields.Index("low"); hi >= 0 && lo >= 0 {
		q.Values[hi], q.Values[lo] = q.Values[lo], q.Values[hi]
	}
	return q
}

// Normalize converts s, expressed in currency, into the display currency.
//
// When currency is the display currency s is returned as is. Otherwise every
// point of s is multiplied by the rate at the same timestamp; timestamps
// without a rate are dropped.
func (n CurrencyNormalizer) Normalize(currency string, s *series.Series) (*series.Series, error) {
	if currency == n.Display {
		return s, nil
	}
	fx, err := n.rates(currency)
	if err != nil {
		return nil, err
	}
	return series.IntersectSeries([]*series.Series{s, fx}, series.Multiply), nil
}

// LatestRate returns the most recent close rate converting currency into the
// display currency. It is one for the display currency itself.
func (n CurrencyNormalizer) LatestRate(currency string) (decimal.Decimal, error) {
	if currency == n.Display {
		return decimal.NewFromInt(1), nil
	}
	fx, err := n.rates(currency)
	if err != nil {
		return decimal.Zero, err
	}
	last, ok := fx.Latest()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s to %s rate available", ErrMissingRate, currency, n.Display)
	}
	rate, ok := last.Get("close")
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s to %s close rate on %d", ErrMissingRate, currency, n.Display, last.Time)
	}
	return rate, nil
}

// ConvertCostBasis converts a cost basis series expressed in currency into
// the display currency.
//
// Unlike Normalize, every point uses the latest known rate and not the rate
// at its own time: the cost basis is stated as of now. This is an
// approximation kept on purpose; the value series remains time aligned.
func (n CurrencyNormalizer) ConvertCostBasis(currency string, s *series.Series) (*series.Series, error) {
	rate, err := n.LatestRate(currency)
	if err != nil {
		return nil, err
	}
	if currency == n.Display {
		return s, nil
	}
	return s.Map(func(p series.Point) series.Point { return p.Scale(rate) }), nil
}

// RequiredCurrencies returns, sorted, the distinct currencies of holdings
// with transactions that differ from display: the exchange rates to fetch.
func RequiredCurrencies(holdings []Holding, display string) []string {
	var out []string
	for _, h := range WithTransactions(holdings) {
		if h.Currency != display && !slices.Contains(out, h.Currency) {
			out = append(out, h.Currency)
		}
	}
	slices.Sort(out)
	return out
}
