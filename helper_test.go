package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/etnz/portfolio-chart/series"
)

// D is a helper for test to create decimals from const.
func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// closes builds a daily like OHLC series where every field is the close.
func closes(points ...[2]float64) *series.Series {
	data := make([]series.Point, len(points))
	for i, p := range points {
		c := D(p[1])
		data[i] = series.NewPoint(int64(p[0]), series.OHLC, c, c, c, c)
	}
	return series.New(data, series.OHLC)
}

func tx(t *testing.T, typ TxType, at int64, qty, price float64) Transaction {
	t.Helper()
	tx, err := NewTransaction(typ, at, D(qty), D(price))
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	return tx
}

func closeAt(s *series.Series, t int64) (decimal.Decimal, bool) {
	p, ok := s.Get(t)
	if !ok {
		return decimal.Zero, false
	}
	return p.Get("close")
}

func valueAt(s *series.Series, t int64) (decimal.Decimal, bool) {
	p, ok := s.Get(t)
	if !ok {
		return decimal.Zero, false
	}
	return p.Get("value")
}
