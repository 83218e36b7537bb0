package portfolio

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/etnz/portfolio-chart/series"
)

// twoHoldings is a USD holding and an EUR holding, displayed in USD.
func twoHoldings(t *testing.T) ([]Holding, map[string]*series.Series, CurrencyNormalizer) {
	holdings := []Holding{
		{Symbol: "A", Currency: "USD", Transactions: []Transaction{tx(t, Buy, 1, 2, 10)}},
		{Symbol: "B", Currency: "EUR", Transactions: []Transaction{tx(t, Buy, 1, 1, 100)}},
	}
	prices := map[string]*series.Series{
		"A": closes([2]float64{1, 10}, [2]float64{2, 12}),
		"B": closes([2]float64{1, 100}, [2]float64{2, 110}),
	}
	fx := CurrencyNormalizer{Display: "USD", Rates: map[string]*series.Series{
		"EURUSD": closes([2]float64{1, 1.1}, [2]float64{2, 1.05}),
	}}
	return holdings, prices, fx
}

func TestAggregate(t *testing.T) {
	holdings, prices, fx := twoHoldings(t)

	chart, err := NewAggregator().Aggregate(holdings, prices, fx)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	for at, want := range map[int64]float64{1: 20 + 110, 2: 24 + 115.5} {
		if c, _ := closeAt(chart.Value, at); !c.Equal(D(want)) {
			t.Errorf("value at %d = %v, want %v", at, c, want)
		}
		// A cost 20 USD, B cost 100 EUR at the latest rate.
		if v, _ := valueAt(chart.CostBasis, at); !v.Equal(D(125)) {
			t.Errorf("cost basis at %d = %v, want 125", at, v)
		}
	}
	if !slices.Equal(chart.Value.TimeAxis(), chart.CostBasis.TimeAxis()) {
		t.Errorf("time axes differ: %v and %v", chart.Value.TimeAxis(), chart.CostBasis.TimeAxis())
	}

	if chart.Summary.Time != 2 {
		t.Errorf("Summary.Time = %d, want 2", chart.Summary.Time)
	}
	if !chart.Summary.Change.Equal(11.6) {
		t.Errorf("Summary.Change = %v, want 11.6%%", chart.Summary.Change)
	}
	if got := chart.Thumbnails["B"].Len(); got != 2 {
		t.Errorf("thumbnail B has %d points, want 2", got)
	}
}

func TestAggregateTruncatesToCommonAxis(t *testing.T) {
	holdings, prices, fx := twoHoldings(t)
	prices["A"] = closes([2]float64{0, 9}, [2]float64{1, 10}, [2]float64{2, 12}, [2]float64{3, 13})
	prices["B"] = closes([2]float64{1, 100}, [2]float64{2, 110}, [2]float64{3, 120})

	chart, err := NewAggregator(WithThumbnailSize(3)).Aggregate(holdings, prices, fx)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	// B starts later, and the EUR rate stops at 2.
	if got, want := chart.Value.TimeAxis(), []int64{1, 2}; !slices.Equal(got, want) {
		t.Errorf("TimeAxis() = %v, want %v", got, want)
	}
	if got := chart.Thumbnails["A"].TimeAxis(); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("thumbnail A = %v, want the last 3 points", got)
	}
}

func TestAggregatePositionOverTime(t *testing.T) {
	day := func(d int, h int) int64 { return time.Date(2024, time.March, d, h, 0, 0, 0, time.UTC).Unix() }
	h := Holding{Symbol: "A", Currency: "USD", Transactions: []Transaction{
		tx(t, Buy, day(4, 15), 10, 5), // during the day: counts for the 4th
		tx(t, Sell, day(6, 10), 5, 8),
	}}
	prices := closes(
		[2]float64{float64(day(4, 0)), 5},
		[2]float64{float64(day(5, 0)), 6},
		[2]float64{float64(day(6, 0)), 7},
	)

	chart, err := NewAggregator().Aggregate([]Holding{h}, map[string]*series.Series{"A": prices}, CurrencyNormalizer{Display: "USD"})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	testCases := []struct {
		at        int64
		value     float64
		costBasis float64
	}{
		{day(4, 0), 50, 50},
		{day(5, 0), 60, 50},
		{day(6, 0), 35, 25},
	}
	for _, tc := range testCases {
		if c, _ := closeAt(chart.Value, tc.at); !c.Equal(D(tc.value)) {
			t.Errorf("value at %v = %v, want %v", time.Unix(tc.at, 0).UTC(), c, tc.value)
		}
		if v, _ := valueAt(chart.CostBasis, tc.at); !v.Equal(D(tc.costBasis)) {
			t.Errorf("cost basis at %v = %v, want %v", time.Unix(tc.at, 0).UTC(), v, tc.costBasis)
		}
	}
}

func TestAggregateNeverIntersectsNothing(t *testing.T) {
	holdings, prices, fx := twoHoldings(t)
	empty := []Holding{{Symbol: "A", Currency: "USD"}}

	for name, hs := range map[string][]Holding{"no holding": nil, "no transaction": empty, "two holdings": holdings} {
		a := NewAggregator()
		a.intersect = func(list []*series.Series, op series.Operation) *series.Series {
			if len(list) == 0 {
				t.Fatalf("%s: IntersectSeries called with an empty list", name)
			}
			return series.IntersectSeries(list, op)
		}
		_, err := a.Aggregate(hs, prices, fx)
		if len(WithTransactions(hs)) == 0 && !errors.Is(err, ErrNoHoldings) {
			t.Errorf("%s: Aggregate() error = %v, want ErrNoHoldings", name, err)
		}
	}
}

func TestAggregateErrors(t *testing.T) {
	holdings, prices, fx := twoHoldings(t)

	delete(prices, "B")
	if _, err := NewAggregator().Aggregate(holdings, prices, fx); !errors.Is(err, ErrMissingPrices) {
		t.Errorf("Aggregate() without B prices error = %v, want ErrMissingPrices", err)
	}

	holdings, prices, _ = twoHoldings(t)
	if _, err := NewAggregator().Aggregate(holdings, prices, CurrencyNormalizer{Display: "USD"}); !errors.Is(err, ErrMissingRate) {
		t.Errorf("Aggregate() without EURUSD error = %v, want ErrMissingRate", err)
	}
}

func TestAggregateDisjointHoldings(t *testing.T) {
	holdings, prices, fx := twoHoldings(t)
	prices["A"] = closes([2]float64{10, 1}, [2]float64{11, 1})

	var c series.Counter
	chart, err := NewAggregator(WithObserver(&c)).Aggregate(holdings, prices, fx)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if chart.Value.Len() != 0 || chart.CostBasis.Len() != 0 {
		t.Errorf("chart has %d values and %d cost basis points, want none", chart.Value.Len(), chart.CostBasis.Len())
	}
	if c.Empties() != 1 {
		t.Errorf("Empties() = %d, want 1", c.Empties())
	}
	if chart.Summary.Time != 0 {
		t.Errorf("Summary.Time = %d, want 0", chart.Summary.Time)
	}
}

func TestAggregateOversold(t *testing.T) {
	// the value follows the raw position, the cost basis floors at zero.
	h := Holding{Symbol: "A", Currency: "USD", Transactions: []Transaction{
		tx(t, Buy, 1, 10, 10),
		tx(t, Sell, 2, 15, 12),
	}}
	prices := map[string]*series.Series{"A": closes([2]float64{1, 10}, [2]float64{2, 12})}

	chart, err := NewAggregator().Aggregate([]Holding{h}, prices, CurrencyNormalizer{Display: "USD"})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	testCases := []struct {
		at        int64
		value     float64
		costBasis float64
	}{
		{1, 100, 100},
		{2, -60, 0},
	}
	for _, tc := range testCases {
		if c, _ := closeAt(chart.Value, tc.at); !c.Equal(D(tc.value)) {
			t.Errorf("value at %d = %v, want %v", tc.at, c, tc.value)
		}
		if v, _ := valueAt(chart.CostBasis, tc.at); !v.Equal(D(tc.costBasis)) {
			t.Errorf("cost basis at %d = %v, want %v", tc.at, v, tc.costBasis)
		}
	}
	if got := h.Position(2); !got.Equal(D(-5)) {
		t.Errorf("Position(2) = %v, want -5", got)
	}
}
