package server

import (
	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/series"
)

// Chart values are sent as JSON numbers for charting libraries; a missing
// value is null.

type barJSON struct {
	Time  int64    `json:"time"`
	Open  *float64 `json:"open"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
	Close *float64 `json:"close"`
}

type valueJSON struct {
	Time  int64    `json:"time"`
	Value *float64 `json:"value"`
}

type summaryJSON struct {
	Time      int64    `json:"time"`
	Close     *float64 `json:"close"`
	CostBasis float64  `json:"costBasis"`
	Change    float64  `json:"change"`
}

type chartJSON struct {
	Currency    string               `json:"currency"`
	Granularity string               `json:"granularity"`
	Value       []barJSON            `json:"value"`
	CostBasis   []valueJSON          `json:"costBasis"`
	Thumbnails  map[string][]barJSON `json:"thumbnails"`
	Summary     summaryJSON          `json:"summary"`
}

func newChartJSON(c *portfolio.Chart) chartJSON {
	out := chartJSON{
		Currency:    c.Currency,
		Granularity: c.Value.Granularity().String(),
		Value:       bars(c.Value),
		CostBasis:   []valueJSON{},
		Thumbnails:  make(map[string][]barJSON, len(c.Thumbnails)),
		Summary: summaryJSON{
			Time:      c.Summary.Time,
			Close:     number(c.Summary.Last, "close"),
			CostBasis: c.Summary.CostBasis.InexactFloat64(),
			Change:    float64(c.Summary.Change),
		},
	}
	for t, p := range c.CostBasis.Points() {
		out.CostBasis = append(out.CostBasis, valueJSON{Time: t, Value: number(p, "value")})
	}
	for symbol, s := range c.Thumbnails {
		out.Thumbnails[symbol] = bars(s)
	}
	return out
}

func bars(s *series.Series) []barJSON {
	out := make([]barJSON, 0, s.Len())
	for t, p := range s.Points() {
		out = append(out, barJSON{
			Time:  t,
			Open:  number(p, "open"),
			High:  number(p, "high"),
			Low:   number(p, "low"),
			Close: number(p, "close"),
		})
	}
	return out
}

func number(p series.Point, key string) *float64 {
	v, ok := p.Get(key)
	if !ok {
		return nil
	}
	f := v.InexactFloat64()
	return &f
}
