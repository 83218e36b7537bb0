package renderer

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/series"
)

// Chart is the markdown view of a portfolio chart.
type Chart struct {
	Title     string
	Currency  string
	Date      string
	Value     decimal.Decimal
	CostBasis decimal.Decimal
	Gain      decimal.Decimal
	Change    portfolio.Percent
	Holdings  []ChartHolding
	Bars      []ChartBar // most recent first
}

// ChartHolding is the thumbnail of a single holding.
type ChartHolding struct {
	Symbol string
	Value  decimal.Decimal
	Change portfolio.Percent // over the thumbnail
	Trend  string
}

// ChartBar is a row of the history table.
type ChartBar struct {
	Date                   string
	Open, High, Low, Close decimal.Decimal
	CostBasis              decimal.Decimal
}

// NewChart builds the view of c, with at most rows history bars.
func NewChart(c *portfolio.Chart, title string, rows int) *Chart {
	layout := dateLayout(c.Value.Granularity())
	v := &Chart{
		Title:     title,
		Currency:  c.Currency,
		CostBasis: c.Summary.CostBasis,
		Change:    c.Summary.Change,
	}
	if c.Value.Len() > 0 {
		v.Date = format(c.Summary.Time, layout)
		v.Value, _ = c.Summary.Last.Get("close")
		v.Gain = v.Value.Sub(v.CostBasis)
	}

	for symbol, thumb := range c.Thumbnails {
		closes := closesOf(thumb)
		h := ChartHolding{Symbol: symbol, Trend: sparkline(closes)}
		if len(closes) > 0 {
			h.Value = closes[len(closes)-1]
			h.Change = portfolio.Change(h.Value, closes[0])
		}
		v.Holdings = append(v.Holdings, h)
	}
	slices.SortFunc(v.Holdings, func(a, b ChartHolding) int { return cmp.Compare(a.Symbol, b.Symbol) })

	for t, p := range c.Value.Last(rows).Points() {
		b := ChartBar{Date: format(t, layout)}
		b.Open, _ = p.Get("open")
		b.High, _ = p.Get("high")
		b.Low, _ = p.Get("low")
		b.Close, _ = p.Get("close")
		if cb, ok := c.CostBasis.Get(t); ok {
			b.CostBasis, _ = cb.Get("value")
		}
		v.Bars = append(v.Bars, b)
	}
	slices.Reverse(v.Bars)
	return v
}

// Holdings is the markdown view of the positions of a portfolio.
type Holdings struct {
	Name string
	Rows []HoldingRow
}

// HoldingRow is the position of a single holding.
type HoldingRow struct {
	Symbol    string
	Currency  string
	Quantity  decimal.Decimal
	CostBasis decimal.Decimal
	Average   decimal.Decimal
}

// NewHoldings builds the positions of holdings at time at, sorted by symbol.
// Holdings with nothing left are omitted.
func NewHoldings(name string, holdings []portfolio.Holding, at int64) *Holdings {
	v := &Holdings{Name: name}
	for _, h := range holdings {
		// an oversold replay is still clamped: show what is left.
		s, _ := h.Replay(at)
		if s.TotalQuantity.IsZero() {
			continue
		}
		v.Rows = append(v.Rows, HoldingRow{
			Symbol:    h.Symbol,
			Currency:  h.Currency,
			Quantity:  s.TotalQuantity,
			CostBasis: s.TotalCostBasis,
			Average:   s.Average(),
		})
	}
	slices.SortFunc(v.Rows, func(a, b HoldingRow) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return v
}

// Transactions is the markdown view of every transaction of a portfolio.
type Transactions struct {
	Name string
	Rows []TransactionRow
}

// TransactionRow is a single transaction.
type TransactionRow struct {
	ID       string
	Date     string
	Type     portfolio.TxType
	Symbol   string
	Currency string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Amount   decimal.Decimal
	time     int64
}

// NewTransactions lists the transactions of holdings in chronological order.
func NewTransactions(name string, holdings []portfolio.Holding) *Transactions {
	v := &Transactions{Name: name}
	for _, h := range holdings {
		for _, tx := range h.Transactions {
			v.Rows = append(v.Rows, TransactionRow{
				ID:       tx.ID,
				Date:     format(tx.Time, time.DateTime),
				Type:     tx.Type,
				Symbol:   h.Symbol,
				Currency: h.Currency,
				Quantity: tx.Quantity,
				Price:    tx.Price,
				Amount:   tx.Amount(),
				time:     tx.Time,
			})
		}
	}
	slices.SortStableFunc(v.Rows, func(a, b TransactionRow) int {
		return cmp.Or(cmp.Compare(a.time, b.time), cmp.Compare(a.Symbol, b.Symbol))
	})
	return v
}

func dateLayout(g series.Granularity) string {
	if g < series.Day {
		return "2006-01-02 15:04"
	}
	return time.DateOnly
}

func format(t int64, layout string) string { return time.Unix(t, 0).UTC().Format(layout) }

func closesOf(s *series.Series) []decimal.Decimal {
	var out []decimal.Decimal
	for _, p := range s.Points() {
		if c, ok := p.Get("close"); ok {
			out = append(out, c)
		}
	}
	return out
}

var ticks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws values scaled between their min and max.
func sparkline(values []decimal.Decimal) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := decimal.Min(values[0], values...), decimal.Max(values[0], values...)
	span := hi.Sub(lo)
	top := decimal.NewFromInt(int64(len(ticks) - 1))

	var b strings.Builder
	for _, v := range values {
		i := len(ticks) / 2
		if !span.IsZero() {
			i = int(v.Sub(lo).Mul(top).Div(span).IntPart())
		}
		b.WriteRune(ticks[i])
	}
	return b.String()
}
