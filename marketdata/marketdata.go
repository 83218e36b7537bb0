// Package marketdata fetches the daily bars the aggregation needs.
//
// Providers return raw bars for one symbol. They can be routed by exchange
// suffix (Mux), coalesced (Batcher) and fanned out over a whole portfolio
// (Fetcher), which turns them into series ready for portfolio.Aggregator.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/portfolio-chart/series"
)

// Bar is one OHLC observation as returned by a provider. Null values are
// missing and will be gap filled.
type Bar struct {
	Time  int64               `json:"time"`
	Open  decimal.NullDecimal `json:"open"`
	High  decimal.NullDecimal `json:"high"`
	Low   decimal.NullDecimal `json:"low"`
	Close decimal.NullDecimal `json:"close"`
}

// NewBar returns a bar where every value is set.
func NewBar(t int64, open, high, low, close decimal.Decimal) Bar {
	return Bar{
		Time:  t,
		Open:  decimal.NewNullDecimal(open),
		High:  decimal.NewNullDecimal(high),
		Low:   decimal.NewNullDecimal(low),
		Close: decimal.NewNullDecimal(close),
	}
}

// Point returns b as an OHLC point.
func (b Bar) Point() series.Point {
	return series.Point{
		Time:   b.Time,
		Fields: series.OHLC,
		Values: []decimal.NullDecimal{b.Open, b.High, b.Low, b.Close},
	}
}

// ToSeries builds an OHLC series from bars.
func ToSeries(bars []Bar, opts ...series.Option) *series.Series {
	points := make([]series.Point, len(bars))
	for i, b := range bars {
		points[i] = b.Point()
	}
	return series.New(points, series.OHLC, opts...)
}

// Request asks for the daily bars of Symbol between From and To, both Unix
// seconds and included. Requests are comparable.
type Request struct {
	Symbol string
	From   int64
	To     int64
}

// NewRequest returns a request covering the days from and to.
func NewRequest(symbol string, from, to time.Time) Request {
	return Request{Symbol: symbol, From: from.Unix(), To: to.Unix()}
}

func (r Request) String() string {
	return fmt.Sprintf("%s [%s, %s]", r.Symbol, r.FromTime().Format(time.DateOnly), r.ToTime().Format(time.DateOnly))
}

// FromTime returns From in UTC.
func (r Request) FromTime() time.Time { return time.Unix(r.From, 0).UTC() }

// ToTime returns To in UTC.
func (r Request) ToTime() time.Time { return time.Unix(r.To, 0).UTC() }

// Provider returns daily bars.
type Provider interface {
	Bars(ctx context.Context, r Request) ([]Bar, error)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(ctx context.Context, r Request) ([]Bar, error)

func (f ProviderFunc) Bars(ctx context.Context, r Request) ([]Bar, error) { return f(ctx, r) }

func decimalOf(v decimal.Decimal) decimal.NullDecimal { return decimal.NewNullDecimal(v) }
