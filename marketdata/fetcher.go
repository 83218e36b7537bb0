package marketdata

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/series"
)

// Market holds fetched series: prices by symbol, in the symbol's currency,
// and exchange rates by portfolio.Pair.
type Market struct {
	Prices map[string]*series.Series
	FX     map[string]*series.Series
}

// Normalizer returns a currency normalizer to display using m's rates.
func (m *Market) Normalizer(display string) portfolio.CurrencyNormalizer {
	return portfolio.CurrencyNormalizer{Display: display, Rates: m.FX}
}

// Fetcher fetches every series a portfolio needs, concurrently.
type Fetcher struct {
	provider Provider
	quotes   map[string]Quoter
	observer series.Observer
	logger   *zap.Logger
	now      func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithQuote sets the intraday quote of symbol: the bar of the current day is
// completed with it.
func WithQuote(symbol string, q Quoter) FetcherOption {
	return func(f *Fetcher) { f.quotes[symbol] = q }
}

// WithSeriesObserver sets the observer of the fetched series.
func WithSeriesObserver(obs series.Observer) FetcherOption {
	return func(f *Fetcher) { f.observer = obs }
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher returns a fetcher using p, typically a Batcher.
func NewFetcher(p Provider, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		provider: p,
		quotes:   make(map[string]Quoter),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch fetches the prices of every holding with transactions, and the rates
// converting their currencies to display, between from and to.
// It fails if any fetch fails.
func (f *Fetcher) Fetch(ctx context.Context, holdings []portfolio.Holding, display string, from, to time.Time) (*Market, error) {
	m := &Market{
		Prices: make(map[string]*series.Series),
		FX:     make(map[string]*series.Series),
	}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	fetch := func(symbol string, into map[string]*series.Series) {
		g.Go(func() error {
			bars, err := f.provider.Bars(ctx, NewRequest(symbol, from, to))
			if err != nil {
				return fmt.Errorf("fetching %s: %w", symbol, err)
			}
			if q, ok := f.quotes[symbol]; ok {
				bars = f.withQuote(ctx, symbol, q, bars)
			}
			var opts []series.Option
			if f.observer != nil {
				opts = append(opts, series.WithObserver(f.observer))
			}
			s := ToSeries(bars, opts...)

			mu.Lock()
			defer mu.Unlock()
			into[symbol] = s
			return nil
		})
	}

	seen := make(map[string]bool)
	for _, h := range portfolio.WithTransactions(holdings) {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			fetch(h.Symbol, m.Prices)
		}
	}
	for _, cur := range portfolio.RequiredCurrencies(holdings, display) {
		fetch(portfolio.Pair(cur, display), m.FX)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	f.logger.Debug("market fetched", zap.Int("prices", len(m.Prices)), zap.Int("rates", len(m.FX)))
	return m, nil
}

// withQuote sets the close of today's bar to the latest quote, appending the
// bar if needed. Quote failures are logged and ignored.
func (f *Fetcher) withQuote(ctx context.Context, symbol string, q Quoter, bars []Bar) []Bar {
	v, err := q.Quote(ctx)
	if err != nil {
		f.logger.Warn("intraday quote unavailable", zap.String("symbol", symbol), zap.Error(err))
		return bars
	}
	today := series.Day.Truncate(f.now().Unix())
	bars = slices.Clone(bars) // may be shared by a Batcher
	if n := len(bars); n > 0 && bars[n-1].Time >= today {
		last := bars[n-1]
		last.Close = decimalOf(v)
		if last.High.Valid && v.GreaterThan(last.High.Decimal) {
			last.High = decimalOf(v)
		}
		if last.Low.Valid && v.LessThan(last.Low.Decimal) {
			last.Low = decimalOf(v)
		}
		bars[n-1] = last
		return bars
	}
	return append(bars, NewBar(today, v, v, v, v))
}
