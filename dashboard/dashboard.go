// Package dashboard computes the chart of a stored portfolio. It is shared
// by the command line and the HTTP server.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/config"
	"github.com/etnz/portfolio-chart/eodhd"
	"github.com/etnz/portfolio-chart/marketdata"
	"github.com/etnz/portfolio-chart/series"
	"github.com/etnz/portfolio-chart/store"
)

// Dashboard reads portfolios, fetches their market and aggregates them.
type Dashboard struct {
	Store      *store.Store
	Fetcher    *marketdata.Fetcher
	Aggregator *portfolio.Aggregator
	Days       int // default chart length
	logger     *zap.Logger
	now        func() time.Time
}

// New returns a dashboard.
func New(s *store.Store, f *marketdata.Fetcher, a *portfolio.Aggregator, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{Store: s, Fetcher: f, Aggregator: a, Days: 365, logger: logger, now: time.Now}
}

// Open builds a dashboard from cfg: the store, the EODHD provider (with
// Binance for symbols ending in ".BINANCE") behind a shared Batcher, the
// configured intraday quotes and a logging aggregator.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dashboard, error) {
	s, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, err
	}

	eod := eodhd.New(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithLogger(logger),
		eodhd.WithCache(cfg.EODHD.CacheDir))
	mux := marketdata.NewMux(eod)
	mux.Handle("BINANCE", marketdata.NewBinance(cfg.Binance.APIKey, cfg.Binance.SecretKey))
	batcher := marketdata.NewBatcher(mux, cfg.Batch.Window, cfg.Batch.MaxSize, logger)

	observer := series.LogObserver{Logger: logger}
	opts := []marketdata.FetcherOption{
		marketdata.WithFetchLogger(logger),
		marketdata.WithSeriesObserver(observer),
	}
	for symbol, q := range cfg.Quotes {
		opts = append(opts, marketdata.WithQuote(symbol, marketdata.JSONQuoter{URL: q.URL, Path: q.Path}))
	}
	fetcher := marketdata.NewFetcher(batcher, opts...)

	aggregator := portfolio.NewAggregator(
		portfolio.WithThumbnailSize(cfg.Chart.ThumbnailSize),
		portfolio.WithObserver(observer),
		portfolio.WithLogger(logger))

	d := New(s, fetcher, aggregator, logger)
	d.Days = cfg.Chart.Days
	return d, nil
}

// Close closes the store.
func (d *Dashboard) Close() error { return d.Store.Close() }

// Chart returns the chart of portfolio id in display, between from and to.
func (d *Dashboard) Chart(ctx context.Context, id, display string, from, to time.Time) (*portfolio.Chart, error) {
	if err := portfolio.ValidateCurrency(display); err != nil {
		return nil, err
	}
	p, err := d.Store.Portfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := d.Fetcher.Fetch(ctx, p.Holdings, display, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	chart, err := d.Aggregator.Aggregate(p.Holdings, m.Prices, m.Normalizer(display))
	if err != nil {
		return nil, err
	}
	d.logger.Info("chart computed",
		zap.String("portfolio", id),
		zap.String("currency", display),
		zap.Int("points", chart.Value.Len()))
	return chart, nil
}

// LastDays returns the chart of the last days, or of d.Days if days is not positive.
func (d *Dashboard) LastDays(ctx context.Context, id, display string, days int) (*portfolio.Chart, error) {
	if days <= 0 {
		days = d.Days
	}
	to := d.now().UTC()
	return d.Chart(ctx, id, display, to.AddDate(0, 0, -days), to)
}

// Currencies returns the exchange rates portfolio id needs to be shown in display.
func (d *Dashboard) Currencies(ctx context.Context, id, display string) ([]string, error) {
	p, err := d.Store.Portfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	return portfolio.RequiredCurrencies(p.Holdings, display), nil
}

// Refresher returns a refresher warming the market of every stored holding on spec.
func (d *Dashboard) Refresher(spec, display string) (*marketdata.Refresher, error) {
	return marketdata.NewRefresher(spec, d.Fetcher, d.Store.Holdings, display, d.Days, d.logger)
}
