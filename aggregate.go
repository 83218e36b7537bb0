package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/etnz/portfolio-chart/series"
)

// DefaultThumbnailSize is the number of points kept in holding thumbnails.
const DefaultThumbnailSize = 30

// Chart is the result of an aggregation, in the display currency.
type Chart struct {
	Currency string
	// Value is the OHLC market value of the portfolio.
	Value *series.Series
	// CostBasis is the single field cost basis, on Value's time axis.
	CostBasis *series.Series
	// Thumbnails holds, by symbol, the last points of each holding's own value series.
	Thumbnails map[string]*series.Series
	Summary    Summary
}

// Summary is the last bar of the chart compared to its cost basis.
type Summary struct {
	Time      int64
	Last      series.Point
	CostBasis decimal.Decimal
	Change    Percent // of the last close over the cost basis
}

// Aggregator sums holdings into a Chart.
type Aggregator struct {
	thumbnailSize int
	observer      series.Observer
	logger        *zap.Logger

	intersect func([]*series.Series, series.Operation) *series.Series
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithThumbnailSize sets the number of points kept in thumbnails.
func WithThumbnailSize(n int) Option { return func(a *Aggregator) { a.thumbnailSize = n } }

// WithObserver reports degradations of the series built by the aggregator.
func WithObserver(obs series.Observer) Option { return func(a *Aggregator) { a.observer = obs } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator returns an aggregator.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		thumbnailSize: DefaultThumbnailSize,
		logger:        zap.NewNop(),
		intersect:     series.IntersectSeries,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate computes the value and cost basis of the portfolio made of
// holdings, in fx's display currency.
//
// prices holds the native currency OHLC series of every holding, by symbol.
// Holdings without transactions are ignored; it is an error if none is left,
// or if a holding has no price series or no exchange rate.
//
// The value series only keeps the timestamps present in every holding's
// converted series. The cost basis series is evaluated on the same time axis.
func (a *Aggregator) Aggregate(holdings []Holding, prices map[string]*series.Series, fx CurrencyNormalizer) (*Chart, error) {
	active := WithTransactions(holdings)
	if len(active) == 0 {
		return nil, ErrNoHoldings
	}

	chart := &Chart{
		Currency:   fx.Display,
		Thumbnails: make(map[string]*series.Series, len(active)),
	}

	values := make([]*series.Series, 0, len(active))
	for _, h := range active {
		p, ok := prices[h.Symbol]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingPrices, h.Symbol)
		}
		v, err := fx.Normalize(h.Currency, a.position(h, p))
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", h.Symbol, err)
		}
		v = v.Observe(a.observer)
		chart.Thumbnails[h.Symbol] = v.Last(a.thumbnailSize)
		values = append(values, v)
	}
	chart.Value = a.intersect(values, series.Add)

	costs := make([]*series.Series, 0, len(active))
	for _, h := range active {
		c, err := fx.ConvertCostBasis(h.Currency, a.costBasis(h, chart.Value))
		if err != nil {
			return nil, fmt.Errorf("converting %s cost basis: %w", h.Symbol, err)
		}
		costs = append(costs, c)
	}
	chart.CostBasis = a.intersect(costs, series.Add)
	chart.Summary = summarize(chart.Value, chart.CostBasis)

	a.logger.Debug("portfolio aggregated",
		zap.Int("holdings", len(active)),
		zap.Int("points", chart.Value.Len()),
		zap.Stringer("granularity", chart.Value.Granularity()),
		zap.String("currency", fx.Display))
	return chart, nil
}

// position scales every bar of prices by the quantity of h held at that bar.
func (a *Aggregator) position(h Holding, prices *series.Series) *series.Series {
	sh := h.snapped(prices.Granularity())
	return prices.Map(func(p series.Point) series.Point { return p.Scale(sh.Position(p.Time)) })
}

// costBasis evaluates the native cost basis of h at every timestamp of axis.
func (a *Aggregator) costBasis(h Holding, axis *series.Series) *series.Series {
	sh := h.snapped(axis.Granularity())
	points := make([]series.Point, 0, axis.Len())
	for t := range axis.Points() {
		points = append(points, series.NewPoint(t, series.Value, sh.CostBasisAt(t)))
	}
	if last, ok := axis.Latest(); ok {
		if _, err := sh.Replay(last.Time); err != nil {
			a.logger.Warn("cost basis clamped", zap.String("symbol", h.Symbol), zap.Error(err))
		}
	}
	return series.New(points, series.Value, series.WithGranularity(axis.Granularity()), series.WithObserver(a.observer))
}

func summarize(value, costBasis *series.Series) Summary {
	last, ok := value.Latest()
	if !ok {
		return Summary{}
	}
	s := Summary{Time: last.Time, Last: last}
	if cb, ok := costBasis.Get(last.Time); ok {
		s.CostBasis, _ = cb.Get("value")
	}
	if c, ok := last.Get("close"); ok {
		s.Change = Change(c, s.CostBasis)
	}
	return s
}
