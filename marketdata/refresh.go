package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	portfolio "github.com/etnz/portfolio-chart"
)

// HoldingsFunc lists the holdings to keep fresh.
type HoldingsFunc func(ctx context.Context) ([]portfolio.Holding, error)

// Refresher periodically fetches the market of every holding so that the
// provider caches are warm when a chart is requested.
type Refresher struct {
	cron     *cron.Cron
	fetcher  *Fetcher
	holdings HoldingsFunc
	display  string
	days     int
	logger   *zap.Logger
}

// NewRefresher schedules a refresh of the last days of market data on spec,
// a cron expression with seconds ("0 0 7 * * *" is every day at 7:00).
func NewRefresher(spec string, f *Fetcher, holdings HoldingsFunc, display string, days int, logger *zap.Logger) (*Refresher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{
		cron:     cron.New(cron.WithSeconds()),
		fetcher:  f,
		holdings: holdings,
		display:  display,
		days:     days,
		logger:   logger,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("register refresh %q: %w", spec, err)
	}
	return r, nil
}

// Start starts the schedule.
func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("refresher started")
}

// Stop stops the schedule and waits for a running refresh.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("refresher stopped")
}

// RunNow refreshes immediately.
func (r *Refresher) RunNow(ctx context.Context) error {
	holdings, err := r.holdings(ctx)
	if err != nil {
		return fmt.Errorf("listing holdings: %w", err)
	}
	if len(portfolio.WithTransactions(holdings)) == 0 {
		return nil
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -r.days)
	m, err := r.fetcher.Fetch(ctx, holdings, r.display, from, to)
	if err != nil {
		return err
	}
	r.logger.Info("market refreshed", zap.Int("prices", len(m.Prices)), zap.Int("rates", len(m.FX)))
	return nil
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := r.RunNow(ctx); err != nil {
		r.logger.Error("refresh failed", zap.Error(err))
	}
}
