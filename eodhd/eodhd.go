// Package eodhd provides daily bars from EOD Historical Data (https://eodhd.com)
// for stocks, funds and FOREX pairs.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/marketdata"
)

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// maxAttempts bounds the calls made for one request.
const maxAttempts = 3

// Client is a marketdata.Provider backed by the EODHD end of day API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	backoff backoff.Backoff
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient sets the http client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCache caches successful responses in dir for the current day.
// An empty dir means the system temporary directory.
// It must come after WithHTTPClient and WithLogger.
func WithCache(dir string) Option {
	return func(c *Client) {
		if dir == "" {
			dir = os.TempDir()
		}
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		h := *c.http
		h.Transport = &diskCache{base: base, dir: dir, logger: c.logger, now: time.Now}
		c.http = &h
	}
}

// New returns a client authenticated by apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    new(http.Client),
		logger:  zap.NewNop(),
		backoff: backoff.Backoff{Min: 250 * time.Millisecond, Max: 4 * time.Second, Factor: 2, Jitter: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ticker returns the EODHD ticker of a symbol: currency pairs like "EURUSD"
// become "EURUSD.FOREX", other symbols are used as is ("AAPL.US").
func Ticker(symbol string) string {
	if isPair(symbol) {
		return symbol + ".FOREX"
	}
	return symbol
}

func isPair(symbol string) bool {
	return len(symbol) == 6 &&
		portfolio.ValidateCurrency(symbol[:3]) == nil &&
		portfolio.ValidateCurrency(symbol[3:]) == nil
}

// eod is one item of the /eod endpoint.
type eod struct {
	Date  string              `json:"date"`
	Open  decimal.NullDecimal `json:"open"`
	High  decimal.NullDecimal `json:"high"`
	Low   decimal.NullDecimal `json:"low"`
	Close decimal.NullDecimal `json:"close"`
}

// Bars implements marketdata.Provider.
//
// The close of FOREX pairs is replaced by the open of the next day: EODHD's
// forex close is most of the time equal to its open.
func (c *Client) Bars(ctx context.Context, r marketdata.Request) ([]marketdata.Bar, error) {
	from, to := r.FromTime(), r.ToTime()
	forex := isPair(r.Symbol)
	if forex {
		to = to.AddDate(0, 0, 1)
	}

	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", c.apiKey)
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))
	addr := fmt.Sprintf("%s/eod/%s?%s", c.baseURL, url.PathEscape(Ticker(r.Symbol)), q.Encode())

	var content []eod
	if err := c.get(ctx, addr, &content); err != nil {
		return nil, errors.Wrapf(err, "eodhd %s", r.Symbol)
	}

	bars := make([]marketdata.Bar, 0, len(content))
	for _, e := range content {
		day, err := time.ParseInLocation(time.DateOnly, e.Date, time.UTC)
		if err != nil {
			return nil, errors.Wrapf(err, "eodhd %s: invalid date", r.Symbol)
		}
		bars = append(bars, marketdata.Bar{Time: day.Unix(), Open: e.Open, High: e.High, Low: e.Low, Close: e.Close})
	}
	if forex {
		bars = nextOpenAsClose(bars, r.To)
	}
	return bars, nil
}

// nextOpenAsClose sets the close of every bar to the open of the next one
// and drops bars after last. The last bar keeps its close when there is no
// next one.
func nextOpenAsClose(bars []marketdata.Bar, last int64) []marketdata.Bar {
	for i := 0; i+1 < len(bars); i++ {
		if next := bars[i+1].Open; next.Valid {
			bars[i].Close = next
		}
	}
	for len(bars) > 0 && bars[len(bars)-1].Time > last {
		bars = bars[:len(bars)-1]
	}
	return bars
}

// get performs a GET on addr, retrying transport errors and server errors,
// and unmarshals the JSON response into data.
func (c *Client) get(ctx context.Context, addr string, data any) error {
	b := c.backoff // a copy, reset for this call
	b.Reset()
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var retry bool
		retry, err = c.try(ctx, addr, data)
		if err == nil || !retry || attempt == maxAttempts {
			break
		}
		wait := b.Duration()
		c.logger.Debug("eodhd retry", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// try performs a single call and reports whether a failure is worth a retry.
func (c *Client) try(ctx context.Context, addr string, data any) (retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
		return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
	}
	return false, json.NewDecoder(resp.Body).Decode(data)
}
