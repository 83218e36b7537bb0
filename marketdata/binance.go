package marketdata

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// klinesLimit is the largest page Binance returns.
const klinesLimit = 1000

// Binance provides daily klines of Binance spot pairs, such as "BTCUSDT".
// Prices are in the quote asset.
type Binance struct {
	client   *binance.Client
	interval string
}

// NewBinance returns a Binance provider. Klines are public: keys may be empty.
func NewBinance(apiKey, secretKey string) *Binance {
	return newBinance(binance.NewClient(apiKey, secretKey))
}

func newBinance(client *binance.Client) *Binance {
	return &Binance{client: client, interval: "1d"}
}

// Bars implements Provider.
func (b *Binance) Bars(ctx context.Context, r Request) ([]Bar, error) {
	var bars []Bar
	start, end := r.From*1000, r.To*1000
	for start <= end {
		klines, err := b.client.NewKlinesService().
			Symbol(r.Symbol).
			Interval(b.interval).
			StartTime(start).
			EndTime(end).
			Limit(klinesLimit).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", r.Symbol)
		}
		for i, k := range klines {
			bar, err := klineBar(k)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse %s kline at index %d", r.Symbol, i)
			}
			bars = append(bars, bar)
		}
		if len(klines) < klinesLimit {
			break
		}
		start = klines[len(klines)-1].OpenTime + 1
	}
	return bars, nil
}

func klineBar(k *binance.Kline) (Bar, error) {
	var values [4]decimal.Decimal
	for i, s := range []string{k.Open, k.High, k.Low, k.Close} {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return Bar{}, err
		}
		values[i] = v
	}
	return NewBar(k.OpenTime/1000, values[0], values[1], values[2], values[3]), nil
}
