package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/store"
)

// txFlags are the flags shared by buy and sell.
type txFlags struct {
	date     string
	symbol   string
	currency string
	quantity string
	price    string
}

func (c *txFlags) setFlags(f *flag.FlagSet, quantityUsage string) {
	f.StringVar(&c.date, "d", "now", "Transaction date. See 'pfc topic transactions' for supported formats.")
	f.StringVar(&c.symbol, "s", "", "Symbol, with its exchange suffix (AAPL.US, BTCUSDT.BINANCE)")
	f.StringVar(&c.currency, "c", "", "Currency of the price, defaults to the currency of the existing holding")
	f.StringVar(&c.quantity, "q", "", quantityUsage)
	f.StringVar(&c.price, "p", "", "Price per unit")
}

// record validates the flags and stores a transaction of type typ.
// quantity returns the quantity to record, given the parsed flag and the holding, nil if new.
func (c *txFlags) record(ctx context.Context, f *flag.FlagSet, typ portfolio.TxType, quantity func(q decimal.Decimal, at int64, h *portfolio.Holding) (decimal.Decimal, error)) subcommands.ExitStatus {
	if c.symbol == "" || c.price == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	at, err := parseTime(c.date, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price %q: %v\n", c.price, err)
		return subcommands.ExitUsageError
	}
	var q decimal.Decimal
	if c.quantity != "" {
		if q, err = decimal.NewFromString(c.quantity); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing quantity %q: %v\n", c.quantity, err)
			return subcommands.ExitUsageError
		}
	}

	s, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	var h *portfolio.Holding
	p, err := s.Portfolio(ctx, *portfolioID)
	switch {
	case err == nil:
		h = p.Holding(c.symbol)
	case !errors.Is(err, store.ErrNotFound):
		fmt.Fprintf(os.Stderr, "Error reading portfolio %q: %v\n", *portfolioID, err)
		return subcommands.ExitFailure
	}

	currency := c.currency
	if currency == "" && h != nil {
		currency = h.Currency
	}
	if currency == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is a new holding, its currency is required (-c)\n", c.symbol)
		return subcommands.ExitUsageError
	}

	q, err = quantity(q, at.Unix(), h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	tx, err := portfolio.NewTransaction(typ, at.Unix(), q, price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := s.AddTransaction(ctx, *portfolioID, c.symbol, currency, tx); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(stdout, "Recorded %s %s %s at %s in %s: %s\n",
		typ, tx.Quantity, c.symbol, portfolio.FormatMoney(price, currency), *portfolioID, tx.ID)
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct{ txFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy units to open or add to a holding" }
func (*buyCmd) Usage() string {
	return `pfc buy -s <symbol> -q <quantity> -p <price> [-c <currency>] [-d <date>]

  Records the purchase of quantity units of symbol at price, in the holding's currency.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f, "Number of units") }

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.quantity == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	return c.record(ctx, f, portfolio.Buy, func(q decimal.Decimal, _ int64, _ *portfolio.Holding) (decimal.Decimal, error) {
		return q, nil
	})
}

// --- Sell Command ---

type sellCmd struct{ txFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell units to trim or close a holding" }
func (*sellCmd) Usage() string {
	return `pfc sell -s <symbol> -p <price> [-q <quantity>] [-d <date>]

  Records the sale of quantity units of symbol at price. Without -q, the
  whole position held at the transaction date is sold.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, "Number of units, if missing all units are sold")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.record(ctx, f, portfolio.Sell, func(q decimal.Decimal, at int64, h *portfolio.Holding) (decimal.Decimal, error) {
		if c.quantity != "" {
			return q, nil
		}
		if h == nil {
			return q, fmt.Errorf("nothing to sell: no holding %s", c.symbol)
		}
		held := h.Position(at)
		if !held.IsPositive() {
			return q, fmt.Errorf("nothing to sell: no %s held", c.symbol)
		}
		return held, nil
	})
}

// --- Rm Command ---

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "remove transactions by ID" }
func (*rmCmd) Usage() string {
	return `pfc rm <id>...

  Removes transactions from the portfolio. IDs are listed by 'pfc tx'.
  A holding left without transactions is removed.
`
}

func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	s, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	status := subcommands.ExitSuccess
	for _, id := range f.Args() {
		if err := s.DeleteTransaction(ctx, *portfolioID, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing %s: %v\n", id, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(stdout, "Removed %s\n", id)
	}
	return status
}
