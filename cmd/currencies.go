package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	portfolio "github.com/etnz/portfolio-chart"
)

type currenciesCmd struct {
	currency string
}

func (*currenciesCmd) Name() string     { return "currencies" }
func (*currenciesCmd) Synopsis() string { return "list the exchange rates needed by the portfolio" }
func (*currenciesCmd) Usage() string {
	return `pfc currencies [-c <currency>]

  Lists the exchange rate pairs fetched to display the portfolio in currency.
`
}

func (c *currenciesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Display currency, defaults to the configured one")
}

func (c *currenciesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, _, err := loadConfig(*Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	display := c.currency
	if display == "" {
		display = cfg.DisplayCurrency
	}
	if err := portfolio.ValidateCurrency(display); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()
	p, err := s.Portfolio(ctx, *portfolioID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading portfolio %q: %v\n", *portfolioID, err)
		return subcommands.ExitFailure
	}

	for _, cur := range portfolio.RequiredCurrencies(p.Holdings, display) {
		fmt.Fprintf(stdout, "%s\n", portfolio.Pair(cur, display))
	}
	return subcommands.ExitSuccess
}
