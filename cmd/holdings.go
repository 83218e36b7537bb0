package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/etnz/portfolio-chart/renderer"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	date string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display positions and cost basis on a date" }
func (*holdingsCmd) Usage() string {
	return `pfc holdings [-d <date>]

  Displays, for every holding, the quantity held, its cost basis and the
  average unit cost on a given date, in the holding's currency.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "now", "Date for the holdings report. See 'pfc topic transactions' for supported formats.")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, err := parseTime(c.date, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
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

	printMarkdown(renderer.RenderHoldings(renderer.NewHoldings(p.Name, p.Holdings, on.Unix())))
	return subcommands.ExitSuccess
}
