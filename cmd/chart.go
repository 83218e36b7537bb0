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

// chartCmd holds the flags for the 'chart' subcommand.
type chartCmd struct {
	currency string
	days     int
	start    string
	date     string
	rows     int
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "display the value and cost basis of the portfolio over time" }
func (*chartCmd) Usage() string {
	return `pfc chart [-c <currency>] [-days <n> | -s <start_date>] [-d <end_date>] [-rows <n>]

  Fetches prices and exchange rates, and displays the market value of the
  portfolio against its cost basis, in the display currency.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "c", "", "Display currency, defaults to the configured one")
	f.IntVar(&c.days, "days", 0, "Number of days to chart, defaults to chart.days")
	f.StringVar(&c.start, "s", "", "Start date of the chart. Overrides -days.")
	f.StringVar(&c.date, "d", "now", "End date of the chart")
	f.IntVar(&c.rows, "rows", 10, "Number of history rows to display")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	now := time.Now().UTC()
	to, err := parseTime(c.date, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
		return subcommands.ExitUsageError
	}

	d, cfg, _, err := openDashboard(ctx, *Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer d.Close()

	from := to.AddDate(0, 0, -cfg.Chart.Days)
	if c.days > 0 {
		from = to.AddDate(0, 0, -c.days)
	}
	if c.start != "" {
		if from, err = parseTime(c.start, now); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	display := c.currency
	if display == "" {
		display = cfg.DisplayCurrency
	}

	chart, err := d.Chart(ctx, *portfolioID, display, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing chart: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderChart(renderer.NewChart(chart, *portfolioID, c.rows)))
	return subcommands.ExitSuccess
}
