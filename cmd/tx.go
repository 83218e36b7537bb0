package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/renderer"
)

type txCmd struct {
	start string
	date  string
	head  int
	tail  int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of the portfolio" }
func (*txCmd) Usage() string {
	return `pfc tx [-s <start_date>] [-d <end_date>] [-head <n>] [-tail <n>]

  Lists transactions with their IDs, oldest first, with options for filtering and limiting the output.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.start, "s", "", "Only list transactions at or after this date.")
	f.StringVar(&p.date, "d", "", "Only list transactions at or before this date.")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions.")
}

func (p *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	now := time.Now().UTC()
	from, to := int64(0), int64(1<<62)
	if p.start != "" {
		t, err := parseTime(p.start, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
		from = t.Unix()
	}
	if p.date != "" {
		t, err := parseTime(p.date, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
		to = t.Unix()
	}

	s, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()
	pf, err := s.Portfolio(ctx, *portfolioID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading portfolio %q: %v\n", *portfolioID, err)
		return subcommands.ExitFailure
	}

	holdings := make([]portfolio.Holding, 0, len(pf.Holdings))
	for _, h := range pf.Holdings {
		kept := h
		kept.Transactions = nil
		for _, tx := range h.Transactions {
			if tx.Time >= from && tx.Time <= to {
				kept.Transactions = append(kept.Transactions, tx)
			}
		}
		holdings = append(holdings, kept)
	}

	view := renderer.NewTransactions(pf.Name, holdings)
	switch {
	case p.head > 0 && p.head < len(view.Rows):
		view.Rows = view.Rows[:p.head]
	case p.tail > 0 && p.tail < len(view.Rows):
		view.Rows = view.Rows[len(view.Rows)-p.tail:]
	}
	printMarkdown(renderer.RenderTransactions(view))
	return subcommands.ExitSuccess
}
