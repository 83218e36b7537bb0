// Package cmd implements the pfc command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/etnz/portfolio-chart/config"
	"github.com/etnz/portfolio-chart/dashboard"
	"github.com/etnz/portfolio-chart/store"
)

// entry is a registered command and its group.
type entry struct {
	cmd   subcommands.Command
	group string
}

var commands = []entry{
	{&buyCmd{}, "transactions"},
	{&sellCmd{}, "transactions"},
	{&rmCmd{}, "transactions"},
	{&txCmd{}, "transactions"},

	{&holdingsCmd{}, "reports"},
	{&chartCmd{}, "reports"},
	{&currenciesCmd{}, "reports"},

	{&serveCmd{}, "server"},
	{&topicCmd{}, "help"},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, e := range commands {
		c.Register(e.cmd, e.group)
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile      = flag.String("config", "pfc.yaml", "Path to the YAML configuration file")
	portfolioID     = flag.String("portfolio", "main", "Portfolio to work on")
	displayCurrency = flag.String("currency", "", "Display currency, overrides display_currency")
	Verbose         = flag.Bool("v", false, "Log at info level")
)

// stdout is where commands print their report.
var stdout io.Writer = os.Stdout

// loadConfig loads and validates the configuration file with the global flags applied.
// Unless verbose, only warnings are logged.
func loadConfig(verbose bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, nil, err
	}
	if *displayCurrency != "" {
		cfg.DisplayCurrency = *displayCurrency
	}
	if !verbose && cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration %q: %w", *configFile, err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore opens the portfolio store only, for commands that need no market data.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg, logger, err := loadConfig(*Verbose)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
}

// openDashboard opens the store and the market data providers.
func openDashboard(ctx context.Context, verbose bool) (*dashboard.Dashboard, *config.Config, *zap.Logger, error) {
	cfg, logger, err := loadConfig(verbose)
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := dashboard.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return d, cfg, logger, nil
}

// printMarkdown renders md for the terminal, or prints it as is when stdout
// is not a terminal.
func printMarkdown(md string) {
	f, ok := stdout.(*os.File)
	if !ok || !isTerminal(f) {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
