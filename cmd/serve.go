package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/etnz/portfolio-chart/server"
)

type serveCmd struct {
	addr      string
	noRefresh bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve portfolio charts over HTTP" }
func (*serveCmd) Usage() string {
	return `pfc serve [-addr <address>] [-no-refresh]

  Serves the JSON API described in 'pfc topic server' until interrupted,
  and refreshes the market data of every portfolio on server.refresh_cron.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address, defaults to server.addr")
	f.BoolVar(&c.noRefresh, "no-refresh", false, "Do not refresh market data on a schedule")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, cfg, logger, err := openDashboard(ctx, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer d.Close()
	defer logger.Sync()

	if !c.noRefresh {
		refresher, err := d.Refresher(cfg.Server.RefreshCron, cfg.DisplayCurrency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error scheduling refresh: %v\n", err)
			return subcommands.ExitFailure
		}
		refresher.Start()
		defer refresher.Stop()
	}

	addr := c.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if err := server.New(addr, cfg.DisplayCurrency, d, logger).Start(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
