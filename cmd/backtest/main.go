package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "backtest",
		Usage:   "Simulate trading strategies over historical market data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			runCommand(),
			compareCommand(),
			historyCommand(),
			logCommand(),
			schemaCommand(),
			initCommand(),
			downloadCommand(),
			browseCommand(),
		},
	}
}

func main() {
	// POLYGON_API_KEY and friends may come from a local .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
