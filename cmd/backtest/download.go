package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical bars to a parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker symbol, e.g. SPY or BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date as `YYYY-MM-DD` or RFC3339",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date as `YYYY-MM-DD` or RFC3339. Defaults to today",
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Bar interval, e.g. 1m, 1h or 1d",
				Value:   string(marketdata.TimespanOneDay),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s or %s)", marketdata.ProviderPolygon, marketdata.ProviderBinance),
				Value:   string(marketdata.ProviderBinance),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	end := cmd.String("end")
	if end == "" {
		end = time.Now().UTC().Format(time.DateOnly)
	}

	config := marketdata.BaseDownloadConfig{
		Ticker:    cmd.String("ticker"),
		StartDate: cmd.String("start"),
		EndDate:   end,
		Interval:  cmd.String("interval"),
	}

	if err := config.Validate(); err != nil {
		return err
	}

	params, err := config.ToDownloadParams()
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.Root().Writer),
		progressbar.OptionSetDescription("Downloading "+params.Ticker),
		progressbar.OptionSpinnerType(14),
	)

	onProgress := func(current float64, total float64, _ string) {
		if total > 0 {
			bar.ChangeMax64(int64(total))
		}

		_ = bar.Set64(int64(current))
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      cmd.String("data"),
		PolygonApiKey: os.Getenv("POLYGON_API_KEY"),
	}, onProgress, log)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	_ = bar.Finish()
	fmt.Fprintf(cmd.Root().Writer, "\nSaved %s\n", path)

	return nil
}
