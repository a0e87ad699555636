package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the configured strategies over one or more market data files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest engine YAML config",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Market data file or glob pattern (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Results folder, overrides results_folder from the config",
			},
			&cli.StringSliceFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Additional built-in strategy to run with default parameters",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar",
				Value: true,
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	eng := enginev1.NewBacktestEngineV1()

	if err := eng.Initialize(string(config)); err != nil {
		return err
	}

	if err := eng.SetDataPath(cmd.String("data")); err != nil {
		return err
	}

	if results := cmd.String("results"); results != "" {
		if err := eng.SetResultsFolder(results); err != nil {
			return err
		}
	}

	for _, name := range cmd.StringSlice("strategy") {
		if err := eng.LoadStrategy(strategy.Spec{Name: name}); err != nil {
			return err
		}
	}

	out := cmd.Root().Writer
	reporter := &runReporter{out: out, showProgress: cmd.Bool("progress")}

	stats, err := eng.Run(ctx, reporter.callbacks())
	if err != nil {
		return err
	}

	return export.Compare(out, stats)
}

// runReporter turns engine callbacks into terminal output.
type runReporter struct {
	out          io.Writer
	showProgress bool
	bar          *progressbar.ProgressBar
}

func (r *runReporter) callbacks() engine.LifecycleCallbacks {
	onStart := engine.OnBacktestStartCallback(func(totalStrategies int, totalDataFiles int) error {
		fmt.Fprintf(r.out, "Running %d strategies over %d data files\n", totalStrategies, totalDataFiles)

		if r.showProgress {
			r.bar = progressbar.NewOptions(totalStrategies*totalDataFiles,
				progressbar.OptionSetWriter(r.out),
				progressbar.OptionSetDescription("Backtesting"),
				progressbar.OptionShowCount(),
			)
		}

		return nil
	})

	onRunEnd := engine.OnRunEndCallback(func(stats types.RunStats, resultFolderPath string) {
		if r.bar == nil {
			fmt.Fprintf(r.out, "%s on %s: %.2f%% -> %s\n",
				stats.Strategy, stats.Symbol, stats.Performance.TotalReturn, resultFolderPath)
		}
	})

	onProgress := engine.OnProgressCallback(func(completed int, _ int) error {
		if r.bar != nil {
			return r.bar.Set(completed)
		}

		return nil
	})

	// the error itself is reported once by main
	onEnd := engine.OnBacktestEndCallback(func(error) {
		if r.bar != nil {
			_ = r.bar.Finish()
			fmt.Fprintln(r.out)
		}
	})

	return engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnBacktestEnd:   &onEnd,
		OnRunEnd:        &onRunEnd,
		OnProgress:      &onProgress,
	}
}
