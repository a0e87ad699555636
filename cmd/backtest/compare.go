package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/urfave/cli/v3"
)

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Print a side by side table of runs from stats.yaml files",
		ArgsUsage: "<stats.yaml>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New(errors.ErrCodeMissingParameter, "at least one stats.yaml file is required")
			}

			var all []types.RunStats

			for _, path := range paths {
				stats, err := types.ReadRunStats(path)
				if err != nil {
					return err
				}

				all = append(all, stats...)
			}

			return compareRuns(cmd.Root().Writer, all)
		},
	}
}

// compareRuns prints the comparison table, preceded by a warning for every
// run simulated by an engine release that differs from the first run's.
func compareRuns(out io.Writer, runs []types.RunStats) error {
	if len(runs) == 0 {
		return errors.New(errors.ErrCodeDataNotFound, "no runs to compare")
	}

	for _, run := range runs[1:] {
		if err := version.CheckRunCompatibility(runs[0].EngineVersion, run.EngineVersion); err != nil {
			fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("Warning: %s on %s: %v", run.Strategy, run.Symbol, err)))
		}
	}

	return export.Compare(out, runs)
}
