package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-backtest/internal/store"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/urfave/cli/v3"
)

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "store",
		Usage:    "Path to the SQLite run store (store_path in the engine config)",
		Required: true,
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect runs recorded in the run store",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					storeFlag(),
					&cli.StringFlag{Name: "symbol", Usage: "Only runs over this symbol"},
					&cli.StringFlag{Name: "strategy", Usage: "Only runs of this strategy"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of runs", Value: 20},
				},
				Action: historyListAction,
			},
			{
				Name:      "compare",
				Usage:     "Compare recorded runs by id",
				ArgsUsage: "<run id>...",
				Flags:     []cli.Flag{storeFlag()},
				Action:    historyCompareAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a recorded run",
				ArgsUsage: "<run id>",
				Flags:     []cli.Flag{storeFlag()},
				Action:    historyDeleteAction,
			},
		},
	}
}

func historyListAction(ctx context.Context, cmd *cli.Command) error {
	runStore, err := store.NewRunStore(cmd.String("store"))
	if err != nil {
		return err
	}
	defer runStore.Close()

	runs, err := runStore.ListRuns(ctx, store.RunFilter{
		Symbol:   cmd.String("symbol"),
		Strategy: cmd.String("strategy"),
		Limit:    int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.Root().Writer, "No runs recorded")

		return nil
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, historyTable(runs))

	return err
}

func historyTable(runs []types.RunStats) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Timestamp.Local().Format(time.DateTime),
			run.Symbol,
			run.Strategy,
			fmt.Sprintf("%d", run.Bars),
			fmt.Sprintf("%.2f", run.Performance.TotalReturn),
			fmt.Sprintf("%.2f", run.Performance.MaxDrawdown),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Executed", "Symbol", "Strategy", "Bars", "Return %", "Max drawdown %").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

func historyCompareAction(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "at least one run id is required")
	}

	runStore, err := store.NewRunStore(cmd.String("store"))
	if err != nil {
		return err
	}
	defer runStore.Close()

	runs := make([]types.RunStats, 0, len(ids))

	for _, id := range ids {
		run, err := runStore.GetRun(ctx, id)
		if err != nil {
			return err
		}

		runs = append(runs, run)
	}

	return compareRuns(cmd.Root().Writer, runs)
}

func historyDeleteAction(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New(errors.ErrCodeMissingParameter, "run id is required")
	}

	runStore, err := store.NewRunStore(cmd.String("store"))
	if err != nil {
		return err
	}
	defer runStore.Close()

	if err := runStore.DeleteRun(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "Deleted run %s\n", id)

	return nil
}
