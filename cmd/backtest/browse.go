package main

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/urfave/cli/v3"
)

func browseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse the runs and reports of a results folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Results folder written by run",
				Value:   "results",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			runs, err := types.ReadRunStats(filepath.Join(cmd.String("results"), "stats.yaml"))
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewModel(runs, nil), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()

			return err
		},
	}
}
