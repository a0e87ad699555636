package main

import (
	"context"
	"fmt"

	enginev1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print a JSON schema: the engine config by default",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Print the parameter schema of this built-in strategy",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Print the download config schema of this market data provider",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the built-in strategies and market data providers",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	out := cmd.Root().Writer

	if cmd.Bool("list") {
		fmt.Fprintln(out, TitleStyle.Render("Strategies"))

		for _, name := range strategy.Names() {
			fmt.Fprintf(out, "  %s\n", name)
		}

		fmt.Fprintln(out, TitleStyle.Render("Providers"))

		for _, name := range marketdata.GetSupportedProviders() {
			info, err := marketdata.GetProviderInfo(name)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "  %s  %s\n", name, HelpStyle.Render(info.Description))
		}

		return nil
	}

	var (
		schema string
		err    error
	)

	switch {
	case cmd.String("strategy") != "":
		schema, err = strategy.Schema(cmd.String("strategy"))
	case cmd.String("provider") != "":
		schema, err = marketdata.GetDownloadConfigSchema(cmd.String("provider"))
	default:
		schema, err = enginev1.NewBacktestEngineV1().GetConfigSchema()
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, schema)

	return err
}
