package main

import (
	"context"
	"strings"

	"github.com/moznion/go-optional"
	enginev1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var defaultLogFields = []string{"open", "close", "position", "account"}

func logCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Simulate one strategy over one data file and print the per-bar log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Market data file (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    "Built-in strategy name",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "param",
				Aliases: []string{"p"},
				Usage:   "Strategy parameter as `key=value`, e.g. period=20",
			},
			&cli.BoolFlag{Name: "invert", Usage: "Swap BUY and SHORT orders"},
			&cli.StringFlag{Name: "symbol", Usage: "Symbol to read when the file holds several"},
			&cli.StringFlag{Name: "interval", Usage: "Aggregate bars to this interval, e.g. 1h or 1d"},
			&cli.FloatFlag{Name: "capital", Usage: "Initial cash", Value: 10000},
			&cli.FloatFlag{Name: "commission", Usage: "Commission rate", Value: 0},
			&cli.StringFlag{
				Name:  "short-sizing",
				Usage: "Short entry sizing: discounted or symmetric",
				Value: string(enginev1.ShortSizingDiscounted),
			},
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "Field to print: open, high, low, close, position, account, indicator, market_value, flow, commission, historical_price",
				Value:   defaultLogFields,
			},
		},
		Action: logAction,
	}
}

func logAction(_ context.Context, cmd *cli.Command) error {
	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	fields := make([]enginev1.LogField, 0, len(cmd.StringSlice("field")))

	for _, name := range cmd.StringSlice("field") {
		field, err := enginev1.ParseLogField(name)
		if err != nil {
			return err
		}

		fields = append(fields, field)
	}

	query := datasource.Query{}
	if symbol := cmd.String("symbol"); symbol != "" {
		query.Symbol = optional.Some(symbol)
	}

	if interval := cmd.String("interval"); interval != "" {
		query.Interval = optional.Some(datasource.Interval(interval))
	}

	ds, err := datasource.OpenDataSource(cmd.String("data"), logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer ds.Close()

	series, err := datasource.LoadSeries(ds, query)
	if err != nil {
		return err
	}

	s, err := strategy.Build(strategy.Spec{
		Name:   cmd.String("strategy"),
		Params: params,
		Invert: cmd.Bool("invert"),
	}, series)
	if err != nil {
		return err
	}

	bt, err := enginev1.NewBacktest(series, s, cmd.Float("capital"), cmd.Float("commission"),
		enginev1.WithShortSizing(enginev1.ShortSizing(cmd.String("short-sizing"))))
	if err != nil {
		return err
	}

	return bt.Log(cmd.Root().Writer, fields...)
}

// parseParams turns key=value pairs into a parameter map. Values are decoded
// as YAML scalars so numbers and booleans keep their type.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid parameter %q, expected key=value", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid value for parameter %s", key)
		}

		params[key] = value
	}

	return params, nil
}
