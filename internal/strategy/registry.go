package strategy

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Spec selects a built-in strategy and its parameters.
type Spec struct {
	Name   string         `yaml:"name" json:"name" jsonschema:"title=Name,description=Built-in strategy name,enum=buy_and_hold,enum=short_and_hold,enum=do_nothing,enum=simple_sma,enum=sma_cross,enum=rsi" validate:"required"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Params,description=Strategy parameters"`
	Invert bool           `yaml:"invert,omitempty" json:"invert,omitempty" jsonschema:"title=Invert,description=Swap BUY and SHORT orders"`
}

// SMAConfig configures simple_sma.
type SMAConfig struct {
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=Moving average period,minimum=1,default=20" validate:"required,min=1"`
}

// SMACrossConfig configures sma_cross.
type SMACrossConfig struct {
	ShortPeriod int `yaml:"short_period" json:"short_period" jsonschema:"title=Short Period,description=Period of the fast moving average,minimum=1,default=5" validate:"required,min=1"`
	LongPeriod  int `yaml:"long_period" json:"long_period" jsonschema:"title=Long Period,description=Period of the slow moving average,minimum=2,default=20" validate:"required,gtfield=ShortPeriod"`
}

// RSIConfig configures rsi.
type RSIConfig struct {
	Period int `yaml:"period" json:"period" jsonschema:"title=Period,description=RSI period,minimum=2,default=14" validate:"required,min=2"`
}

// NoConfig is the configuration of strategies without parameters.
type NoConfig struct{}

type builder struct {
	schema func() (string, error)
	build  func(params map[string]any, series types.PriceSeries) (Strategy, error)
}

var builders = map[string]builder{
	"buy_and_hold": {
		schema: func() (string, error) { return ToJSONSchema(NoConfig{}) },
		build: func(_ map[string]any, series types.PriceSeries) (Strategy, error) {
			return BuyAndHold(series), nil
		},
	},
	"short_and_hold": {
		schema: func() (string, error) { return ToJSONSchema(NoConfig{}) },
		build: func(_ map[string]any, series types.PriceSeries) (Strategy, error) {
			return ShortAndHold(series), nil
		},
	},
	"do_nothing": {
		schema: func() (string, error) { return ToJSONSchema(NoConfig{}) },
		build: func(_ map[string]any, series types.PriceSeries) (Strategy, error) {
			return DoNothing(series), nil
		},
	},
	"simple_sma": {
		schema: func() (string, error) { return ToJSONSchema(SMAConfig{}) },
		build: func(params map[string]any, series types.PriceSeries) (Strategy, error) {
			var cfg SMAConfig
			if err := decodeParams(params, &cfg); err != nil {
				return Strategy{}, err
			}

			return SimpleSMA(series, cfg.Period)
		},
	},
	"sma_cross": {
		schema: func() (string, error) { return ToJSONSchema(SMACrossConfig{}) },
		build: func(params map[string]any, series types.PriceSeries) (Strategy, error) {
			var cfg SMACrossConfig
			if err := decodeParams(params, &cfg); err != nil {
				return Strategy{}, err
			}

			return SMACross(series, cfg.ShortPeriod, cfg.LongPeriod)
		},
	},
	"rsi": {
		schema: func() (string, error) { return ToJSONSchema(RSIConfig{}) },
		build: func(params map[string]any, series types.PriceSeries) (Strategy, error) {
			var cfg RSIConfig
			if err := decodeParams(params, &cfg); err != nil {
				return Strategy{}, err
			}

			return RSIStrategy(series, cfg.Period)
		},
	},
}

// Names lists the built-in strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Build constructs the strategy described by spec over series.
func Build(spec Spec, series types.PriceSeries) (Strategy, error) {
	b, ok := builders[spec.Name]
	if !ok {
		return Strategy{}, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", spec.Name)
	}

	s, err := b.build(spec.Params, series)
	if err != nil {
		return Strategy{}, fmt.Errorf("failed to build strategy %s: %w", spec.Name, err)
	}

	if spec.Invert {
		s = s.Invert()
	}

	return s, nil
}

// Schema returns the JSON schema of the parameters of the named strategy.
func Schema(name string) (string, error) {
	b, ok := builders[name]
	if !ok {
		return "", errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	return b.schema()
}

// decodeParams maps a loosely typed parameter map onto a config struct and
// validates it.
func decodeParams(params map[string]any, out any) error {
	raw, err := yaml.Marshal(params)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to encode strategy params", err)
	}

	if err := yaml.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode strategy params", err)
	}

	validate := validator.New()
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy params", err)
	}

	return nil
}
