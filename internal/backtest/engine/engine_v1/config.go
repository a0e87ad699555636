package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const defaultMaxConcurrent = 4

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash of every run,exclusiveMinimum=0" validate:"gt=0"`
	CommissionRate float64                    `yaml:"commission_rate" json:"commission_rate" jsonschema:"title=Commission Rate,description=Proportional commission charged on the notional of every trade,minimum=0,exclusiveMaximum=1" validate:"gte=0,lt=1"`
	ShortSizing    ShortSizing                `yaml:"short_sizing" json:"short_sizing" jsonschema:"title=Short Sizing,description=How the lot count of a new short is computed" validate:"oneof=discounted symmetric"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Symbol         string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Symbol to read from the data source. Empty reads every row"`
	Interval       datasource.Interval        `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Aggregate the raw bars into bars of this width. Empty keeps the raw bars" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 6h 8h 12h 1d 1w"`
	Strategies     []strategy.Spec            `yaml:"strategies" json:"strategies" jsonschema:"title=Strategies,description=Built-in strategies to run against the series,minItems=1" validate:"required,min=1,dive"`
	ResultsFolder  string                     `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Folder receiving one sub folder per run"`
	MaxConcurrent  int                        `yaml:"max_concurrent" json:"max_concurrent" jsonschema:"title=Max Concurrent,description=Maximum number of runs simulated at the same time,minimum=1,default=4" validate:"gte=1"`
	LogFields      []LogField                 `yaml:"log_fields" json:"log_fields" jsonschema:"title=Log Fields,description=Fields written to the per-run log.txt. Empty disables the log" validate:"dive,oneof=open high low close position account indicator market_value flow commission historical_price"`
	StorePath      string                     `yaml:"store_path" json:"store_path" jsonschema:"title=Store Path,description=Optional SQLite file recording a summary of every run"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital float64         `yaml:"initial_capital"`
		CommissionRate float64         `yaml:"commission_rate"`
		ShortSizing    ShortSizing     `yaml:"short_sizing"`
		StartTime      *time.Time      `yaml:"start_time"`
		EndTime        *time.Time      `yaml:"end_time"`
		Symbol         string          `yaml:"symbol"`
		Interval       string          `yaml:"interval"`
		Strategies     []strategy.Spec `yaml:"strategies"`
		ResultsFolder  string          `yaml:"results_folder"`
		MaxConcurrent  int             `yaml:"max_concurrent"`
		LogFields      []LogField      `yaml:"log_fields"`
		StorePath      string          `yaml:"store_path"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	*c = EmptyConfig()
	c.InitialCapital = config.InitialCapital
	c.CommissionRate = config.CommissionRate
	c.Symbol = config.Symbol
	c.Interval = datasource.Interval(config.Interval)
	c.Strategies = config.Strategies
	c.ResultsFolder = config.ResultsFolder
	c.LogFields = config.LogFields
	c.StorePath = config.StorePath

	if config.ShortSizing != "" {
		c.ShortSizing = config.ShortSizing
	}

	if config.MaxConcurrent != 0 {
		c.MaxConcurrent = config.MaxConcurrent
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// MarshalYAML writes the optional times as plain timestamps and leaves unset
// fields out.
func (c BacktestEngineV1Config) MarshalYAML() (interface{}, error) {
	type Config struct {
		InitialCapital float64         `yaml:"initial_capital"`
		CommissionRate float64         `yaml:"commission_rate"`
		ShortSizing    ShortSizing     `yaml:"short_sizing"`
		StartTime      *time.Time      `yaml:"start_time,omitempty"`
		EndTime        *time.Time      `yaml:"end_time,omitempty"`
		Symbol         string          `yaml:"symbol,omitempty"`
		Interval       string          `yaml:"interval,omitempty"`
		Strategies     []strategy.Spec `yaml:"strategies"`
		ResultsFolder  string          `yaml:"results_folder,omitempty"`
		MaxConcurrent  int             `yaml:"max_concurrent"`
		LogFields      []LogField      `yaml:"log_fields,omitempty"`
		StorePath      string          `yaml:"store_path,omitempty"`
	}

	config := Config{
		InitialCapital: c.InitialCapital,
		CommissionRate: c.CommissionRate,
		ShortSizing:    c.ShortSizing,
		Symbol:         c.Symbol,
		Interval:       string(c.Interval),
		Strategies:     c.Strategies,
		ResultsFolder:  c.ResultsFolder,
		MaxConcurrent:  c.MaxConcurrent,
		LogFields:      c.LogFields,
		StorePath:      c.StorePath,
	}

	if c.StartTime.IsSome() {
		start := c.StartTime.Unwrap()
		config.StartTime = &start
	}

	if c.EndTime.IsSome() {
		end := c.EndTime.Unwrap()
		config.EndTime = &end
	}

	return config, nil
}

// Validate checks the configuration.
func (c *BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end time %s is before start time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.HasSuffix(t.String(), "engine.ShortSizing") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllShortSizings,
				}
			}

			if strings.HasSuffix(t.String(), "datasource.Interval") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: datasource.AllIntervals,
				}
			}

			return nil
		},
	}

	// Generate schema from BacktestEngineV1Config struct
	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// query returns the data source query selecting the configured bars.
func (c *BacktestEngineV1Config) query() datasource.Query {
	q := datasource.Query{
		Start: c.StartTime,
		End:   c.EndTime,
	}

	if c.Symbol != "" {
		q.Symbol = optional.Some(c.Symbol)
	}

	if c.Interval != "" {
		q.Interval = optional.Some(c.Interval)
	}

	return q
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: 0,
		CommissionRate: 0,
		ShortSizing:    ShortSizingDiscounted,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		MaxConcurrent:  defaultMaxConcurrent,
	}
}

// SampleConfig returns a valid configuration comparing buy and hold with an
// SMA crossover.
func SampleConfig() BacktestEngineV1Config {
	c := EmptyConfig()
	c.InitialCapital = 10000
	c.CommissionRate = 0.001
	c.Strategies = []strategy.Spec{
		{Name: "buy_and_hold"},
		{Name: "sma_cross", Params: map[string]any{"short_period": 5, "long_period": 20}},
	}
	c.ResultsFolder = "results"

	return c
}
