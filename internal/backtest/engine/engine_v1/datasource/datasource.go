package datasource

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

var AllIntervals = []any{
	Interval1m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval4h, Interval6h, Interval8h, Interval12h,
	Interval1d, Interval1w,
}

// Query selects bars from a DataSource. Unset fields do not filter.
// Start and End are inclusive.
type Query struct {
	Symbol optional.Option[string]
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
	// Interval aggregates the raw bars into buckets of this width.
	Interval optional.Option[Interval]
}

type DataSource interface {
	// Initialize loads the market data file at path. Parquet and CSV files are supported.
	Initialize(path string) error
	// ReadAll yields the bars matching query in ascending time order.
	ReadAll(query Query) func(yield func(types.MarketData, error) bool)
	// Count returns the number of bars ReadAll would yield for query.
	Count(query Query) (int, error)
	// Symbols returns the distinct symbols in the data, sorted.
	Symbols() ([]string, error)
	// Close releases any resources held by the data source.
	Close() error
}

// OpenDataSource creates a data source for the file at path and initializes it.
// CSV files are decoded into memory, everything else is queried through DuckDB.
func OpenDataSource(path string, log *logger.Logger) (DataSource, error) {
	var (
		ds  DataSource
		err error
	)

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		ds = NewCSVDataSource(log)
	} else {
		ds, err = NewDataSource(":memory:", log)
		if err != nil {
			return nil, err
		}
	}

	if err := ds.Initialize(path); err != nil {
		_ = ds.Close()

		return nil, err
	}

	return ds, nil
}

// LoadSeries reads the bars matching query into a PriceSeries. When query
// has no symbol the data must contain exactly one.
func LoadSeries(ds DataSource, query Query) (types.PriceSeries, error) {
	var bars []types.MarketData

	symbols := map[string]struct{}{}

	for bar, err := range ds.ReadAll(query) {
		if err != nil {
			return types.PriceSeries{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read market data", err)
		}

		symbols[bar.Symbol] = struct{}{}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return types.PriceSeries{}, errors.Newf(errors.ErrCodeDataNotFound,
			"no market data for symbol %q in the requested range", query.Symbol.TakeOr(""))
	}

	if len(symbols) > 1 {
		names := make([]string, 0, len(symbols))
		for name := range symbols {
			names = append(names, name)
		}

		slices.Sort(names)

		return types.PriceSeries{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"market data contains %d symbols %v, select one", len(names), names)
	}

	return types.NewPriceSeries(query.Symbol.TakeOr(""), bars)
}

// csvBar is the on-disk row written by SaveSeries.
type csvBar struct {
	Symbol string  `csv:"symbol"`
	Time   string  `csv:"time"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// SaveSeries writes series to path as CSV in the format the CSV data source reads.
func SaveSeries(path string, series types.PriceSeries) error {
	bars := series.Bars()
	for i := range bars {
		if bars[i].Symbol == "" {
			bars[i].Symbol = series.Symbol()
		}
	}

	return SaveBars(path, bars)
}

// SaveBars writes bars to path as CSV in their given order. Unlike SaveSeries
// the bars may mix symbols.
func SaveBars(path string, bars []types.MarketData) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeExportFailed, "failed to create data directory", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to create data file", err)
	}
	defer file.Close()

	rows := make([]csvBar, len(bars))
	for i, bar := range bars {
		rows[i] = csvBar{
			Symbol: bar.Symbol,
			Time:   bar.Time.Format(time.RFC3339Nano),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to write market data", err)
	}

	return nil
}
