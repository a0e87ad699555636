package datasource

import (
	"os"
	"slices"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// InMemoryDataSource keeps every bar in memory and filters in Go.
// It is filled either from a CSV file by Initialize or directly from bars.
type InMemoryDataSource struct {
	logger *logger.Logger
	bars   []types.MarketData
	mu     sync.RWMutex
}

// NewCSVDataSource returns an empty source that loads a CSV file on Initialize.
func NewCSVDataSource(logger *logger.Logger) *InMemoryDataSource {
	return &InMemoryDataSource{logger: logger}
}

// NewInMemoryDataSource returns a source serving a copy of bars.
func NewInMemoryDataSource(bars []types.MarketData) *InMemoryDataSource {
	ds := &InMemoryDataSource{logger: logger.NewNopLogger()}
	ds.load(slices.Clone(bars))

	return ds
}

// Initialize implements DataSource. The file must carry the columns
// symbol, time, open, high, low, close and volume with RFC 3339 times.
func (ds *InMemoryDataSource) Initialize(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "market data file not found: %s", path)
	}
	defer file.Close()

	var bars []types.MarketData
	if err := gocsv.UnmarshalFile(file, &bars); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to decode market data from %s", path)
	}

	ds.load(bars)
	ds.logger.Debug("Loaded market data into memory", zap.String("path", path), zap.Int("bars", len(bars)))

	return nil
}

func (ds *InMemoryDataSource) load(bars []types.MarketData) {
	slices.SortStableFunc(bars, compareBars)

	ds.mu.Lock()
	ds.bars = bars
	ds.mu.Unlock()
}

// ReadAll implements DataSource.
func (ds *InMemoryDataSource) ReadAll(query Query) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		bars, err := ds.selectBars(query)
		if err != nil {
			yield(types.MarketData{}, err)

			return
		}

		for _, bar := range bars {
			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(query Query) (int, error) {
	bars, err := ds.selectBars(query)
	if err != nil {
		return 0, err
	}

	return len(bars), nil
}

// Symbols implements DataSource.
func (ds *InMemoryDataSource) Symbols() ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbols := make([]string, 0)
	for _, bar := range ds.bars {
		symbols = append(symbols, bar.Symbol)
	}

	slices.Sort(symbols)

	return slices.Compact(symbols), nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	ds.mu.Lock()
	ds.bars = nil
	ds.mu.Unlock()

	return nil
}

func (ds *InMemoryDataSource) selectBars(q Query) ([]types.MarketData, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	selected := make([]types.MarketData, 0, len(ds.bars))

	for _, bar := range ds.bars {
		if q.Symbol.IsSome() && bar.Symbol != q.Symbol.Unwrap() {
			continue
		}

		if q.Start.IsSome() && bar.Time.Before(q.Start.Unwrap()) {
			continue
		}

		if q.End.IsSome() && bar.Time.After(q.End.Unwrap()) {
			continue
		}

		selected = append(selected, bar)
	}

	if q.Interval.IsSome() {
		return resample(selected, q.Interval.Unwrap())
	}

	return selected, nil
}
