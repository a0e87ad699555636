package engine

import (
	"context"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Lifecycle callback types for backtest phases.
// Callbacks with an error return abort the backtest when they fail.
// The engine never invokes two callbacks at the same time.

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalStrategies int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called before a strategy is simulated over one data file.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, strategyName string, dataFilePath string, totalBars int) error

// OnRunEndCallback is called after the results of a run have been written.
type OnRunEndCallback func(stats types.RunStats, resultFolderPath string)

// OnProgressCallback is called each time a run finishes.
type OnProgressCallback func(completed int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProgress      *OnProgressCallback
}

type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the market data files to backtest. Accepts glob patterns
	// (e.g. "data/*.parquet"); every matching file is a separate series.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	// Each run is written to <folder>/<strategy>/<time range>/<data file>.
	SetResultsFolder(folder string) error
	// LoadStrategy adds a strategy on top of the ones named in the configuration.
	LoadStrategy(spec strategy.Spec) error
	// SetDataSource replaces the data source the engine would open for each data file.
	SetDataSource(dataSource datasource.DataSource) error
	// Run simulates every strategy over every data file and returns the run statistics.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]types.RunStats, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
