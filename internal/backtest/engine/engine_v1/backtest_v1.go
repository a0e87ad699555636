package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/export"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/store"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

const (
	reportFileName = "report.csv"
	statsFileName  = "stats.yaml"
	chartFileName  = "chart.html"
	logFileName    = "log.txt"
	tradesFileName = "trades.csv"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	strategies    []strategy.Spec
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	state         *BacktestState
	datasource    datasource.DataSource
	store         *store.RunStore

	// callbackMu serialises callbacks, the run store and the run counter.
	callbackMu sync.Mutex
	completed  int
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		strategies:    nil,
		dataPaths:     nil,
		resultsFolder: "",
		log:           nil,
		state:         nil,
		datasource:    nil,
		store:         nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest configuration", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	var loggerError error

	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	b.strategies = append([]strategy.Spec(nil), b.config.Strategies...)

	if b.config.ResultsFolder != "" {
		b.resultsFolder = b.config.ResultsFolder
	}

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(spec strategy.Spec) error {
	if _, err := strategy.Schema(spec.Name); err != nil {
		return err
	}

	b.strategies = append(b.strategies, spec)
	b.logger().Debug("Strategy loaded",
		zap.String("strategy", spec.Name),
		zap.Int("total_strategies", len(b.strategies)),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		b.logger().Error("Failed to set data path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path pattern: %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			b.logger().Error("Failed to get absolute path",
				zap.String("path", file),
				zap.Error(err),
			)

			return err
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths
	b.logger().Debug("Data paths set",
		zap.Strings("files", absolutePaths),
	)

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.logger().Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine. Data files are processed one after another;
// the strategies of a data file are simulated concurrently, at most
// MaxConcurrent at a time. Stats are returned in data file, then strategy order.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (results []types.RunStats, err error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(err)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	start := time.Now()

	if err := checkResultsFolder(b.resultsFolder, b.dataPaths); err != nil {
		return nil, err
	}

	// remove results of a previous backtest
	if err := clearResults(b.resultsFolder); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExportFailed, "failed to create results folder", err)
	}

	if err := b.setup(); err != nil {
		return nil, err
	}
	defer b.teardown()

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.strategies), len(b.dataPaths)); err != nil {
			return nil, err
		}
	}

	total := len(b.strategies) * len(b.dataPaths)

	for _, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		stats, err := b.runDataFile(ctx, dataPath, total, callbacks)
		if err != nil {
			return results, err
		}

		results = append(results, stats...)
	}

	if err := b.state.Write(b.resultsFolder); err != nil {
		return results, err
	}

	if err := types.WriteRunStats(filepath.Join(b.resultsFolder, statsFileName), results); err != nil {
		return results, errors.Wrap(errors.ErrCodeExportFailed, "failed to write run stats", err)
	}

	b.logger().Info("Backtest finished",
		zap.Int("runs", len(results)),
		zap.String("results", b.resultsFolder),
		zap.Duration("elapsed", time.Since(start)),
	)

	return results, nil
}

// runDataFile loads one data file and simulates every strategy over it.
func (b *BacktestEngineV1) runDataFile(ctx context.Context, dataPath string, total int, callbacks engine.LifecycleCallbacks) ([]types.RunStats, error) {
	series, err := b.loadSeries(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", dataPath, err)
	}

	built := make([]strategy.Strategy, len(b.strategies))
	names := make([]string, len(b.strategies))

	for i, spec := range b.strategies {
		s, err := strategy.Build(spec, series)
		if err != nil {
			return nil, err
		}

		built[i] = s
		names[i] = sanitizeName(s.Name)
	}

	folderNames := uniqueNames(names)
	stats := make([]types.RunStats, len(built))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.MaxConcurrent)

	for i := range built {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			resultFolder := getResultFolder(b.resultsFolder, b.config, dataPath, folderNames[i])

			s, err := b.runOne(series, built[i], dataPath, resultFolder, total, callbacks)
			if err != nil {
				return fmt.Errorf("strategy %s on %s: %w", built[i].Name, filepath.Base(dataPath), err)
			}

			stats[i] = s

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (b *BacktestEngineV1) loadSeries(dataPath string) (types.PriceSeries, error) {
	ds := b.datasource
	if ds == nil {
		opened, err := datasource.OpenDataSource(dataPath, b.logger())
		if err != nil {
			return types.PriceSeries{}, err
		}
		defer opened.Close()

		ds = opened
	} else if err := ds.Initialize(dataPath); err != nil {
		return types.PriceSeries{}, err
	}

	series, err := datasource.LoadSeries(ds, b.config.query())
	if err != nil {
		return types.PriceSeries{}, err
	}

	b.logger().Debug("Loaded price series",
		zap.String("data", dataPath),
		zap.String("symbol", series.Symbol()),
		zap.Int("bars", series.Len()),
	)

	return series, nil
}

// runOne simulates s over series and writes the run folder.
func (b *BacktestEngineV1) runOne(series types.PriceSeries, s strategy.Strategy, dataPath string, resultFolder string, total int, callbacks engine.LifecycleCallbacks) (types.RunStats, error) {
	runID := uuid.New().String()

	if callbacks.OnRunStart != nil {
		b.callbackMu.Lock()
		err := (*callbacks.OnRunStart)(runID, s.Name, dataPath, series.Len())
		b.callbackMu.Unlock()

		if err != nil {
			return types.RunStats{}, err
		}
	}

	b.logger().Debug("Running strategy",
		zap.String("run_id", runID),
		zap.String("strategy", s.Name),
		zap.String("data", dataPath),
		zap.String("result", resultFolder),
	)

	bt, err := NewBacktest(series, s, b.config.InitialCapital, b.config.CommissionRate, WithShortSizing(b.config.ShortSizing))
	if err != nil {
		return types.RunStats{}, err
	}

	stats := bt.Stats()
	stats.ID = runID
	stats.ReportPath = filepath.Join(resultFolder, reportFileName)
	stats.ChartPath = filepath.Join(resultFolder, chartFileName)

	if err := b.state.Record(runID, bt); err != nil {
		return types.RunStats{}, err
	}

	if err := b.writeResults(bt, stats, resultFolder); err != nil {
		return types.RunStats{}, err
	}

	b.callbackMu.Lock()
	defer b.callbackMu.Unlock()

	if b.store != nil {
		if err := b.store.SaveRun(context.Background(), stats, resultFolder); err != nil {
			return types.RunStats{}, err
		}
	}

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(stats, resultFolder)
	}

	b.completed++

	if callbacks.OnProgress != nil {
		if err := (*callbacks.OnProgress)(b.completed, total); err != nil {
			return types.RunStats{}, err
		}
	}

	return stats, nil
}

func (b *BacktestEngineV1) writeResults(bt *Backtest, stats types.RunStats, resultFolder string) error {
	if err := os.MkdirAll(resultFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to create result folder", err)
	}

	if err := export.WriteReportCSV(stats.ReportPath, bt.Rows()); err != nil {
		return err
	}

	if err := export.WriteChart(stats.ChartPath, bt.ChartData()); err != nil {
		return err
	}

	trades, err := b.state.GetTrades(stats.ID)
	if err != nil {
		return err
	}

	if err := export.WriteTradesCSV(filepath.Join(resultFolder, tradesFileName), trades); err != nil {
		return err
	}

	if err := types.WriteRunStats(filepath.Join(resultFolder, statsFileName), []types.RunStats{stats}); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to write stats", err)
	}

	if len(b.config.LogFields) == 0 {
		return nil
	}

	file, err := os.Create(filepath.Join(resultFolder, logFileName))
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to create log file", err)
	}
	defer file.Close()

	return bt.Log(file, b.config.LogFields...)
}

func (b *BacktestEngineV1) setup() error {
	state, err := NewBacktestState(b.logger())
	if err != nil {
		return fmt.Errorf("failed to create backtest state: %w", err)
	}

	b.state = state
	b.completed = 0

	if b.config.StorePath != "" {
		runStore, err := store.NewRunStore(b.config.StorePath)
		if err != nil {
			return err
		}

		b.store = runStore
	}

	return nil
}

func (b *BacktestEngineV1) teardown() {
	if b.state != nil {
		if err := b.state.Close(); err != nil {
			b.logger().Warn("Failed to close backtest state", zap.Error(err))
		}

		b.state = nil
	}

	if b.store != nil {
		if err := b.store.Close(); err != nil {
			b.logger().Warn("Failed to close run store", zap.Error(err))
		}

		b.store = nil
	}
}

func (b *BacktestEngineV1) preRunCheck() error {
	if len(b.strategies) == 0 {
		b.logger().Error("No strategies loaded")

		return errors.New(errors.ErrCodeStrategyNotFound, "no strategies loaded")
	}

	if len(b.dataPaths) == 0 {
		b.logger().Error("No data paths loaded")

		return errors.New(errors.ErrCodeDataNotFound, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.logger().Error("No results folder set")

		return errors.New(errors.ErrCodeInvalidConfiguration, "no results folder set")
	}

	if b.config.InitialCapital <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine is not initialized")
	}

	return nil
}

// logger returns the engine logger, or a no-op logger before Initialize.
func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		return logger.NewNopLogger()
	}

	return b.log
}
