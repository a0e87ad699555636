package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	enginev1 "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

const cliConfig = `
initial_capital: 10000
commission_rate: 0.001
strategies:
  - name: buy_and_hold
  - name: sma_cross
    params:
      short_period: 3
      long_period: 8
`

type CLITestSuite struct {
	suite.Suite
	dir      string
	dataPath string
	config   string
	results  string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.dataPath = filepath.Join(suite.dir, "data", "AAPL.csv")
	suite.results = filepath.Join(suite.dir, "results")

	series, err := mocks.DailySeries("AAPL", 60)
	suite.Require().NoError(err)
	suite.Require().NoError(datasource.SaveSeries(suite.dataPath, series))

	suite.config = suite.writeConfig(cliConfig)
}

func (suite *CLITestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

// run executes the CLI with args and returns what it wrote.
func (suite *CLITestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(context.Background(), append([]string{"backtest"}, args...))

	return out.String(), err
}

func (suite *CLITestSuite) runBacktest() string {
	out, err := suite.run("run", "--config", suite.config, "--data", suite.dataPath,
		"--results", suite.results, "--progress=false")
	suite.Require().NoError(err, out)

	return out
}

func (suite *CLITestSuite) TestRun() {
	out := suite.runBacktest()

	suite.Contains(out, "Running 2 strategies over 1 data files")
	suite.Contains(out, "Final net worth")
	suite.Contains(out, "buy and hold")
	suite.Contains(out, "sma_cross_3_8")

	stats, err := types.ReadRunStats(filepath.Join(suite.results, "stats.yaml"))
	suite.Require().NoError(err)
	suite.Len(stats, 2)

	for _, s := range stats {
		suite.FileExists(s.ReportPath)
		suite.FileExists(s.ChartPath)
	}
}

func (suite *CLITestSuite) TestRunExtraStrategy() {
	out, err := suite.run("run", "-c", suite.config, "-d", suite.dataPath, "-r", suite.results,
		"--progress=false", "-s", "do_nothing")
	suite.Require().NoError(err, out)
	suite.Contains(out, "Running 3 strategies")
	suite.Contains(out, "do nothing")
}

func (suite *CLITestSuite) TestRunMissingConfig() {
	_, err := suite.run("run", "--config", filepath.Join(suite.dir, "missing.yaml"), "--data", suite.dataPath)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "failed to read config")
}

func (suite *CLITestSuite) TestRunInvalidConfig() {
	config := suite.writeConfig("initial_capital: -1\nstrategies:\n  - name: buy_and_hold\n")

	_, err := suite.run("run", "--config", config, "--data", suite.dataPath, "--results", suite.results)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *CLITestSuite) TestRunReportsErrorOnce() {
	out, err := suite.run("run", "--config", suite.config, "--data", suite.dataPath,
		"--results", filepath.Dir(suite.dataPath), "--progress=false")
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
	suite.Contains(err.Error(), "contains data file")
	suite.FileExists(suite.dataPath)

	// main prints err, the command output must not repeat it
	suite.NotContains(out, "contains data file")
}

func (suite *CLITestSuite) TestCompare() {
	suite.runBacktest()

	out, err := suite.run("compare", filepath.Join(suite.results, "stats.yaml"))
	suite.Require().NoError(err)
	suite.Contains(out, "Buy & hold %")
	suite.Contains(out, "sma_cross_3_8")

	_, err = suite.run("compare")
	suite.Equal(errors.ErrCodeMissingParameter, errors.GetCode(err))
}

func (suite *CLITestSuite) TestCompareWarnsOnEngineMismatch() {
	runs := []types.RunStats{
		{Symbol: "AAPL", Strategy: "buy and hold", EngineVersion: "1.2.0"},
		{Symbol: "AAPL", Strategy: "rsi_14", EngineVersion: "1.2.4"},
		{Symbol: "AAPL", Strategy: "sma_cross_5_20", EngineVersion: "1.3.0"},
	}

	var out bytes.Buffer
	suite.Require().NoError(compareRuns(&out, runs))

	suite.Contains(out.String(), "Warning: sma_cross_5_20 on AAPL")
	suite.NotContains(out.String(), "Warning: rsi_14")
}

func (suite *CLITestSuite) TestHistory() {
	storePath := filepath.Join(suite.dir, "runs.db")
	suite.config = suite.writeConfig(cliConfig + "store_path: " + storePath + "\n")
	suite.runBacktest()

	out, err := suite.run("history", "list", "--store", storePath, "--strategy", "sma_cross_3_8")
	suite.Require().NoError(err)
	suite.Contains(out, "sma_cross_3_8")
	suite.NotContains(out, "buy and hold")

	stats, err := types.ReadRunStats(filepath.Join(suite.results, "stats.yaml"))
	suite.Require().NoError(err)
	suite.Require().Len(stats, 2)

	out, err = suite.run("history", "compare", "--store", storePath, stats[0].ID, stats[1].ID)
	suite.Require().NoError(err)
	suite.Contains(out, stats[0].Strategy)

	out, err = suite.run("history", "delete", "--store", storePath, stats[0].ID)
	suite.Require().NoError(err)
	suite.Contains(out, "Deleted run "+stats[0].ID)

	_, err = suite.run("history", "compare", "--store", storePath, stats[0].ID)
	suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
}

func (suite *CLITestSuite) TestHistoryEmptyStore() {
	out, err := suite.run("history", "list", "--store", filepath.Join(suite.dir, "empty.db"))
	suite.Require().NoError(err)
	suite.Contains(out, "No runs recorded")
}

func (suite *CLITestSuite) TestLog() {
	out, err := suite.run("log", "--data", suite.dataPath, "--strategy", "simple_sma",
		"-p", "period=5", "-f", "close", "-f", "position")
	suite.Require().NoError(err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	suite.Len(lines, 60)
	suite.True(strings.HasPrefix(lines[0], "Date = 2024-01-02"), lines[0])
	suite.Contains(lines[0], "close =")
	suite.Contains(lines[0], "position =")
	suite.Contains(lines[0], "net worth = 10000.00")
}

func (suite *CLITestSuite) TestLogSymbolFromMixedFile() {
	mixed := filepath.Join(suite.dir, "data", "mixed.csv")
	bars := mocks.NewPriceWalk(7).Interleaved([]string{"AAPL", "MSFT"}, mocks.DailyWalk("", 20))
	suite.Require().NoError(datasource.SaveBars(mixed, bars))

	out, err := suite.run("log", "--data", mixed, "--strategy", "buy_and_hold", "--symbol", "MSFT", "-f", "open")
	suite.Require().NoError(err, out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	suite.Require().Len(lines, 20)
	suite.Contains(lines[0], "open = 200.00")
}

func (suite *CLITestSuite) TestLogErrors() {
	_, err := suite.run("log", "--data", suite.dataPath, "--strategy", "simple_sma", "-p", "period")
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))

	_, err = suite.run("log", "--data", suite.dataPath, "--strategy", "buy_and_hold", "-f", "volume")
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))

	_, err = suite.run("log", "--data", suite.dataPath, "--strategy", "martingale")
	suite.Equal(errors.ErrCodeStrategyNotFound, errors.GetCode(err))
}

func (suite *CLITestSuite) TestParseParams() {
	params, err := parseParams([]string{"period=14", "invert=true", "name = fast", "ratio=0.5"})
	suite.Require().NoError(err)
	suite.Equal(map[string]any{"period": 14, "invert": true, "name": "fast", "ratio": 0.5}, params)

	params, err = parseParams(nil)
	suite.NoError(err)
	suite.Nil(params)

	_, err = parseParams([]string{"=1"})
	suite.Error(err)
}

func (suite *CLITestSuite) TestSchema() {
	out, err := suite.run("schema")
	suite.Require().NoError(err)
	suite.Contains(out, "initial_capital")

	out, err = suite.run("schema", "--strategy", "rsi")
	suite.Require().NoError(err)
	suite.Contains(out, "period")

	out, err = suite.run("schema", "--provider", "polygon")
	suite.Require().NoError(err)
	suite.Contains(out, "apiKey")

	out, err = suite.run("schema", "--list")
	suite.Require().NoError(err)
	suite.Contains(out, "buy_and_hold")
	suite.Contains(out, "binance")

	_, err = suite.run("schema", "--strategy", "martingale")
	suite.Equal(errors.ErrCodeStrategyNotFound, errors.GetCode(err))
}

func (suite *CLITestSuite) TestInit() {
	dir := filepath.Join(suite.dir, "config")

	out, err := suite.run("init", "--dir", dir)
	suite.Require().NoError(err)
	suite.Contains(out, "Sample config written")
	suite.FileExists(filepath.Join(dir, schemaFileName))

	sample, err := os.ReadFile(filepath.Join(dir, sampleConfigFileName))
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(string(sample), "# yaml-language-server: $schema="+schemaFileName))

	eng := enginev1.NewBacktestEngineV1()
	suite.NoError(eng.Initialize(string(sample)))

	// A second init keeps the existing config.
	out, err = suite.run("init", "--dir", dir)
	suite.Require().NoError(err)
	suite.NotContains(out, "Sample config written")
}

func (suite *CLITestSuite) TestDownloadValidation() {
	_, err := suite.run("download", "--ticker", "BTCUSDT", "--start", "yesterday")
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))

	_, err = suite.run("download", "--ticker", "BTCUSDT", "--start", "2024-01-01", "--interval", "7m")
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	_, err = suite.run("download", "--ticker", "BTCUSDT", "--start", "2024-01-01", "--end", "2024-02-01",
		"--provider", "kraken", "--data", suite.dir)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}
