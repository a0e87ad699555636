package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ExportTestSuite struct {
	suite.Suite
	dir    string
	series types.PriceSeries
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, new(ExportTestSuite))
}

func (suite *ExportTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.MarketData{
		{Time: start, Open: 100, High: 102, Low: 99, Close: 101},
		{Time: start.AddDate(0, 0, 1), Open: 101, High: 104, Low: 100, Close: 103},
		{Time: start.AddDate(0, 0, 2), Open: 103, High: 103, Low: 97, Close: 98},
	}

	series, err := types.NewPriceSeries("GOOG", bars)
	suite.Require().NoError(err)
	suite.series = series
}

func (suite *ExportTestSuite) TestWriteReportCSV() {
	date := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	rows := []ReportRow{
		{Date: ReportDate(date), Open: 100, Close: 101, Order: types.OrderBuy, Indicator1: Indicator(-1), Indicator2: NoIndicator(), Account: 1000, NetWorth: 1000},
		{Date: ReportDate(date.AddDate(0, 0, 1)), Open: 101, Close: 103, Order: types.OrderFlat, Indicator1: Indicator(100.5), Indicator2: Indicator(99.25), Position: 9, Account: 91, MarketValue: 927, NetWorth: 1018, Flow: -909, Commission: -9.09, HistoricalPrice: 101},
	}

	path := filepath.Join(suite.dir, "nested", "report.csv")
	suite.Require().NoError(WriteReportCSV(path, rows))

	raw, err := os.ReadFile(path)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	suite.Require().Len(lines, 3)
	suite.Equal("DATE,OPEN,CLOSE,CHOICES,INDIC1,INDIC2,ACCOUNT,POSITION,MKTVALUE,NETWORTH,FLOW,COMMISSION,HIST_PRICE", lines[0])
	suite.True(strings.HasPrefix(lines[1], "2024-05-01,100,101,BUY,-1,,1000,"))
	suite.Contains(lines[2], "FLAT,100.5,99.25")

	read, err := ReadReportCSV(path)
	suite.Require().NoError(err)
	suite.Require().Len(read, 2)

	_, ok := read[0].Indicator2.Take()
	suite.False(ok)

	v, ok := read[1].Indicator2.Take()
	suite.True(ok)
	suite.Equal(99.25, v)
	suite.Equal(types.OrderFlat, read[1].Order)
}

func (suite *ExportTestSuite) TestWriteTradesCSV() {
	at := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	trades := []types.Trade{
		{RunID: "r1", Time: at, Order: types.OrderBuy, Quantity: 9, Price: 101, Commission: 9.09, Position: 9, Account: 81.91},
		{RunID: "r1", Time: at.AddDate(0, 0, 1), Order: types.OrderFlat, Quantity: -9, Price: 103, Commission: 9.27, Position: 0, Account: 999.64},
	}

	path := filepath.Join(suite.dir, "run", "trades.csv")
	suite.Require().NoError(WriteTradesCSV(path, trades))

	raw, err := os.ReadFile(path)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	suite.Require().Len(lines, 3)
	suite.Equal("TIME,ORDER,QUANTITY,PRICE,COMMISSION,POSITION,ACCOUNT", lines[0])
	suite.Equal("2024-05-02T00:00:00Z,BUY,9,101,9.09,9,81.91", lines[1])

	rows, err := ReadTradesCSV(path)
	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)
	suite.Equal(types.OrderFlat, rows[1].Order)
	suite.Equal(-9.0, rows[1].Quantity)
}

func (suite *ExportTestSuite) TestWriteTradesCSVWithoutTrades() {
	path := filepath.Join(suite.dir, "trades.csv")
	suite.Require().NoError(WriteTradesCSV(path, nil))

	raw, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Equal("TIME,ORDER,QUANTITY,PRICE,COMMISSION,POSITION,ACCOUNT", strings.TrimSpace(string(raw)))
}

func (suite *ExportTestSuite) TestReadReportMissing() {
	_, err := ReadReportCSV(filepath.Join(suite.dir, "missing.csv"))
	suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
}

func (suite *ExportTestSuite) TestRenderChart() {
	data := ChartData{
		Title:          "sma_cross_1_2",
		Series:         suite.series,
		Orders:         []types.Order{types.OrderFlat, types.OrderBuy, types.OrderShort},
		IndicatorNames: []string{"fast", "slow"},
		Indicators:     [][]float64{{101, 103, 98}, {-1, 102, 100.5}},
		NetWorth:       []float64{1000, 1000, 1020},
	}

	var buf bytes.Buffer
	suite.Require().NoError(RenderChart(&buf, data))

	html := buf.String()
	suite.Contains(html, "sma_cross_1_2")
	suite.Contains(html, "fast")
	suite.Contains(html, "slow")
	suite.Contains(html, "Net worth")
}

func (suite *ExportTestSuite) TestWriteChart() {
	path := filepath.Join(suite.dir, "run", "chart.html")
	data := ChartData{
		Title:    "buy and hold",
		Series:   suite.series,
		Orders:   []types.Order{types.OrderBuy, types.OrderBuy, types.OrderBuy},
		NetWorth: []float64{1000, 1010, 970},
	}

	suite.Require().NoError(WriteChart(path, data))
	suite.FileExists(path)
}

func (suite *ExportTestSuite) TestRenderChartShapeMismatch() {
	data := ChartData{
		Title:    "broken",
		Series:   suite.series,
		Orders:   []types.Order{types.OrderBuy},
		NetWorth: []float64{1000, 1010, 970},
	}

	err := RenderChart(&bytes.Buffer{}, data)
	suite.Equal(errors.ErrCodeShapeMismatch, errors.GetCode(err))

	err = RenderChart(&bytes.Buffer{}, ChartData{})
	suite.Equal(errors.ErrCodeEmptySeries, errors.GetCode(err))
}

func (suite *ExportTestSuite) TestCompare() {
	stats := []types.RunStats{
		{Strategy: "simple_sma_10", Performance: types.RunPerformance{FinalNetWorth: 105000, TotalReturn: 5}, Activity: types.RunActivity{NumberOfTrades: 12, TotalCommission: 42.5}},
		{Strategy: "rsi_15", Performance: types.RunPerformance{FinalNetWorth: 98000, TotalReturn: -2, MaxDrawdown: 7.5}, Activity: types.RunActivity{NumberOfTrades: 3}},
	}

	rows := CompareRows(stats)
	suite.Equal([]string{"simple_sma_10", "105000.00", "5.00", "0.00", "42.50", "12", "0.00"}, rows[0])

	var buf bytes.Buffer
	suite.Require().NoError(Compare(&buf, stats))
	suite.Contains(buf.String(), "Final net worth")
	suite.Contains(buf.String(), "rsi_15")
	suite.Contains(buf.String(), "-2.00")
}

func (suite *ExportTestSuite) TestCompareEmpty() {
	err := Compare(&bytes.Buffer{}, nil)
	suite.Equal(errors.ErrCodeBacktestNoData, errors.GetCode(err))
}
