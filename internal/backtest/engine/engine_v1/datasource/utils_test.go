package datasource

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DatasourceUtilsTestSuite struct {
	suite.Suite
}

func TestDatasourceUtilsSuite(t *testing.T) {
	suite.Run(t, new(DatasourceUtilsTestSuite))
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutes() {
	tests := []struct {
		interval        Interval
		expectedMinutes int
		expectError     bool
	}{
		{Interval1m, 1, false},
		{Interval5m, 5, false},
		{Interval15m, 15, false},
		{Interval30m, 30, false},
		{Interval1h, 60, false},
		{Interval4h, 240, false},
		{Interval6h, 360, false},
		{Interval8h, 480, false},
		{Interval12h, 720, false},
		{Interval1d, 1440, false},
		{Interval1w, 10080, false},
	}

	for _, tc := range tests {
		suite.Run(string(tc.interval), func() {
			minutes, err := getIntervalMinutes(tc.interval)

			if tc.expectError {
				suite.Error(err)
			} else {
				suite.NoError(err)
				suite.Equal(tc.expectedMinutes, minutes)
			}
		})
	}
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutesUnsupportedInterval() {
	unsupportedInterval := Interval("invalid")
	minutes, err := getIntervalMinutes(unsupportedInterval)

	suite.Error(err)
	suite.Equal(0, minutes)
	suite.Contains(err.Error(), "unsupported interval")
	suite.Contains(err.Error(), "invalid")
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutesEmptyInterval() {
	emptyInterval := Interval("")
	minutes, err := getIntervalMinutes(emptyInterval)

	suite.Error(err)
	suite.Equal(0, minutes)
}

func (suite *DatasourceUtilsTestSuite) TestGetIntervalMinutesMonthlyNotSupported() {
	minutes, err := getIntervalMinutes(Interval("1M"))

	suite.Error(err)
	suite.Equal(0, minutes)
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *DatasourceUtilsTestSuite) TestResampleHourly() {
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	bars := []types.MarketData{
		{Symbol: "AAPL", Time: base, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Symbol: "AAPL", Time: base.Add(30 * time.Minute), Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 50},
		{Symbol: "AAPL", Time: base.Add(59 * time.Minute), Open: 11.5, High: 11.6, Low: 8, Close: 9, Volume: 25},
		{Symbol: "AAPL", Time: base.Add(60 * time.Minute), Open: 9, High: 9.5, Low: 8.5, Close: 9.2, Volume: 10},
	}

	out, err := resample(bars, Interval1h)
	suite.Require().NoError(err)
	suite.Require().Len(out, 2)

	suite.Equal(types.MarketData{Symbol: "AAPL", Time: base, Open: 10, High: 12, Low: 8, Close: 9, Volume: 175}, out[0])
	suite.Equal(types.MarketData{Symbol: "AAPL", Time: base.Add(time.Hour), Open: 9, High: 9.5, Low: 8.5, Close: 9.2, Volume: 10}, out[1])
}

func (suite *DatasourceUtilsTestSuite) TestResampleKeepsSymbolsApart() {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []types.MarketData{
		{Symbol: "AAPL", Time: base, Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "MSFT", Time: base, Open: 2, High: 2, Low: 2, Close: 2},
		{Symbol: "AAPL", Time: base.Add(time.Hour), Open: 3, High: 3, Low: 3, Close: 3},
		{Symbol: "MSFT", Time: base.Add(time.Hour), Open: 4, High: 4, Low: 4, Close: 4},
	}

	out, err := resample(bars, Interval1d)
	suite.Require().NoError(err)
	suite.Require().Len(out, 2)
	suite.Equal("AAPL", out[0].Symbol)
	suite.Equal(3.0, out[0].Close)
	suite.Equal("MSFT", out[1].Symbol)
	suite.Equal(4.0, out[1].Close)
}

func (suite *DatasourceUtilsTestSuite) TestResampleWeekStartsMonday() {
	// 2024-01-04 is a Thursday
	bars := []types.MarketData{
		{Symbol: "AAPL", Time: time.Date(2024, 1, 4, 15, 0, 0, 0, time.UTC), Open: 1, High: 1, Low: 1, Close: 1},
	}

	out, err := resample(bars, Interval1w)
	suite.Require().NoError(err)
	suite.Require().Len(out, 1)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), out[0].Time)
}

func (suite *DatasourceUtilsTestSuite) TestIntervalConstants() {
	suite.Equal(Interval("1m"), Interval1m)
	suite.Equal(Interval("5m"), Interval5m)
	suite.Equal(Interval("15m"), Interval15m)
	suite.Equal(Interval("30m"), Interval30m)
	suite.Equal(Interval("1h"), Interval1h)
	suite.Equal(Interval("4h"), Interval4h)
	suite.Equal(Interval("6h"), Interval6h)
	suite.Equal(Interval("8h"), Interval8h)
	suite.Equal(Interval("12h"), Interval12h)
	suite.Equal(Interval("1d"), Interval1d)
	suite.Equal(Interval("1w"), Interval1w)
	suite.Len(AllIntervals, 11)
}
