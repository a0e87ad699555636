package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type BacktestLogTestSuite struct {
	suite.Suite
	bt *Backtest
}

func TestBacktestLogSuite(t *testing.T) {
	suite.Run(t, new(BacktestLogTestSuite))
}

func (suite *BacktestLogTestSuite) SetupTest() {
	series := seriesFromOpens(suite.T(), 100, 110, 120)
	s := strategy.Strategy{
		Name:       "manual",
		Orders:     orders(types.OrderBuy, types.OrderBuy, types.OrderBuy),
		Indicators: [][]float64{{-1, 105, 115}},
	}

	bt, err := NewBacktest(series, s, 1000, 0)
	suite.Require().NoError(err)
	suite.bt = bt
}

func (suite *BacktestLogTestSuite) lines(fields ...LogField) []string {
	var buf bytes.Buffer
	suite.Require().NoError(suite.bt.Log(&buf, fields...))

	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func (suite *BacktestLogTestSuite) TestLogFormat() {
	lines := suite.lines(LogFieldClose, LogFieldPosition)
	suite.Require().Len(lines, 3)

	suite.Equal("Date = 2024-01-02 - close = 100.00  position = 0.00     - net worth = 1000.00", lines[0])
	suite.Equal("Date = 2024-01-03 - close = 110.00  position = 9.00     - net worth = 1000.00", lines[1])
	suite.Equal("Date = 2024-01-04 - close = 120.00  position = 9.00     - net worth = 1090.00", lines[2])
}

func (suite *BacktestLogTestSuite) TestLogNoFields() {
	lines := suite.lines()
	suite.Equal("Date = 2024-01-02 -    - net worth = 1000.00", lines[0])
}

func (suite *BacktestLogTestSuite) TestLogIndicator() {
	lines := suite.lines(LogFieldIndicator)
	suite.Contains(lines[0], "indicator = -1.00")
	suite.Contains(lines[2], "indicator = 115.00")
}

func (suite *BacktestLogTestSuite) TestLogEveryField() {
	lines := suite.lines(AllLogFields...)
	suite.Require().Len(lines, 3)

	for _, field := range AllLogFields {
		suite.Contains(lines[1], string(field)+" = ")
	}

	suite.Contains(lines[1], "flow = -990.00")
	suite.Contains(lines[1], "historical_price = 110.00")
}

func (suite *BacktestLogTestSuite) TestLogUnknownField() {
	var buf bytes.Buffer

	err := suite.bt.Log(&buf, LogField("volume"))
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func (suite *BacktestLogTestSuite) TestParseLogField() {
	field, err := ParseLogField(" Market_Value ")
	suite.Require().NoError(err)
	suite.Equal(LogFieldMarketValue, field)

	_, err = ParseLogField("volume")
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}
