package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// seriesFromCloses builds a daily series whose open and close equal the given values.
func seriesFromCloses(t *testing.T, closes ...float64) types.PriceSeries {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.MarketData, len(closes))

	for i, c := range closes {
		bars[i] = types.MarketData{
			Symbol: "TEST",
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
		}
	}

	series, err := types.NewPriceSeries("TEST", bars)
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}

	return series
}

type MATestSuite struct {
	suite.Suite
}

func TestMASuite(t *testing.T) {
	suite.Run(t, new(MATestSuite))
}

func (suite *MATestSuite) TestNewMA() {
	ma := NewMA()
	suite.NotNil(ma)

	maImpl := ma.(*MA)
	suite.Equal(20, maImpl.period)
	suite.Equal(types.IndicatorTypeSMA, ma.Name())
}

func (suite *MATestSuite) TestConfig() {
	tests := []struct {
		name      string
		params    []any
		expectErr string
		period    int
	}{
		{name: "int period", params: []any{10}, period: 10},
		{name: "float period", params: []any{15.0}, period: 15},
		{name: "no params", params: nil, expectErr: "expects 1 parameter"},
		{name: "too many params", params: []any{10, 20}, expectErr: "expects 1 parameter"},
		{name: "wrong type", params: []any{"ten"}, expectErr: "invalid type for period"},
		{name: "zero period", params: []any{0}, expectErr: "must be a positive integer"},
		{name: "negative period", params: []any{-5}, expectErr: "must be a positive integer"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			ma := NewMA()
			err := ma.Config(tc.params...)

			if tc.expectErr != "" {
				suite.Error(err)
				suite.Contains(err.Error(), tc.expectErr)

				return
			}

			suite.NoError(err)
			suite.Equal(tc.period, ma.(*MA).period)
		})
	}
}

func (suite *MATestSuite) TestSMAValues() {
	series := seriesFromCloses(suite.T(), 1, 2, 3, 4, 5)

	values, err := SMA(series, 3)
	suite.Require().NoError(err)
	suite.Require().Len(values, 5)
	suite.Equal(types.IndicatorWarmup, values[0])
	suite.Equal(types.IndicatorWarmup, values[1])
	suite.InDelta(2.0, values[2], 1e-9)
	suite.InDelta(3.0, values[3], 1e-9)
	suite.InDelta(4.0, values[4], 1e-9)
}

func (suite *MATestSuite) TestSMAPeriodOneIsCloses() {
	series := seriesFromCloses(suite.T(), 7, 8, 9)

	values, err := SMA(series, 1)
	suite.Require().NoError(err)
	suite.Equal([]float64{7, 8, 9}, values)
}

func (suite *MATestSuite) TestSMAPeriodEqualsLength() {
	series := seriesFromCloses(suite.T(), 2, 4, 6)

	values, err := SMA(series, 3)
	suite.Require().NoError(err)
	suite.Equal(types.IndicatorWarmup, values[1])
	suite.InDelta(4.0, values[2], 1e-9)
}

func (suite *MATestSuite) TestSMAInsufficientData() {
	series := seriesFromCloses(suite.T(), 1, 2)

	_, err := SMA(series, 3)
	suite.Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *MATestSuite) TestSMAInvalidPeriod() {
	series := seriesFromCloses(suite.T(), 1, 2, 3)

	_, err := SMA(series, 0)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidPeriod, errors.GetCode(err))
}
